// Package autocomplete suggests city names from the gazetteer as the user
// types a destination.
package autocomplete

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"honesttravel/gazetteer"
)

const (
	// MinPrefix is the shortest prefix that produces suggestions.
	MinPrefix = 2
	// MaxSuggestions caps every result set.
	MaxSuggestions = 5
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	CityName    string `json:"cityName"`
	DisplayName string `json:"displayName"`
}

// Engine answers prefix queries over a fixed gazetteer.
type Engine struct {
	g *gazetteer.Gazetteer

	// collate.Collator keeps internal buffers and is not safe for concurrent use.
	mu  sync.Mutex
	col *collate.Collator
}

// NewEngine returns an engine that sorts with English collation rules.
func NewEngine(g *gazetteer.Gazetteer) *Engine {
	return NewEngineWithLanguage(g, language.English)
}

// NewEngineWithLanguage lets callers pick the collation locale.
func NewEngineWithLanguage(g *gazetteer.Gazetteer, tag language.Tag) *Engine {
	return &Engine{g: g, col: collate.New(tag)}
}

type match struct {
	Suggestion
	country string
}

// Suggest returns at most MaxSuggestions cities whose names start with prefix,
// ignoring case, sorted by city name. Cities with the same name in several
// countries are ordered by country name, then by gazetteer order. Prefixes
// shorter than MinPrefix runes return an empty slice.
func (e *Engine) Suggest(prefix string) []Suggestion {
	if utf8.RuneCountInString(prefix) < MinPrefix {
		return []Suggestion{}
	}
	needle := strings.ToLower(prefix)

	var matches []match
	for _, c := range e.g.Countries() {
		for _, city := range c.Cities {
			if strings.HasPrefix(strings.ToLower(city), needle) {
				matches = append(matches, match{
					Suggestion: Suggestion{CityName: city, DisplayName: city + ", " + c.Name},
					country:    c.Name,
				})
			}
		}
	}

	e.mu.Lock()
	sort.SliceStable(matches, func(i, j int) bool {
		if c := e.col.CompareString(matches[i].CityName, matches[j].CityName); c != 0 {
			return c < 0
		}
		return e.col.CompareString(matches[i].country, matches[j].country) < 0
	})
	e.mu.Unlock()

	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	out := make([]Suggestion, len(matches))
	for i, m := range matches {
		out[i] = m.Suggestion
	}
	return out
}
