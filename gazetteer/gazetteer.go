// Package gazetteer holds the static country → cities reference list used by
// city autocomplete. It is loaded once at startup and never mutated.
package gazetteer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

//go:embed cities.json
var defaultCities []byte

// Country is one gazetteer entry. Cities keep their file order.
type Country struct {
	Name   string
	Cities []string
}

// Gazetteer is an ordered, read-only list of countries.
type Gazetteer struct {
	countries []Country
}

// Default loads the embedded city list.
func Default(log *zap.Logger) (*Gazetteer, error) {
	return Load(bytes.NewReader(defaultCities), log)
}

// LoadFile loads a city list from disk.
func LoadFile(path string, log *zap.Logger) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, log)
}

// Load reads a JSON object mapping country names to arrays of city names.
// Country order follows the document. A country whose value is not an array,
// and any city that is not a non-empty string, is skipped with a warning.
// Only a document that is not a JSON object is an error.
func Load(r io.Reader, log *zap.Logger) (*Gazetteer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("read gazetteer: top level must be an object")
	}

	g := &Gazetteer{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read gazetteer key: %w", err)
		}
		country, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read cities of %q: %w", country, err)
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || items == nil {
			log.Warn("invalid city list for country, skipping",
				zap.String("country", country), zap.ByteString("value", raw))
			continue
		}

		cities := make([]string, 0, len(items))
		for _, item := range items {
			var name string
			if err := json.Unmarshal(item, &name); err != nil || name == "" {
				log.Warn("invalid city name, skipping",
					zap.String("country", country), zap.ByteString("value", item))
				continue
			}
			cities = append(cities, name)
		}
		g.countries = append(g.countries, Country{Name: country, Cities: cities})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read gazetteer end: %w", err)
	}
	return g, nil
}

// New builds a gazetteer from already-validated entries, in order.
func New(countries ...Country) *Gazetteer {
	g := &Gazetteer{countries: make([]Country, 0, len(countries))}
	for _, c := range countries {
		g.countries = append(g.countries, Country{Name: c.Name, Cities: append([]string(nil), c.Cities...)})
	}
	return g
}

// Countries returns the entries in load order. The slice is shared and must
// not be modified by callers.
func (g *Gazetteer) Countries() []Country {
	return g.countries
}

// Len is the total number of cities across every country.
func (g *Gazetteer) Len() int {
	n := 0
	for _, c := range g.countries {
		n += len(c.Cities)
	}
	return n
}
