package services

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var defaultPackages []byte

type Package struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Price       float64  `yaml:"price" json:"price" validate:"gt=0"`
	PriceCents  int64    `yaml:"-" json:"priceCents"`
	Description string   `yaml:"description" json:"description"`
	Duration    string   `yaml:"duration" json:"duration"`
	Popularity  string   `yaml:"popularity" json:"popularity" validate:"omitempty,oneof=high medium low"`
	Features    []string `yaml:"features" json:"features"`
}

// Catalog is the ordered, read-only list of package tiers.
type Catalog struct {
	packages []Package
}

// DefaultCatalog loads the embedded tiers.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultPackages))
}

func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc struct {
		Packages []Package `yaml:"packages" validate:"min=1,dive"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse package catalog: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid package catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Packages))
	for i := range doc.Packages {
		p := &doc.Packages[i]
		if seen[p.ID] {
			return nil, fmt.Errorf("invalid package catalog: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		p.PriceCents = int64(math.Round(p.Price * 100))
	}
	return &Catalog{packages: doc.Packages}, nil
}

// ForCity returns every package with {city} filled in.
func (c *Catalog) ForCity(city string) []Package {
	out := make([]Package, 0, len(c.packages))
	for _, p := range c.packages {
		out = append(out, p.forCity(city))
	}
	return out
}

// Find looks a package up by ID.
func (c *Catalog) Find(id, city string) (Package, bool) {
	for _, p := range c.packages {
		if p.ID == id {
			return p.forCity(city), true
		}
	}
	return Package{}, false
}

func (p Package) forCity(city string) Package {
	p.Description = strings.ReplaceAll(p.Description, "{city}", city)
	p.Features = append([]string(nil), p.Features...)
	return p
}
