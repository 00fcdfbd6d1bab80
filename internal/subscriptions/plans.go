package subscriptions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

// Plan is a catalog entry. Price is zero for plans sold through sales.
type Plan struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	Price        float64  `yaml:"price" json:"price"`
	PriceLabel   string   `yaml:"priceLabel" json:"priceLabel"`
	Features     []string `yaml:"features" json:"features"`
	ContactSales bool     `yaml:"contactSales" json:"contactSales,omitempty"`
}

type Catalog struct {
	Plans []Plan `yaml:"plans" json:"plans"`
}

// DefaultCatalog returns the embedded plan list.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultPlansYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded plans.yaml: %v", err))
	}
	return c
}

// LoadCatalog reads path, or returns the embedded catalog when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read plans file: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse plans: %w", err)
	}
	if len(c.Plans) == 0 {
		return Catalog{}, fmt.Errorf("parse plans: no plans defined")
	}
	seen := make(map[string]bool, len(c.Plans))
	for i, p := range c.Plans {
		if p.ID == "" || p.Name == "" {
			return Catalog{}, fmt.Errorf("parse plans: plan %d needs id and name", i)
		}
		id := strings.ToLower(p.ID)
		if seen[id] {
			return Catalog{}, fmt.Errorf("parse plans: duplicate plan %q", p.ID)
		}
		seen[id] = true
		if p.PriceLabel == "" {
			c.Plans[i].PriceLabel = fmt.Sprintf("$%.2f", p.Price)
		}
	}
	return c, nil
}

// Find matches a plan by id or display name, ignoring case.
func (c Catalog) Find(idOrName string) (Plan, bool) {
	want := strings.TrimSpace(idOrName)
	for _, p := range c.Plans {
		if strings.EqualFold(p.ID, want) || strings.EqualFold(p.Name, want) {
			return p, true
		}
	}
	return Plan{}, false
}
