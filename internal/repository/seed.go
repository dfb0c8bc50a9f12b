package repository

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"storefront/internal/models"
)

//go:embed seed/products.yaml
var defaultSeed []byte

// DefaultSeed is the catalog used when no products document exists yet.
func DefaultSeed() []models.Product {
	products, err := parseSeed(defaultSeed)
	if err != nil {
		panic(fmt.Sprintf("embedded seed catalog: %v", err))
	}
	return products
}

// LoadSeed reads a YAML product list from path. An empty path yields
// DefaultSeed.
func LoadSeed(path string) ([]models.Product, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]models.Product, error) {
	var products []models.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}

	seen := make(map[string]bool, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("%w: seed product %d has no id", ErrInvalidInput, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate seed product id %q", ErrInvalidInput, p.ID)
		}
		seen[p.ID] = true
		if err := Validate(p); err != nil {
			return nil, fmt.Errorf("seed product %q: %w", p.ID, err)
		}
	}
	return products, nil
}
