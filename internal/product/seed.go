package product

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeMC777/storefront/internal/money"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Products []struct {
		Name           string `yaml:"name"`
		Description    string `yaml:"description"`
		Price          string `yaml:"price"`
		Image          string `yaml:"image"`
		Category       string `yaml:"category"`
		Stock          int    `yaml:"stock"`
		Specifications string `yaml:"specifications"`
	} `yaml:"products"`
}

// Catalog returns the embedded seed catalog with validated prices.
func Catalog() ([]Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	out := make([]Product, 0, len(f.Products))
	for _, p := range f.Products {
		price, err := money.Normalize(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog product %q: %w", p.Name, err)
		}
		if p.Stock < 0 {
			return nil, fmt.Errorf("catalog product %q: negative stock", p.Name)
		}
		out = append(out, Product{
			Name:           p.Name,
			Description:    p.Description,
			Price:          price,
			Image:          p.Image,
			Category:       p.Category,
			Stock:          p.Stock,
			Specifications: p.Specifications,
		})
	}
	return out, nil
}

// Seed inserts the embedded catalog when the products table is empty and
// reports how many products were added.
func Seed(ctx context.Context, repo Repository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	items, err := Catalog()
	if err != nil {
		return 0, err
	}
	// keep catalog order stable under the default created_at sort
	base := time.Now().UTC()
	for i := range items {
		items[i].CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		if err := repo.Create(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("seed %q: %w", items[i].Name, err)
		}
	}
	log.Printf("[seed] inserted %d products", len(items))
	return len(items), nil
}
