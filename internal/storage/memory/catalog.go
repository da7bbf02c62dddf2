// Package memory provides in-process implementations of the domain
// repositories. They back tests and local development; the production
// store is PostgreSQL.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

var _ catalog.Repository = (*Catalog)(nil)

// Catalog is an in-memory catalog.Repository.
type Catalog struct {
	mu         sync.RWMutex
	categories []catalog.Category
	products   []catalog.Product
	prebuilts  []catalog.PrebuiltConfig
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// AddCategory stores c, replacing any category with the same ID.
func (c *Catalog) AddCategory(cat catalog.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = upsert(c.categories, cat, func(x catalog.Category) string { return x.ID })
}

// AddProduct stores p, replacing any product with the same ID.
func (c *Catalog) AddProduct(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = upsert(c.products, p, func(x catalog.Product) string { return x.ID })
}

// AddPrebuilt stores cfg, replacing any config with the same ID.
func (c *Catalog) AddPrebuilt(cfg catalog.PrebuiltConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prebuilts = upsert(c.prebuilts, cfg, func(x catalog.PrebuiltConfig) string { return x.ID })
}

// DeleteProduct removes a product, leaving references to it dangling.
func (c *Catalog) DeleteProduct(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = slices.DeleteFunc(c.products, func(p catalog.Product) bool { return p.ID == id })
}

func (c *Catalog) Categories(_ context.Context) ([]catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.categories), nil
}

func (c *Catalog) CategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return &cat, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (c *Catalog) Product(_ context.Context, id string) (*catalog.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (c *Catalog) Products(_ context.Context) ([]catalog.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products), nil
}

func (c *Catalog) ProductsByCategory(_ context.Context, categoryID string) ([]catalog.Product, error) {
	return c.filterProducts(func(p catalog.Product) bool { return p.CategoryID == categoryID }, 0), nil
}

func (c *Catalog) FeaturedProducts(_ context.Context, limit int) ([]catalog.Product, error) {
	return c.filterProducts(func(p catalog.Product) bool { return p.Featured }, limit), nil
}

// SearchProducts matches products whose name contains every term word,
// ignoring case.
func (c *Catalog) SearchProducts(_ context.Context, term, categoryID string, limit int) ([]catalog.Product, error) {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		return []catalog.Product{}, nil
	}
	return c.filterProducts(func(p catalog.Product) bool {
		if categoryID != "" && p.CategoryID != categoryID {
			return false
		}
		name := strings.ToLower(p.Name)
		for _, w := range words {
			if !strings.Contains(name, w) {
				return false
			}
		}
		return true
	}, limit), nil
}

func (c *Catalog) Prebuilt(_ context.Context, id string) (*catalog.PrebuiltConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cfg := range c.prebuilts {
		if cfg.ID == id {
			return &cfg, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (c *Catalog) Prebuilts(_ context.Context) ([]catalog.PrebuiltConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.prebuilts), nil
}

func (c *Catalog) PrebuiltsByTier(_ context.Context, tier catalog.Tier) ([]catalog.PrebuiltConfig, error) {
	return c.filterPrebuilts(func(cfg catalog.PrebuiltConfig) bool { return cfg.Tier == tier }), nil
}

func (c *Catalog) PrebuiltsByFeatured(_ context.Context, featured bool) ([]catalog.PrebuiltConfig, error) {
	return c.filterPrebuilts(func(cfg catalog.PrebuiltConfig) bool { return cfg.Featured == featured }), nil
}

func (c *Catalog) filterProducts(keep func(catalog.Product) bool, limit int) []catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []catalog.Product{}
	for _, p := range c.products {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) filterPrebuilts(keep func(catalog.PrebuiltConfig) bool) []catalog.PrebuiltConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []catalog.PrebuiltConfig{}
	for _, cfg := range c.prebuilts {
		if keep(cfg) {
			out = append(out, cfg)
		}
	}
	return out
}

func upsert[T any](list []T, v T, key func(T) string) []T {
	for i := range list {
		if key(list[i]) == key(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
