// Package catalog models products, categories and pre-built configurations
// and serves read-only queries over them.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog record does not exist.
var ErrNotFound = errors.New("catalog record not found")

// ProductType distinguishes standalone components from pre-built systems.
type ProductType string

const (
	TypeComponent ProductType = "component"
	TypePrebuilt  ProductType = "prebuilt"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	return t == TypeComponent || t == TypePrebuilt
}

// Tier is a pre-built configuration's performance class.
type Tier string

const (
	TierEntry Tier = "entry"
	TierMid   Tier = "mid"
	TierPro   Tier = "pro"
	TierUltra Tier = "ultra"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierEntry, TierMid, TierPro, TierUltra:
		return true
	}
	return false
}

// Category groups products (CPU, GPU, memory, ...).
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
}

// Specifications is the free-form spec sheet of a product. Empty strings and
// zero Power mean the value is not published.
type Specifications struct {
	Brand         string   `json:"brand,omitempty"`
	Model         string   `json:"model,omitempty"`
	Performance   string   `json:"performance,omitempty"`
	Socket        string   `json:"socket,omitempty"`
	Power         int      `json:"power,omitempty"`
	Compatibility []string `json:"compatibility,omitempty"`
}

// Product is a catalog item: a single component or a pre-built system.
type Product struct {
	ID               string
	Name             string
	Slug             string
	CategoryID       string
	Type             ProductType
	Price            decimal.Decimal
	OriginalPrice    decimal.NullDecimal
	Description      string
	Specs            Specifications
	Images           []string
	InStock          bool
	StockCount       int
	Featured         bool
	PerformanceScore *int
}

// Components references the products that make up a pre-built config.
// Cooling is optional; every other slot is required.
type Components struct {
	CPU         string `json:"cpu"`
	GPU         string `json:"gpu"`
	Motherboard string `json:"motherboard"`
	RAM         string `json:"ram"`
	Storage     string `json:"storage"`
	PSU         string `json:"psu"`
	Case        string `json:"case"`
	Cooling     string `json:"cooling,omitempty"`
}

// PerformanceScores rate a pre-built config per workload.
type PerformanceScores struct {
	Gaming       int `json:"gaming"`
	Productivity int `json:"productivity"`
	Streaming    int `json:"streaming"`
}

// PrebuiltConfig is a fixed, sellable system configuration.
type PrebuiltConfig struct {
	ID            string
	Name          string
	Slug          string
	Tier          Tier
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Description   string
	TargetUse     []string
	Components    Components
	Scores        PerformanceScores
	Images        []string
	Featured      bool
	InStock       bool
}

// ProductReader is the read side of the product store.
type ProductReader interface {
	// Product returns ErrNotFound when no product has the given ID.
	Product(ctx context.Context, id string) (*Product, error)
	Products(ctx context.Context) ([]Product, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)
	// SearchProducts runs the store's full-text index over product names,
	// optionally restricted to a category, returning at most limit rows in
	// relevance order.
	SearchProducts(ctx context.Context, term, categoryID string, limit int) ([]Product, error)
}

// CategoryReader is the read side of the category store.
type CategoryReader interface {
	Categories(ctx context.Context) ([]Category, error)
	// CategoryBySlug returns ErrNotFound for unknown slugs.
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
}

// PrebuiltReader is the read side of the pre-built config store.
type PrebuiltReader interface {
	// Prebuilt returns ErrNotFound when no config has the given ID.
	Prebuilt(ctx context.Context, id string) (*PrebuiltConfig, error)
	Prebuilts(ctx context.Context) ([]PrebuiltConfig, error)
	PrebuiltsByTier(ctx context.Context, tier Tier) ([]PrebuiltConfig, error)
	PrebuiltsByFeatured(ctx context.Context, featured bool) ([]PrebuiltConfig, error)
}

// Repository is the full catalog store.
type Repository interface {
	ProductReader
	CategoryReader
	PrebuiltReader
}
