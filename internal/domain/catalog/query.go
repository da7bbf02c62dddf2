package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// SearchLimit caps the number of full-text search results.
	SearchLimit = 20
	// FeaturedLimit caps the featured products shelf.
	FeaturedLimit = 8
)

// ListParams filters ListByCategory. Zero values disable a filter.
type ListParams struct {
	CategorySlug string
	Type         ProductType
	Limit        int
}

// SearchParams filters Search. Zero values disable a filter.
type SearchParams struct {
	Term       string
	CategoryID string
	Type       ProductType
}

// PrebuiltFilter selects pre-built configs. Tier wins over Featured; with
// neither set every config is returned.
type PrebuiltFilter struct {
	Tier     Tier
	Featured *bool
}

// SlotRef pairs a component slot name with the product filling it.
type SlotRef struct {
	Slot      string
	ProductID string
}

// Refs lists the referenced products in configurator order. Cooling is
// omitted when unset.
func (c Components) Refs() []SlotRef {
	refs := []SlotRef{
		{Slot: "cpu", ProductID: c.CPU},
		{Slot: "gpu", ProductID: c.GPU},
		{Slot: "motherboard", ProductID: c.Motherboard},
		{Slot: "ram", ProductID: c.RAM},
		{Slot: "storage", ProductID: c.Storage},
		{Slot: "psu", ProductID: c.PSU},
		{Slot: "case", ProductID: c.Case},
	}
	if c.Cooling != "" {
		refs = append(refs, SlotRef{Slot: "cooling", ProductID: c.Cooling})
	}
	return refs
}

// PopulatedPrebuilt is a pre-built config joined with its component products.
// A component whose product no longer exists maps to nil.
type PopulatedPrebuilt struct {
	PrebuiltConfig
	Parts map[string]*Product
}

// Query is the read-only catalog facade used by the storefront.
type Query struct {
	categories CategoryReader
	products   ProductReader
	prebuilts  PrebuiltReader
}

// NewQuery creates a Query over the given readers.
func NewQuery(categories CategoryReader, products ProductReader, prebuilts PrebuiltReader) *Query {
	return &Query{
		categories: categories,
		products:   products,
		prebuilts:  prebuilts,
	}
}

// Categories returns every category.
func (q *Query) Categories(ctx context.Context) ([]Category, error) {
	return q.categories.Categories(ctx)
}

// Product returns a single product or ErrNotFound.
func (q *Query) Product(ctx context.Context, id string) (*Product, error) {
	return q.products.Product(ctx, id)
}

// Featured returns up to FeaturedLimit featured products.
func (q *Query) Featured(ctx context.Context) ([]Product, error) {
	return q.products.FeaturedProducts(ctx, FeaturedLimit)
}

// ListByCategory resolves the category by slug, then filters by type and
// truncates to the limit. An unknown slug yields an empty list.
func (q *Query) ListByCategory(ctx context.Context, p ListParams) ([]Product, error) {
	var (
		products []Product
		err      error
	)
	if p.CategorySlug != "" {
		cat, cerr := q.categories.CategoryBySlug(ctx, p.CategorySlug)
		if errors.Is(cerr, ErrNotFound) {
			return []Product{}, nil
		}
		if cerr != nil {
			return nil, errors.Wrapf(cerr, "resolve category %q", p.CategorySlug)
		}
		products, err = q.products.ProductsByCategory(ctx, cat.ID)
	} else {
		products, err = q.products.Products(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	products = filterType(products, p.Type)
	if p.Limit > 0 && len(products) > p.Limit {
		products = products[:p.Limit]
	}
	return products, nil
}

// Search delegates to the store's text index and post-filters by type.
func (q *Query) Search(ctx context.Context, p SearchParams) ([]Product, error) {
	products, err := q.products.SearchProducts(ctx, p.Term, p.CategoryID, SearchLimit)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return filterType(products, p.Type), nil
}

// ListPrebuilt returns configs matching f, each joined with its components.
func (q *Query) ListPrebuilt(ctx context.Context, f PrebuiltFilter) ([]PopulatedPrebuilt, error) {
	var (
		configs []PrebuiltConfig
		err     error
	)
	switch {
	case f.Tier != "":
		configs, err = q.prebuilts.PrebuiltsByTier(ctx, f.Tier)
	case f.Featured != nil:
		configs, err = q.prebuilts.PrebuiltsByFeatured(ctx, *f.Featured)
	default:
		configs, err = q.prebuilts.Prebuilts(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list prebuilt configs")
	}

	out := make([]PopulatedPrebuilt, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	for i := range configs {
		g.Go(func() error {
			parts, err := q.populate(gctx, configs[i].Components)
			if err != nil {
				return errors.Wrapf(err, "populate %s", configs[i].ID)
			}
			out[i] = PopulatedPrebuilt{PrebuiltConfig: configs[i], Parts: parts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prebuilt returns one config joined with its components, or ErrNotFound.
func (q *Query) Prebuilt(ctx context.Context, id string) (*PopulatedPrebuilt, error) {
	cfg, err := q.prebuilts.Prebuilt(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := q.populate(ctx, cfg.Components)
	if err != nil {
		return nil, errors.Wrapf(err, "populate %s", id)
	}
	return &PopulatedPrebuilt{PrebuiltConfig: *cfg, Parts: parts}, nil
}

// populate fetches every referenced component concurrently. Missing products
// become nil entries; any other failure aborts the whole join.
func (q *Query) populate(ctx context.Context, c Components) (map[string]*Product, error) {
	refs := c.Refs()
	found := make([]*Product, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			p, err := q.products.Product(gctx, ref.ProductID)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "get %s %s", ref.Slot, ref.ProductID)
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parts := make(map[string]*Product, len(refs))
	for i, ref := range refs {
		parts[ref.Slot] = found[i]
	}
	return parts, nil
}

func filterType(products []Product, t ProductType) []Product {
	if t == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}
