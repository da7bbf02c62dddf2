package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

const (
	productColumns = `id, name, slug, category_id, type, price, original_price, description,
		specs, images, in_stock, stock_count, featured, performance_score`

	listCategoriesSQL = `SELECT id, name, slug, description FROM categories ORDER BY name`

	getCategoryBySlugSQL = `SELECT id, name, slug, description FROM categories WHERE slug = $1`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY name`

	listProductsByCatSQL = `SELECT ` + productColumns + ` FROM products WHERE category_id = $1 ORDER BY name`

	listFeaturedSQL = `SELECT ` + productColumns + ` FROM products WHERE featured ORDER BY name LIMIT $1`

	searchProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE name_search @@ websearch_to_tsquery('simple', $1)
		  AND ($2 = '' OR category_id = $2)
		ORDER BY ts_rank(name_search, websearch_to_tsquery('simple', $1)) DESC, name
		LIMIT $3`

	prebuiltColumns = `id, name, slug, tier, price, original_price, description, target_use,
		components, scores, images, featured, in_stock`

	getPrebuiltSQL = `SELECT ` + prebuiltColumns + ` FROM prebuilt_configs WHERE id = $1`

	listPrebuiltsSQL = `SELECT ` + prebuiltColumns + ` FROM prebuilt_configs ORDER BY price`

	listPrebuiltsByTierSQL = `SELECT ` + prebuiltColumns + ` FROM prebuilt_configs WHERE tier = $1 ORDER BY price`

	listPrebuiltsByFeatSQL = `SELECT ` + prebuiltColumns + ` FROM prebuilt_configs WHERE featured = $1 ORDER BY price`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Categories returns all categories ordered by name.
func (r *CatalogRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, scanCategory)
}

// CategoryBySlug returns the category with the given slug.
func (r *CatalogRepository) CategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryBySlugSQL, slug)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %q", slug)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get category %q", slug)
	}
	return &c, nil
}

// Product returns a single product by ID.
func (r *CatalogRepository) Product(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Products returns the whole product catalog.
func (r *CatalogRepository) Products(ctx context.Context) ([]catalog.Product, error) {
	return r.queryProducts(ctx, listProductsSQL)
}

// ProductsByCategory returns the products of one category.
func (r *CatalogRepository) ProductsByCategory(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	return r.queryProducts(ctx, listProductsByCatSQL, categoryID)
}

// FeaturedProducts returns up to limit featured products.
func (r *CatalogRepository) FeaturedProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	return r.queryProducts(ctx, listFeaturedSQL, limit)
}

// SearchProducts runs a full-text query over product names.
func (r *CatalogRepository) SearchProducts(ctx context.Context, term, categoryID string, limit int) ([]catalog.Product, error) {
	return r.queryProducts(ctx, searchProductsSQL, term, categoryID, limit)
}

func (r *CatalogRepository) queryProducts(ctx context.Context, sql string, args ...any) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Prebuilt returns a single pre-built config by ID.
func (r *CatalogRepository) Prebuilt(ctx context.Context, id string) (*catalog.PrebuiltConfig, error) {
	rows, err := r.pool.Query(ctx, getPrebuiltSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get prebuilt %q", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanPrebuilt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get prebuilt %q", id)
	}
	return &c, nil
}

// Prebuilts returns every pre-built config ordered by price.
func (r *CatalogRepository) Prebuilts(ctx context.Context) ([]catalog.PrebuiltConfig, error) {
	return r.queryPrebuilts(ctx, listPrebuiltsSQL)
}

// PrebuiltsByTier returns the configs of one tier.
func (r *CatalogRepository) PrebuiltsByTier(ctx context.Context, tier catalog.Tier) ([]catalog.PrebuiltConfig, error) {
	return r.queryPrebuilts(ctx, listPrebuiltsByTierSQL, string(tier))
}

// PrebuiltsByFeatured returns configs whose featured flag equals featured.
func (r *CatalogRepository) PrebuiltsByFeatured(ctx context.Context, featured bool) ([]catalog.PrebuiltConfig, error) {
	return r.queryPrebuilts(ctx, listPrebuiltsByFeatSQL, featured)
}

func (r *CatalogRepository) queryPrebuilts(ctx context.Context, sql string, args ...any) ([]catalog.PrebuiltConfig, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query prebuilt configs")
	}
	return pgx.CollectRows(rows, scanPrebuilt)
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	return c, err
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		typ   string
		score *int32
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.CategoryID, &typ, &p.Price, &p.OriginalPrice, &p.Description,
		&p.Specs, &p.Images, &p.InStock, &p.StockCount, &p.Featured, &score,
	)
	p.Type = catalog.ProductType(typ)
	if score != nil {
		s := int(*score)
		p.PerformanceScore = &s
	}
	return p, err
}

func scanPrebuilt(row pgx.CollectableRow) (catalog.PrebuiltConfig, error) {
	var (
		c    catalog.PrebuiltConfig
		tier string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &tier, &c.Price, &c.OriginalPrice, &c.Description, &c.TargetUse,
		&c.Components, &c.Scores, &c.Images, &c.Featured, &c.InStock,
	)
	c.Tier = catalog.Tier(tier)
	return c, err
}
