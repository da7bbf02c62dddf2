package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

const (
	upsertCategorySQL = `INSERT INTO categories (id, name, slug, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			category_id = EXCLUDED.category_id,
			type = EXCLUDED.type,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			description = EXCLUDED.description,
			specs = EXCLUDED.specs,
			images = EXCLUDED.images,
			in_stock = EXCLUDED.in_stock,
			stock_count = EXCLUDED.stock_count,
			featured = EXCLUDED.featured,
			performance_score = EXCLUDED.performance_score`

	upsertPrebuiltSQL = `INSERT INTO prebuilt_configs (` + prebuiltColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			tier = EXCLUDED.tier,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			description = EXCLUDED.description,
			target_use = EXCLUDED.target_use,
			components = EXCLUDED.components,
			scores = EXCLUDED.scores,
			images = EXCLUDED.images,
			featured = EXCLUDED.featured,
			in_stock = EXCLUDED.in_stock`
)

// CatalogWriter loads catalog records. It is used by the seed and ingest
// tools; the storefront itself only reads the catalog.
type CatalogWriter struct {
	pool *pgxpool.Pool
}

// NewCatalogWriter returns a CatalogWriter that uses the given pool.
func NewCatalogWriter(pool *pgxpool.Pool) *CatalogWriter {
	return &CatalogWriter{pool: pool}
}

func (w *CatalogWriter) UpsertCategory(ctx context.Context, c catalog.Category) error {
	if _, err := w.pool.Exec(ctx, upsertCategorySQL, c.ID, c.Name, c.Slug, c.Description); err != nil {
		return errors.Wrapf(err, "upsert category %q", c.ID)
	}
	return nil
}

// UpsertProducts writes products in a single batch.
func (w *CatalogWriter) UpsertProducts(ctx context.Context, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range products {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.Slug, p.CategoryID, string(p.Type), p.Price, p.OriginalPrice, p.Description,
			p.Specs, images, p.InStock, p.StockCount, p.Featured, p.PerformanceScore,
		)
	}
	return w.send(ctx, batch, "products")
}

// UpsertPrebuilts writes pre-built configs in a single batch.
func (w *CatalogWriter) UpsertPrebuilts(ctx context.Context, configs []catalog.PrebuiltConfig) error {
	if len(configs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range configs {
		targetUse, images := c.TargetUse, c.Images
		if targetUse == nil {
			targetUse = []string{}
		}
		if images == nil {
			images = []string{}
		}
		batch.Queue(upsertPrebuiltSQL,
			c.ID, c.Name, c.Slug, string(c.Tier), c.Price, c.OriginalPrice, c.Description, targetUse,
			c.Components, c.Scores, images, c.Featured, c.InStock,
		)
	}
	return w.send(ctx, batch, "prebuilt configs")
}

func (w *CatalogWriter) send(ctx context.Context, batch *pgx.Batch, what string) error {
	return inTx(ctx, w.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "upsert %s", what)
		}
		return nil
	})
}
