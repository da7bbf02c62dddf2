package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/rigforge/internal/catalogfeed"
	"github.com/xenking/rigforge/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	seed, err := catalogfeed.DecodeSeed(data)
	if err != nil {
		return errors.Wrap(err, "parse catalog file")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	w := postgres.NewCatalogWriter(pool)

	for _, c := range seed.Categories {
		if err := w.UpsertCategory(ctx, c); err != nil {
			return err
		}
		slog.Info("upserted category", slog.String("slug", c.Slug))
	}

	slog.Info("upserting products", slog.Int("count", len(seed.Products)))
	if err := w.UpsertProducts(ctx, seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}

	slog.Info("upserting prebuilt configs", slog.Int("count", len(seed.Prebuilts)))
	if err := w.UpsertPrebuilts(ctx, seed.Prebuilts); err != nil {
		return errors.Wrap(err, "seed prebuilt configs")
	}

	return nil
}
