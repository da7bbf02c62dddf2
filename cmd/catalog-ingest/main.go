// Command catalog-ingest loads gzip-compressed JSON-lines supplier feeds
// into the product catalog, keeping one product per slug across feeds.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/rigforge/internal/catalogfeed"
	"github.com/xenking/rigforge/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		expected    uint
		batchSize   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz feeds; ignored when feeds are passed as arguments")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&expected, "expected-per-feed", 1_000_000, "expected products per feed, sizes the bloom filters")
	flag.IntVar(&batchSize, "batch-size", 500, "products per upsert batch")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
		if err != nil {
			slog.Error("list feeds", slog.String("error", err.Error()))
			os.Exit(1)
		}
		files = matches
	}
	if len(files) == 0 {
		slog.Error("no feeds found", slog.String("data_dir", dataDir))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := catalogfeed.Options{
		ExpectedPerFeed: expected,
		BatchSize:       batchSize,
		Logger:          slog.Default(),
	}
	if err := run(ctx, databaseURL, files, opts); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, opts catalogfeed.Options) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	w := postgres.NewCatalogWriter(pool)
	if _, err := catalogfeed.Ingest(ctx, files, w.UpsertProducts, opts); err != nil {
		return errors.Wrap(err, "ingest feeds")
	}
	return nil
}
