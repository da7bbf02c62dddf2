package catalogfeed

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

// Sink stores a batch of products. It is called concurrently.
type Sink func(ctx context.Context, products []catalog.Product) error

// Options configures Ingest.
type Options struct {
	// ExpectedPerFeed sizes each bloom filter. Defaults to 1_000_000.
	ExpectedPerFeed uint
	// FalsePositiveRate of each bloom filter. Defaults to 0.001.
	FalsePositiveRate float64
	// BatchSize is the number of products per Sink call. Defaults to 500.
	BatchSize int
	Logger    *slog.Logger
}

func (o *Options) setDefaults() {
	if o.ExpectedPerFeed == 0 {
		o.ExpectedPerFeed = 1_000_000
	}
	if o.FalsePositiveRate <= 0 {
		o.FalsePositiveRate = 0.001
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Stats summarizes an ingest run.
type Stats struct {
	Read       int64
	Invalid    int64
	Stored     int64
	Candidates int64
	Duplicates int64
}

// slugIndex is the result of the first pass over one feed.
type slugIndex struct {
	seen     *bloom.BloomFilter
	repeated *bloom.BloomFilter
}

// occurrence is a product whose slug may appear more than once.
type occurrence struct {
	feed    int
	line    int
	product catalog.Product
}

func (o occurrence) before(other occurrence) bool {
	if o.feed != other.feed {
		return o.feed < other.feed
	}
	return o.line < other.line
}

// Ingest loads every feed into sink, keeping one product per slug: the
// first occurrence in feed order.
//
// The first pass builds a bloom filter of slugs per feed. The second pass
// re-streams the feeds: products whose slug is absent from every other
// filter are stored straight away, the rest are confirmed against an exact
// map and stored once all feeds are read. Memory use is bounded by the
// filters plus the possible duplicates.
func Ingest(ctx context.Context, files []string, sink Sink, opts Options) (Stats, error) {
	opts.setDefaults()
	lg := opts.Logger

	lg.Info("pass 1: indexing slugs", slog.Int("feeds", len(files)))
	index, err := indexFeeds(ctx, files, opts)
	if err != nil {
		return Stats{}, errors.Wrap(err, "index feeds")
	}

	lg.Info("pass 2: loading products")
	var (
		stats Stats
		mu    sync.Mutex
		dups  = make(map[string]occurrence)
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			batch := make([]catalog.Product, 0, opts.BatchSize)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := sink(gctx, batch); err != nil {
					return errors.Wrapf(err, "store batch from feed %d", i+1)
				}
				atomic.AddInt64(&stats.Stored, int64(len(batch)))
				batch = make([]catalog.Product, 0, opts.BatchSize)
				return nil
			}

			err := ReadFile(gctx, path, func(line int, p catalog.Product, err error) error {
				if err != nil {
					return nil
				}
				atomic.AddInt64(&stats.Read, 1)
				if !index.shared(i, p.Slug) {
					batch = append(batch, p)
					if len(batch) < opts.BatchSize {
						return nil
					}
					return flush()
				}

				atomic.AddInt64(&stats.Candidates, 1)
				occ := occurrence{feed: i, line: line, product: p}
				mu.Lock()
				defer mu.Unlock()
				prev, ok := dups[p.Slug]
				switch {
				case !ok:
					dups[p.Slug] = occ
				case occ.before(prev):
					dups[p.Slug] = occ
					stats.Duplicates++
				default:
					stats.Duplicates++
				}
				return nil
			})
			if err != nil {
				return err
			}
			return flush()
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	// Confirmed winners in feed order.
	winners := slices.SortedFunc(maps.Values(dups), func(a, b occurrence) int {
		if c := cmp.Compare(a.feed, b.feed); c != 0 {
			return c
		}
		return cmp.Compare(a.line, b.line)
	})
	for chunk := range slices.Chunk(winners, opts.BatchSize) {
		products := make([]catalog.Product, len(chunk))
		for i, occ := range chunk {
			products[i] = occ.product
		}
		if err := sink(ctx, products); err != nil {
			return stats, errors.Wrap(err, "store confirmed products")
		}
		stats.Stored += int64(len(products))
	}
	stats.Invalid = index.invalid

	lg.Info("ingest complete",
		slog.Int64("read", stats.Read),
		slog.Int64("stored", stats.Stored),
		slog.Int64("candidates", stats.Candidates),
		slog.Int64("duplicates", stats.Duplicates),
		slog.Int64("invalid", stats.Invalid),
	)
	return stats, nil
}

type feedIndex struct {
	feeds   []slugIndex
	invalid int64
}

// shared reports whether slug may occur in another feed or more than once
// in its own.
func (ix *feedIndex) shared(feed int, slug string) bool {
	for j, f := range ix.feeds {
		if j == feed {
			if f.repeated.TestString(slug) {
				return true
			}
			continue
		}
		if f.seen.TestString(slug) {
			return true
		}
	}
	return false
}

func indexFeeds(ctx context.Context, files []string, opts Options) (*feedIndex, error) {
	ix := &feedIndex{feeds: make([]slugIndex, len(files))}

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			idx := slugIndex{
				seen:     bloom.NewWithEstimates(opts.ExpectedPerFeed, opts.FalsePositiveRate),
				repeated: bloom.NewWithEstimates(opts.ExpectedPerFeed, opts.FalsePositiveRate),
			}
			var count, invalid int64
			err := ReadFile(gctx, path, func(_ int, p catalog.Product, err error) error {
				if err != nil {
					invalid++
					opts.Logger.Warn("skipping invalid feed line",
						slog.Int("feed", i+1),
						slog.String("error", err.Error()),
					)
					return nil
				}
				count++
				if idx.seen.TestAndAddString(p.Slug) {
					idx.repeated.AddString(p.Slug)
				}
				return nil
			})
			if err != nil {
				return err
			}

			opts.Logger.Info("pass 1 complete",
				slog.Int("feed", i+1),
				slog.Int64("products", count),
				slog.Int64("invalid", invalid),
			)
			ix.feeds[i] = idx
			atomic.AddInt64(&ix.invalid, invalid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ix, nil
}
