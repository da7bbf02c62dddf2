// Package relay forwards queued outbox events to Kafka.
package relay

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Record is a queued event.
type Record struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Store is the outbox table.
type Store interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, ids []int64) error
}

// Publisher writes messages to the broker. *kafka.Writer implements it.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter returns a Kafka writer that partitions by message key. The
// topic is taken from each message.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Options configures a Relay.
type Options struct {
	// BatchSize caps the records published per poll. Defaults to 100.
	BatchSize int
	// Interval between polls when the outbox is drained. Defaults to 1s.
	Interval time.Duration
	// Topic overrides the record topic when set.
	Topic string

	Logger        *zap.Logger
	MeterProvider metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = noop.NewMeterProvider()
	}
}

// Relay polls a Store and publishes what it finds.
type Relay struct {
	store Store
	pub   Publisher
	opts  Options

	published metric.Int64Counter
	failures  metric.Int64Counter
}

// New creates a Relay.
func New(store Store, pub Publisher, opts Options) (*Relay, error) {
	opts.setDefaults()
	meter := opts.MeterProvider.Meter("github.com/xenking/rigforge/internal/relay")

	published, err := meter.Int64Counter("outbox.published",
		metric.WithDescription("Outbox records delivered to the broker"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "published counter")
	}
	failures, err := meter.Int64Counter("outbox.publish_failures",
		metric.WithDescription("Failed publish attempts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failures counter")
	}

	return &Relay{
		store:     store,
		pub:       pub,
		opts:      opts,
		published: published,
		failures:  failures,
	}, nil
}

// Run polls until ctx is done. Publish failures are logged and retried on
// the next tick; records are delivered at least once.
func (r *Relay) Run(ctx context.Context) error {
	lg := r.opts.Logger
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		for {
			n, err := r.Flush(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				lg.Warn("Relay flush failed", zap.Error(err))
				break
			}
			if n < r.opts.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush publishes one batch and returns how many records were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	records, err := r.store.FetchPending(ctx, r.opts.BatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "fetch pending")
	}
	if len(records) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(records))
	ids := make([]int64, len(records))
	for i, rec := range records {
		topic := rec.Topic
		if r.opts.Topic != "" {
			topic = r.opts.Topic
		}
		msgs[i] = kafka.Message{
			Topic: topic,
			Key:   []byte(rec.Key),
			Value: rec.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(rec.EventID)},
			},
			Time: rec.CreatedAt,
		}
		ids[i] = rec.ID
	}

	if err := r.pub.WriteMessages(ctx, msgs...); err != nil {
		r.failures.Add(ctx, 1)
		return 0, errors.Wrap(err, "publish")
	}
	if err := r.store.MarkSent(ctx, ids); err != nil {
		return 0, errors.Wrap(err, "mark sent")
	}

	r.published.Add(ctx, int64(len(records)))
	r.opts.Logger.Debug("Relayed outbox records", zap.Int("count", len(records)))
	return len(records), nil
}
