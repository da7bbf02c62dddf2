// Command order-relay publishes order events queued in the outbox to Kafka.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/rigforge/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadRelayConfig()
		if err != nil {
			return err
		}
		return appkg.RunRelay(ctx, lg, m, cfg)
	})
}
