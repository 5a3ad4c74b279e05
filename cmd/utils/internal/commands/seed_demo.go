package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/cmd/utils/internal/seeding"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/seed"
)

// DemoOrdersSeedID is tracked in the order database.
const DemoOrdersSeedID = "demo_orders_v1"

// SeedDemo writes demo orders with their kitchen orders and payments. It
// runs once; the tracker in the order database skips later runs.
func SeedDemo(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	seeds := []seed.Seed{
		{
			ID:          DemoOrdersSeedID,
			Description: "Create demo orders with kitchen orders and payments for the demo restaurants",
			Run: func(ctx context.Context) error {
				return seeding.SeedOrders(ctx, client, time.Now())
			},
		},
	}

	tracker := seed.NewMongoTracker(client.Database(seeding.OrderDB))
	if err := seed.Apply(ctx, tracker, seeds, "utils"); err != nil {
		return fmt.Errorf("seed demo orders: %w", err)
	}

	logger.Info("Demo orders seeded", "orders", len(seeding.BuildDemo(time.Now())))
	return nil
}
