package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/delivery/cmd/utils/internal/seeding"
	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
)

type demoCollection struct {
	database   string
	collection string
}

var demoCollections = []demoCollection{
	{seeding.OrderDB, "orders"},
	{seeding.RestaurantDB, "kitchen_orders"},
	{seeding.PaymentDB, "payments"},
}

// ClearDemo removes the documents written by SeedDemo and its tracker row.
// Demo restaurants belong to the restaurant service and are kept.
func ClearDemo(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	for _, dc := range demoCollections {
		result, err := client.Database(dc.database).Collection(dc.collection).DeleteMany(ctx, bson.M{"created_by": seeding.DemoMarker})
		if err != nil {
			return fmt.Errorf("delete demo %s: %w", dc.collection, err)
		}
		logger.Info("Deleted demo documents", "database", dc.database, "collection", dc.collection, "count", result.DeletedCount)
	}

	trackerResult, err := client.Database(seeding.OrderDB).Collection("_seeds").DeleteOne(ctx, bson.M{"_id": DemoOrdersSeedID})
	if err != nil {
		return fmt.Errorf("delete order seed tracker: %w", err)
	}
	logger.Info("Cleared order seed tracker", "deleted", trackerResult.DeletedCount)

	return nil
}
