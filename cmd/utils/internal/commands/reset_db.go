package commands

import (
	"context"

	"github.com/appetiteclub/delivery/cmd/utils/internal/seeding"
	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"
)

var allDatabases = []string{
	seeding.OrderDB,
	seeding.RestaurantDB,
	seeding.PaymentDB,
}

// ResetDB drops every service database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Infof("DANGER: this drops all delivery databases and cannot be undone")

	client, err := connect(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	for _, dbName := range allDatabases {
		logger.Info("Dropping database", "database", dbName)
		result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
		if result.Err() != nil {
			logger.Infof("Failed to drop database %s (may not exist): %v", dbName, result.Err())
		} else {
			logger.Info("Database dropped", "database", dbName)
		}
	}

	logger.Info("All databases have been dropped")
	return nil
}
