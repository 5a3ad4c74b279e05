package commands

import (
	"context"

	"github.com/appetiteclub/delivery/pkg/mongodb"
	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/mongo"
)

// connect opens the server at "db.mongo.url".
func connect(ctx context.Context, config *aqm.Config, logger aqm.Logger) (*mongo.Client, error) {
	client, err := mongodb.Connect(ctx, config.GetStringOrDef("db.mongo.url", mongodb.DefaultURL))
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to MongoDB")
	return client, nil
}
