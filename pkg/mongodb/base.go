// Package mongodb holds the connection lifecycle shared by the service stores.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/pkg"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultURL = "mongodb://localhost:27017"

type BaseRepo struct {
	client    *mongo.Client
	db        *mongo.Database
	logger    aqm.Logger
	config    *aqm.Config
	defaultDB string
}

// NewBaseRepo reads "db.mongo.url" and "db.mongo.name", falling back to
// defaultDB for the database name.
func NewBaseRepo(config *aqm.Config, logger aqm.Logger, defaultDB string) *BaseRepo {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &BaseRepo{
		logger:    logger,
		config:    config,
		defaultDB: defaultDB,
	}
}

func (r *BaseRepo) Start(ctx context.Context) error {
	connString := DefaultURL
	dbName := r.defaultDB
	if r.config != nil {
		connString = r.config.GetStringOrDef("db.mongo.url", DefaultURL)
		dbName = r.config.GetStringOrDef("db.mongo.name", r.defaultDB)
	}

	client, err := Connect(ctx, connString)
	if err != nil {
		return err
	}

	r.client = client
	r.db = client.Database(dbName)

	r.logger.Infof("Connected to MongoDB: %s, database: %s", connString, dbName)
	return nil
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *BaseRepo) GetDatabase() *mongo.Database {
	return r.db
}

// Tx returns the transaction runner. Transactions are on unless
// "db.mongo.transactions" is false, which standalone servers need.
func (r *BaseRepo) Tx() *outbox.Tx {
	return outbox.NewTx(r.client, pkg.BoolOrDef(r.config, "db.mongo.transactions", true))
}

// Connect opens and pings a client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("cannot ping MongoDB: %w", err)
	}
	return client, nil
}
