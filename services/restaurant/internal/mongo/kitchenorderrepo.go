package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/restaurant/internal/kitchen"
)

type KitchenOrderRepo struct {
	collection *mongo.Collection
	outbox     *outbox.MongoStore
	tx         *outbox.Tx
}

func NewKitchenOrderRepo(db *mongo.Database, tx *outbox.Tx) *KitchenOrderRepo {
	return &KitchenOrderRepo{
		collection: db.Collection("kitchen_orders"),
		outbox:     outbox.NewMongoStore(db),
		tx:         tx,
	}
}

func (r *KitchenOrderRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "received_at", Value: -1}}},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create kitchen order indexes: %w", err)
	}
	return r.outbox.EnsureIndexes(ctx)
}

// CreateIfAbsent upserts on order_id with $setOnInsert, so an existing row
// is never overwritten. A duplicate key from a concurrent insert counts as
// already present.
func (r *KitchenOrderRepo) CreateIfAbsent(ctx context.Context, ko *kitchen.KitchenOrder) (bool, error) {
	if ko == nil {
		return false, fmt.Errorf("kitchen order cannot be nil")
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"order_id": ko.OrderID},
		bson.M{"$setOnInsert": ko},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot create kitchen order: %w", err)
	}
	return result.UpsertedCount == 1, nil
}

func (r *KitchenOrderRepo) GetByOrderID(ctx context.Context, orderID string) (*kitchen.KitchenOrder, error) {
	var ko kitchen.KitchenOrder
	err := r.collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&ko)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get kitchen order: %w", err)
	}
	return &ko, nil
}

func (r *KitchenOrderRepo) SaveWithEvents(ctx context.Context, ko *kitchen.KitchenOrder, msgs ...*outbox.Message) error {
	if ko == nil {
		return fmt.Errorf("kitchen order cannot be nil")
	}

	set := bson.M{
		"status":           ko.Status,
		"preparation_time": ko.PreparationTime,
		"updated_at":       ko.UpdatedAt,
	}
	if ko.StartedAt != nil {
		set["started_at"] = ko.StartedAt
	}
	if ko.EstimatedReadyTime != nil {
		set["estimated_ready_time"] = ko.EstimatedReadyTime
	}
	if ko.ReadyAt != nil {
		set["ready_at"] = ko.ReadyAt
	}

	return r.tx.Run(ctx, func(ctx context.Context) error {
		result, err := r.collection.UpdateOne(ctx, bson.M{"_id": ko.ID}, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("cannot update kitchen order: %w", err)
		}
		if result.MatchedCount == 0 {
			return kitchen.ErrNotFound
		}
		return r.outbox.Insert(ctx, msgs...)
	})
}

func (r *KitchenOrderRepo) List(ctx context.Context, filter kitchen.ListFilter) ([]*kitchen.KitchenOrder, error) {
	query := bson.M{"restaurant_id": filter.RestaurantID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list kitchen orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*kitchen.KitchenOrder
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode kitchen orders: %w", err)
	}
	return result, nil
}

func (r *KitchenOrderRepo) CountByStatus(ctx context.Context, restaurantID string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"restaurant_id": restaurantID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate kitchen orders: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode kitchen order counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
