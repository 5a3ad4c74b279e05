package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/order/internal/order"
)

type OrderRepo struct {
	collection *mongo.Collection
	outbox     *outbox.MongoStore
	tx         *outbox.Tx
}

func NewOrderRepo(db *mongo.Database, tx *outbox.Tx) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
		outbox:     outbox.NewMongoStore(db),
		tx:         tx,
	}
}

func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}
	return r.outbox.EnsureIndexes(ctx)
}

func (r *OrderRepo) CreateWithEvents(ctx context.Context, o *order.Order, msgs ...*outbox.Message) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	return r.tx.Run(ctx, func(ctx context.Context) error {
		if _, err := r.collection.InsertOne(ctx, o); err != nil {
			return fmt.Errorf("cannot create order: %w", err)
		}
		return r.outbox.Insert(ctx, msgs...)
	})
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) SaveWithEvents(ctx context.Context, o *order.Order, msgs ...*outbox.Message) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	return r.tx.Run(ctx, func(ctx context.Context) error {
		filter := bson.M{"_id": o.ID}
		update := bson.M{"$set": o}

		result, err := r.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("cannot update order: %w", err)
		}
		if result.MatchedCount == 0 {
			return order.ErrNotFound
		}
		return r.outbox.Insert(ctx, msgs...)
	})
}

func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.RestaurantID != "" {
		query["restaurant_id"] = filter.RestaurantID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}

// Stats aggregates counts by status, revenue of non-cancelled orders and the
// figures for orders created since the given instant.
func (r *OrderRepo) Stats(ctx context.Context, since time.Time) (*order.Stats, error) {
	notCancelled := bson.D{{Key: "$ne", Value: bson.A{"$status", "cancelled"}}}
	isToday := bson.D{{Key: "$gte", Value: bson.A{"$created_at", since}}}

	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "byStatus", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$status"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "revenue", Value: sumIf(notCancelled, "$total")},
					{Key: "revenueOrders", Value: sumIf(notCancelled, 1)},
					{Key: "todayOrders", Value: sumIf(isToday, 1)},
					{Key: "todayRevenue", Value: sumIf(bson.D{{Key: "$and", Value: bson.A{isToday, notCancelled}}}, "$total")},
				}}},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate order stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ByStatus []struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		} `bson:"byStatus"`
		Totals []struct {
			Total         int64   `bson:"total"`
			Revenue       float64 `bson:"revenue"`
			RevenueOrders int64   `bson:"revenueOrders"`
			TodayOrders   int64   `bson:"todayOrders"`
			TodayRevenue  float64 `bson:"todayRevenue"`
		} `bson:"totals"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode order stats: %w", err)
	}

	stats := &order.Stats{ByStatus: map[string]int64{}}
	if len(rows) == 0 {
		return stats, nil
	}

	for _, s := range rows[0].ByStatus {
		stats.ByStatus[s.Status] = s.Count
	}
	if len(rows[0].Totals) > 0 {
		t := rows[0].Totals[0]
		stats.TotalOrders = t.Total
		stats.TotalRevenue = money.Round2(t.Revenue)
		stats.AverageOrderValue = money.Average(t.Revenue, t.RevenueOrders)
		stats.TodayOrders = t.TodayOrders
		stats.TodayRevenue = money.Round2(t.TodayRevenue)
	}
	return stats, nil
}

func (r *OrderRepo) RestaurantStats(ctx context.Context, restaurantID string, since time.Time) (*order.RestaurantStats, error) {
	isToday := bson.D{{Key: "$gte", Value: bson.A{"$created_at", since}}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"restaurant_id": restaurantID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "todayOrders", Value: sumIf(isToday, 1)},
			{Key: "todayRevenue", Value: sumIf(isToday, "$total")},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate restaurant order stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total        int64   `bson:"total"`
		TodayOrders  int64   `bson:"todayOrders"`
		TodayRevenue float64 `bson:"todayRevenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode restaurant order stats: %w", err)
	}

	stats := &order.RestaurantStats{}
	if len(rows) > 0 {
		stats.TotalOrders = rows[0].Total
		stats.TodayOrders = rows[0].TodayOrders
		stats.TodayRevenue = money.Round2(rows[0].TodayRevenue)
	}
	return stats, nil
}

func sumIf(cond bson.D, value interface{}) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{cond, value, 0}}}}}
}
