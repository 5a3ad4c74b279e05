package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/appetiteclub/delivery/services/payment/internal/payment"
)

type PaymentRepo struct {
	collection *mongo.Collection
	outbox     *outbox.MongoStore
	tx         *outbox.Tx
}

func NewPaymentRepo(db *mongo.Database, tx *outbox.Tx) *PaymentRepo {
	return &PaymentRepo{
		collection: db.Collection("payments"),
		outbox:     outbox.NewMongoStore(db),
		tx:         tx,
	}
}

// EnsureIndexes keeps order_id non-unique so rows written before payments
// were keyed by order stay readable.
func (r *PaymentRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create payment indexes: %w", err)
	}
	return r.outbox.EnsureIndexes(ctx)
}

func (r *PaymentRepo) UpsertByOrder(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	if p == nil {
		return nil, fmt.Errorf("payment cannot be nil")
	}

	set := bson.M{
		"amount":     p.Amount,
		"method":     p.Method,
		"updated_at": p.UpdatedAt,
	}
	if p.UserID != "" {
		set["user_id"] = p.UserID
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        p.ID,
			"status":     p.Status,
			"created_at": p.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetReturnDocument(options.After)

	var stored payment.Payment
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"order_id": p.OrderID}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("cannot upsert payment: %w", err)
	}
	return &stored, nil
}

func (r *PaymentRepo) CreateIfAbsent(ctx context.Context, p *payment.Payment) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("payment cannot be nil")
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"order_id": p.OrderID},
		bson.M{"$setOnInsert": p},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("cannot create payment: %w", err)
	}
	return result.UpsertedCount == 1, nil
}

func (r *PaymentRepo) Get(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *PaymentRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*payment.Payment, error) {
	var p payment.Payment
	err := r.collection.FindOne(ctx, filter, opts...).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepo) SaveWithEvents(ctx context.Context, p *payment.Payment, msgs ...*outbox.Message) error {
	if p == nil {
		return fmt.Errorf("payment cannot be nil")
	}

	return r.tx.Run(ctx, func(ctx context.Context) error {
		result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
		if err != nil {
			return fmt.Errorf("cannot update payment: %w", err)
		}
		if result.MatchedCount == 0 {
			return payment.ErrNotFound
		}
		return r.outbox.Insert(ctx, msgs...)
	})
}

func (r *PaymentRepo) List(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Method != "" {
		query["method"] = filter.Method
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list payments: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*payment.Payment
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode payments: %w", err)
	}
	return result, nil
}

func (r *PaymentRepo) Totals(ctx context.Context) (map[string]int64, float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot aggregate payments: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string  `bson:"_id"`
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("cannot decode payment totals: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	var successAmount float64
	for _, row := range rows {
		counts[row.Status] = row.Count
		if row.Status == paymentstatus.Statuses.Success.Code() {
			successAmount = row.Amount
		}
	}
	return counts, successAmount, nil
}
