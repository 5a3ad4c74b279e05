package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "outbox"

	sentRetention = 7 * 24 * time.Hour
)

// Store is what the dispatcher needs from persistence.
type Store interface {
	// Claim leases the next due message, or returns nil when none is due.
	Claim(ctx context.Context, now time.Time, lease time.Duration) (*Message, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(CollectionName),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "lease_until", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "sent_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sentRetention.Seconds())),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create outbox indexes: %w", err)
	}
	return nil
}

// Insert stores messages using ctx, so inside a session context they join the
// surrounding transaction.
func (s *MongoStore) Insert(ctx context.Context, msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			return fmt.Errorf("outbox message is nil")
		}
		docs = append(docs, m)
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("cannot insert outbox messages: %w", err)
	}
	return nil
}

func (s *MongoStore) Claim(ctx context.Context, now time.Time, lease time.Duration) (*Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"status": StatusPending, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"status": StatusDispatching, "lease_until": bson.M{"$lte": now}},
	}}
	update := bson.M{"$set": bson.M{
		"status":      StatusDispatching,
		"lease_until": now.Add(lease),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	var m Message
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot claim outbox message: %w", err)
	}
	return &m, nil
}

func (s *MongoStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	update := bson.M{
		"$set":   bson.M{"status": StatusSent, "sent_at": at},
		"$unset": bson.M{"lease_until": ""},
	}
	return s.update(ctx, id, update)
}

func (s *MongoStore) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	update := bson.M{
		"$set": bson.M{
			"status":          StatusPending,
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		},
		"$unset": bson.M{"lease_until": ""},
	}
	return s.update(ctx, id, update)
}

func (s *MongoStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	update := bson.M{
		"$set": bson.M{
			"status":     StatusFailed,
			"attempts":   attempts,
			"last_error": lastErr,
		},
		"$unset": bson.M{"lease_until": ""},
	}
	return s.update(ctx, id, update)
}

// CountByStatus returns how many messages sit in each status.
func (s *MongoStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate outbox: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode outbox counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *MongoStore) update(ctx context.Context, id uuid.UUID, update bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("cannot update outbox message: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox message not found")
	}
	return nil
}
