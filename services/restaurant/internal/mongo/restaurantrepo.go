package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/appetiteclub/delivery/services/restaurant/internal/restaurant"
)

// RestaurantRepo implements restaurant.RestaurantRepo using MongoDB
type RestaurantRepo struct {
	collection *mongo.Collection
}

func NewRestaurantRepo(db *mongo.Database) *RestaurantRepo {
	return &RestaurantRepo{
		collection: db.Collection(restaurant.RestaurantsCollection),
	}
}

func (r *RestaurantRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "cuisine", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create restaurant indexes: %w", err)
	}
	return nil
}

func (r *RestaurantRepo) Create(ctx context.Context, rest *restaurant.Restaurant) error {
	if rest == nil {
		return fmt.Errorf("restaurant cannot be nil")
	}

	if _, err := r.collection.InsertOne(ctx, rest); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return restaurant.ErrOwnerExists
		}
		return fmt.Errorf("cannot create restaurant: %w", err)
	}
	return nil
}

func (r *RestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*restaurant.Restaurant, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RestaurantRepo) GetByOwner(ctx context.Context, ownerID string) (*restaurant.Restaurant, error) {
	return r.findOne(ctx, bson.M{"owner_id": ownerID})
}

func (r *RestaurantRepo) findOne(ctx context.Context, filter bson.M) (*restaurant.Restaurant, error) {
	var rest restaurant.Restaurant
	err := r.collection.FindOne(ctx, filter).Decode(&rest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get restaurant: %w", err)
	}
	return &rest, nil
}

// List sorts by rating, best first. The cuisine filter is a literal,
// case-insensitive substring match.
func (r *RestaurantRepo) List(ctx context.Context, filter restaurant.ListFilter) ([]*restaurant.Restaurant, error) {
	query := bson.M{}
	if filter.Cuisine != "" {
		query["cuisine"] = bson.M{"$regex": regexp.QuoteMeta(filter.Cuisine), "$options": "i"}
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	if filter.MinRating != nil {
		query["rating"] = bson.M{"$gte": *filter.MinRating}
	}

	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*restaurant.Restaurant
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode restaurants: %w", err)
	}
	return result, nil
}

func (r *RestaurantRepo) Save(ctx context.Context, rest *restaurant.Restaurant) error {
	if rest == nil {
		return fmt.Errorf("restaurant cannot be nil")
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": rest.ID}, bson.M{"$set": rest})
	if err != nil {
		return fmt.Errorf("cannot update restaurant: %w", err)
	}
	if result.MatchedCount == 0 {
		return restaurant.ErrNotFound
	}
	return nil
}

func (r *RestaurantRepo) SetOpen(ctx context.Context, id uuid.UUID, open bool) (bool, error) {
	update := bson.M{"$set": bson.M{"is_open": open, "updated_at": now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, fmt.Errorf("cannot update restaurant status: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (r *RestaurantRepo) Stats(ctx context.Context) (*restaurant.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "active", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{"$is_active", 1, 0}}}}}},
					{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
				}}},
			}},
			{Key: "byCuisine", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$cuisine"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot aggregate restaurant stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Totals []struct {
			Total     int64   `bson:"total"`
			Active    int64   `bson:"active"`
			AvgRating float64 `bson:"avgRating"`
		} `bson:"totals"`
		ByCuisine []struct {
			Cuisine string `bson:"_id"`
			Count   int64  `bson:"count"`
		} `bson:"byCuisine"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode restaurant stats: %w", err)
	}

	stats := &restaurant.Stats{ByCuisine: map[string]int64{}}
	if len(rows) == 0 {
		return stats, nil
	}
	if len(rows[0].Totals) > 0 {
		t := rows[0].Totals[0]
		stats.TotalRestaurants = t.Total
		stats.ActiveRestaurants = t.Active
		stats.AverageRating = money.Round2(t.AvgRating)
	}
	for _, c := range rows[0].ByCuisine {
		stats.ByCuisine[c.Cuisine] = c.Count
	}
	return stats, nil
}
