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

	"github.com/appetiteclub/delivery/services/restaurant/internal/restaurant"
)

// MenuItemRepo implements restaurant.MenuItemRepo using MongoDB. Every
// filter carries the restaurant id.
type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection(restaurant.MenuItemsCollection),
	}
}

func (r *MenuItemRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "is_available", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create menu item indexes: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Create(ctx context.Context, item *restaurant.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, restaurantID, itemID uuid.UUID) (*restaurant.MenuItem, error) {
	var item restaurant.MenuItem
	err := r.collection.FindOne(ctx, scoped(restaurantID, itemID)).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) List(ctx context.Context, restaurantID uuid.UUID, filter restaurant.MenuFilter) ([]*restaurant.MenuItem, error) {
	query := bson.M{"restaurant_id": restaurantID}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.IsAvailable != nil {
		query["is_available"] = *filter.IsAvailable
	}

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *MenuItemRepo) FindByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*restaurant.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := bson.M{
		"restaurant_id": restaurantID,
		"_id":           bson.M{"$in": ids},
	}
	return r.find(ctx, query, options.Find())
}

func (r *MenuItemRepo) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]*restaurant.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*restaurant.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return result, nil
}

func (r *MenuItemRepo) Save(ctx context.Context, item *restaurant.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item cannot be nil")
	}

	result, err := r.collection.UpdateOne(ctx, scoped(item.RestaurantID, item.ID), bson.M{"$set": item})
	if err != nil {
		return fmt.Errorf("cannot update menu item: %w", err)
	}
	if result.MatchedCount == 0 {
		return restaurant.ErrMenuItemNotFound
	}
	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, restaurantID, itemID uuid.UUID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, scoped(restaurantID, itemID))
	if err != nil {
		return false, fmt.Errorf("cannot delete menu item: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *MenuItemRepo) SetAvailability(ctx context.Context, restaurantID, itemID uuid.UUID, available bool) (bool, error) {
	update := bson.M{"$set": bson.M{"is_available": available, "updated_at": now()}}
	result, err := r.collection.UpdateOne(ctx, scoped(restaurantID, itemID), update)
	if err != nil {
		return false, fmt.Errorf("cannot update menu item availability: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func scoped(restaurantID, itemID uuid.UUID) bson.M {
	return bson.M{"_id": itemID, "restaurant_id": restaurantID}
}

func now() time.Time {
	return time.Now().UTC()
}
