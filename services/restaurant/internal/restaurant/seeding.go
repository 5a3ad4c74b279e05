package restaurant

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/seed"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RestaurantsCollection = "restaurants"
	MenuItemsCollection   = "menu_items"
)

type demoItem struct {
	id       string
	name     string
	desc     string
	price    float64
	category string
	prep     int
}

type demoRestaurant struct {
	id       string
	owner    string
	name     string
	cuisine  string
	address  string
	phone    string
	rating   float64
	fee      float64
	delivery int
	items    []demoItem
}

// Demo data uses fixed ids so repeated runs and other services' demo seeds
// can refer to the same documents.
var demoRestaurants = []demoRestaurant{
	{
		id:       "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a01",
		owner:    "demo-owner-pizza",
		name:     "Napoli Express",
		cuisine:  "Italian",
		address:  "12 Via Roma, Springfield",
		phone:    "+1-555-0101",
		rating:   4.6,
		fee:      2.99,
		delivery: 30,
		items: []demoItem{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b01", "Margherita", "Tomato, mozzarella and basil", 12.50, "Mains", 15},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b02", "Diavola", "Spicy salami and chili oil", 14.00, "Mains", 15},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b03", "Tiramisu", "Coffee soaked ladyfingers", 6.50, "Desserts", 5},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b04", "Lemon Soda", "", 1.99, "Drinks", 1},
		},
	},
	{
		id:       "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a02",
		owner:    "demo-owner-sushi",
		name:     "Sakura Rolls",
		cuisine:  "Japanese",
		address:  "48 Cherry Lane, Springfield",
		phone:    "+1-555-0102",
		rating:   4.8,
		fee:      3.50,
		delivery: 40,
		items: []demoItem{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e2b01", "Salmon Nigiri", "Two pieces", 5.50, "Nigiri", 10},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e2b02", "Dragon Roll", "Eel, avocado and cucumber", 13.75, "Rolls", 20},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e2b03", "Miso Soup", "", 3.25, "Starters", 5},
		},
	},
	{
		id:       "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a03",
		owner:    "demo-owner-tacos",
		name:     "Taqueria Sol",
		cuisine:  "Mexican",
		address:  "7 Market Street, Springfield",
		phone:    "+1-555-0103",
		rating:   4.3,
		fee:      0,
		delivery: 25,
		items: []demoItem{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e3b01", "Tacos al Pastor", "Three corn tortillas", 9.00, "Mains", 12},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e3b02", "Guacamole", "With totopos", 5.00, "Starters", 5},
		},
	},
}

// Seeds returns the demo seeds for the restaurant service.
func Seeds(db *mongo.Database) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "demo_restaurants_v1",
			Description: "Create demo restaurants with their menus",
			Run: func(ctx context.Context) error {
				return seedDemoRestaurants(ctx, db)
			},
		},
	}
}

func seedDemoRestaurants(ctx context.Context, db *mongo.Database) error {
	restaurants := db.Collection(RestaurantsCollection)
	items := db.Collection(MenuItemsCollection)
	now := time.Now().UTC()

	for _, d := range demoRestaurants {
		id := uuid.MustParse(d.id)
		doc := bson.M{
			"_id":           id,
			"owner_id":      d.owner,
			"name":          d.name,
			"cuisine":       d.cuisine,
			"address":       d.address,
			"phone":         d.phone,
			"rating":        d.rating,
			"delivery_time": d.delivery,
			"delivery_fee":  d.fee,
			"is_open":       true,
			"opening_time":  "10:00",
			"closing_time":  "23:00",
			"is_active":     true,
			"created_at":    now,
			"updated_at":    now,
		}
		if err := upsertOnInsert(ctx, restaurants, id, doc); err != nil {
			return fmt.Errorf("cannot seed restaurant %s: %w", d.name, err)
		}

		for _, it := range d.items {
			itemID := uuid.MustParse(it.id)
			itemDoc := bson.M{
				"_id":              itemID,
				"restaurant_id":    id,
				"name":             it.name,
				"description":      it.desc,
				"price":            it.price,
				"category":         it.category,
				"is_available":     true,
				"preparation_time": it.prep,
				"created_at":       now,
				"updated_at":       now,
			}
			if err := upsertOnInsert(ctx, items, itemID, itemDoc); err != nil {
				return fmt.Errorf("cannot seed menu item %s: %w", it.name, err)
			}
		}
	}
	return nil
}

func upsertOnInsert(ctx context.Context, coll *mongo.Collection, id uuid.UUID, doc bson.M) error {
	_, err := coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

// ApplyDemoSeeds applies demo seeds if enabled via config
func ApplyDemoSeeds(ctx context.Context, config *aqm.Config, dbFn func() *mongo.Database, logger aqm.Logger) error {
	enabled, _ := config.GetString("seed.demo.enabled")
	if enabled != "true" {
		return nil
	}

	logger.Info("Demo seeding enabled, applying demo restaurants...")
	db := dbFn()
	tracker := seed.NewMongoTracker(db)

	if err := seed.Apply(ctx, tracker, Seeds(db), "restaurant"); err != nil {
		return fmt.Errorf("demo seed failed: %w", err)
	}

	logger.Info("Demo restaurants seeded successfully")
	return nil
}
