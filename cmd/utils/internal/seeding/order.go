package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database names used by the services.
const (
	OrderDB      = "delivery_order"
	RestaurantDB = "delivery_restaurant"
	PaymentDB    = "delivery_payment"
)

// DemoMarker tags every document written by the demo seed so it can be
// cleared again.
const DemoMarker = "demo-seed"

type demoLine struct {
	itemID   string
	name     string
	price    float64
	quantity int
	category string
}

type demoOrder struct {
	id           string
	restaurantID string
	fee          float64
	user         string
	customer     string
	status       string
	payment      string
	method       string
	kitchen      string
	age          time.Duration
	lines        []demoLine
}

// Restaurant and item ids match the restaurant service demo seed.
var demoOrders = []demoOrder{
	{
		id:           "c3a4e1d0-7b2f-4f7e-a1c5-3e9d0b6f4a01",
		restaurantID: "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a01",
		fee:          2.99,
		user:         "demo-customer-1",
		customer:     "Ana Lopez",
		status:       "preparing",
		payment:      "success",
		method:       "credit_card",
		kitchen:      "preparing",
		age:          20 * time.Minute,
		lines: []demoLine{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b01", "Margherita", 12.50, 2, "Mains"},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b04", "Lemon Soda", 1.99, 2, "Drinks"},
		},
	},
	{
		id:           "c3a4e1d0-7b2f-4f7e-a1c5-3e9d0b6f4a02",
		restaurantID: "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a01",
		fee:          2.99,
		user:         "demo-customer-2",
		customer:     "Ben Ortiz",
		status:       "pending",
		payment:      "pending",
		kitchen:      "received",
		age:          5 * time.Minute,
		lines: []demoLine{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b02", "Diavola", 14.00, 1, "Mains"},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e1b03", "Tiramisu", 6.50, 1, "Desserts"},
		},
	},
	{
		id:           "c3a4e1d0-7b2f-4f7e-a1c5-3e9d0b6f4a03",
		restaurantID: "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a02",
		fee:          3.50,
		user:         "demo-customer-1",
		customer:     "Ana Lopez",
		status:       "ready",
		payment:      "success",
		method:       "paypal",
		kitchen:      "ready",
		age:          50 * time.Minute,
		lines: []demoLine{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e2b02", "Dragon Roll", 13.75, 2, "Rolls"},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e2b03", "Miso Soup", 3.25, 2, "Starters"},
		},
	},
	{
		id:           "c3a4e1d0-7b2f-4f7e-a1c5-3e9d0b6f4a04",
		restaurantID: "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a03",
		fee:          0,
		user:         "demo-customer-3",
		customer:     "Chris Young",
		status:       "delivered",
		payment:      "success",
		method:       "cash",
		kitchen:      "picked_up",
		age:          3 * time.Hour,
		lines: []demoLine{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e3b01", "Tacos al Pastor", 9.00, 3, "Mains"},
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e3b02", "Guacamole", 5.00, 1, "Starters"},
		},
	},
	{
		id:           "c3a4e1d0-7b2f-4f7e-a1c5-3e9d0b6f4a05",
		restaurantID: "5b7c0f3e-6d1a-4c53-9b1e-0f6a2f1c7a03",
		fee:          0,
		user:         "demo-customer-2",
		customer:     "Ben Ortiz",
		status:       "cancelled",
		payment:      "failed",
		method:       "debit_card",
		kitchen:      "cancelled",
		age:          26 * time.Hour,
		lines: []demoLine{
			{"8f0d2c61-2b4e-4a2f-8a63-3a1f0c9e3b01", "Tacos al Pastor", 9.00, 1, "Mains"},
		},
	},
}

// DemoRestaurantIDs are the restaurants the demo orders belong to.
func DemoRestaurantIDs() []uuid.UUID {
	seen := map[string]bool{}
	var ids []uuid.UUID
	for _, o := range demoOrders {
		if seen[o.restaurantID] {
			continue
		}
		seen[o.restaurantID] = true
		ids = append(ids, uuid.MustParse(o.restaurantID))
	}
	return ids
}

// Docs holds the documents for one demo order across the three databases.
type Docs struct {
	Order        bson.M
	KitchenOrder bson.M
	Payment      bson.M
}

// BuildDemo renders the demo orders relative to now. Subtotals and totals
// are derived from the lines so the order stats stay consistent.
func BuildDemo(now time.Time) []Docs {
	out := make([]Docs, 0, len(demoOrders))
	for _, o := range demoOrders {
		created := now.Add(-o.age)
		orderID := uuid.MustParse(o.id)

		sum := decimal.Zero
		items := bson.A{}
		for _, l := range o.lines {
			sum = sum.Add(money.Line(l.price, l.quantity))
			items = append(items, bson.M{
				"item_id":  l.itemID,
				"name":     l.name,
				"price":    l.price,
				"quantity": l.quantity,
				"category": l.category,
			})
		}
		subtotal := money.Float(sum)
		total := money.Float(sum.Add(decimal.NewFromFloat(o.fee)))

		address := bson.M{"street": "100 Demo Avenue", "city": "Springfield", "state": "IL", "zip_code": "62701"}
		order := bson.M{
			"_id":              orderID,
			"restaurant_id":    o.restaurantID,
			"user_id":          o.user,
			"delivery_address": address,
			"customer_name":    o.customer,
			"customer_phone":   "+1-555-0199",
			"items":            items,
			"subtotal":         subtotal,
			"delivery_fee":     o.fee,
			"total":            total,
			"status":           o.status,
			"payment_status":   o.payment,
			"created_at":       created,
			"updated_at":       created.Add(o.age / 2),
			"created_by":       DemoMarker,
		}
		if o.status != "pending" && o.status != "cancelled" {
			order["confirmed_at"] = created.Add(time.Minute)
		}
		if o.status == "delivered" {
			order["delivered_at"] = created.Add(45 * time.Minute)
		}

		kitchen := bson.M{
			"_id":              uuid.NewSHA1(orderID, []byte("kitchen")),
			"order_id":         o.id,
			"restaurant_id":    o.restaurantID,
			"user_id":          o.user,
			"items":            items,
			"delivery_address": address,
			"customer_name":    o.customer,
			"total":            total,
			"status":           o.kitchen,
			"preparation_time": 15,
			"received_at":      created,
			"created_at":       created,
			"updated_at":       created.Add(o.age / 2),
			"created_by":       DemoMarker,
		}
		if o.kitchen != "received" && o.kitchen != "cancelled" {
			started := created.Add(2 * time.Minute)
			kitchen["started_at"] = started
			kitchen["estimated_ready_time"] = started.Add(15 * time.Minute)
			if o.kitchen != "preparing" {
				kitchen["ready_at"] = started.Add(14 * time.Minute)
			}
		}

		payment := bson.M{
			"_id":        uuid.NewSHA1(orderID, []byte("payment")),
			"order_id":   o.id,
			"amount":     total,
			"method":     o.method,
			"user_id":    o.user,
			"status":     o.payment,
			"created_at": created,
			"updated_at": created.Add(time.Minute),
			"created_by": DemoMarker,
		}
		switch o.payment {
		case "success":
			payment["transaction_id"] = "demo-tx-" + o.id[len(o.id)-4:]
			payment["processed_at"] = created.Add(time.Minute)
		case "failed":
			payment["failure_reason"] = "Card declined"
			payment["processed_at"] = created.Add(time.Minute)
		}

		out = append(out, Docs{Order: order, KitchenOrder: kitchen, Payment: payment})
	}
	return out
}

// SeedOrders writes the demo orders, kitchen orders and payments. The
// demo restaurants must already exist.
func SeedOrders(ctx context.Context, client *mongo.Client, now time.Time) error {
	restaurants := client.Database(RestaurantDB).Collection("restaurants")
	found, err := restaurants.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": DemoRestaurantIDs()}})
	if err != nil {
		return fmt.Errorf("cannot check demo restaurants: %w", err)
	}
	if want := int64(len(DemoRestaurantIDs())); found < want {
		return fmt.Errorf("need the demo restaurants (found %d of %d): start the restaurant service with seed.demo.enabled=true", found, want)
	}

	orders := client.Database(OrderDB).Collection("orders")
	kitchen := client.Database(RestaurantDB).Collection("kitchen_orders")
	payments := client.Database(PaymentDB).Collection("payments")

	for _, d := range BuildDemo(now.UTC()) {
		if err := upsertOnInsert(ctx, orders, d.Order); err != nil {
			return fmt.Errorf("cannot create demo order: %w", err)
		}
		if err := upsertOnInsert(ctx, kitchen, d.KitchenOrder); err != nil {
			return fmt.Errorf("cannot create demo kitchen order: %w", err)
		}
		if err := upsertOnInsert(ctx, payments, d.Payment); err != nil {
			return fmt.Errorf("cannot create demo payment: %w", err)
		}
	}
	return nil
}

func upsertOnInsert(ctx context.Context, coll *mongo.Collection, doc bson.M) error {
	_, err := coll.UpdateOne(ctx, bson.M{"_id": doc["_id"]}, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	return err
}
