package restaurant

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReasonOpen            = "Restaurant is open"
	ReasonInactive        = "Restaurant is inactive"
	ReasonTemporaryClosed = "Restaurant is temporarily closed"
)

// Restaurant is a venue that receives orders. DeliveryFee is added to every
// order total.
type Restaurant struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	OwnerID      string    `json:"ownerId" bson:"owner_id"`
	Name         string    `json:"name" bson:"name"`
	Cuisine      string    `json:"cuisine" bson:"cuisine"`
	Address      string    `json:"address" bson:"address"`
	Phone        string    `json:"phone" bson:"phone"`
	Rating       float64   `json:"rating" bson:"rating"`
	DeliveryTime int       `json:"deliveryTime" bson:"delivery_time"`
	DeliveryFee  float64   `json:"deliveryFee" bson:"delivery_fee"`
	IsOpen       bool      `json:"isOpen" bson:"is_open"`
	OpeningTime  string    `json:"openingTime" bson:"opening_time"`
	ClosingTime  string    `json:"closingTime" bson:"closing_time"`
	IsActive     bool      `json:"isActive" bson:"is_active"`
	ImageURL     string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Availability is the answer to "can this restaurant take an order now".
type Availability struct {
	RestaurantID string `json:"restaurantId"`
	IsOpen       bool   `json:"isOpen"`
	Reason       string `json:"reason"`
}

func NewRestaurant() *Restaurant {
	return &Restaurant{
		ID:       uuid.New(),
		IsActive: true,
	}
}

func (r *Restaurant) GetID() uuid.UUID {
	return r.ID
}

func (r *Restaurant) ResourceType() string {
	return "restaurant"
}

func (r *Restaurant) EnsureID() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
}

func (r *Restaurant) BeforeCreate() {
	r.EnsureID()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
}

func (r *Restaurant) BeforeUpdate() {
	r.UpdatedAt = time.Now().UTC()
}

// Availability reports the effective open state. An inactive restaurant is
// closed whatever its open flag says.
func (r *Restaurant) Availability() Availability {
	a := Availability{
		RestaurantID: r.ID.String(),
		IsOpen:       r.IsOpen && r.IsActive,
		Reason:       ReasonOpen,
	}
	switch {
	case !r.IsActive:
		a.Reason = ReasonInactive
	case !r.IsOpen:
		a.Reason = ReasonTemporaryClosed
	}
	return a
}

// Stats is the rollup served by GET /restaurants/stats.
type Stats struct {
	TotalRestaurants  int64            `json:"totalRestaurants"`
	ActiveRestaurants int64            `json:"activeRestaurants"`
	AverageRating     float64          `json:"averageRating"`
	ByCuisine         map[string]int64 `json:"byCuisine"`
}
