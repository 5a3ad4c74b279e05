package restaurant

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPreparationTime is used for menu items created without one, in minutes.
const DefaultPreparationTime = 15

// MenuItem belongs to exactly one restaurant. Its price is the only price
// an order line is ever charged.
type MenuItem struct {
	ID              uuid.UUID `json:"itemId" bson:"_id"`
	RestaurantID    uuid.UUID `json:"restaurantId" bson:"restaurant_id"`
	Name            string    `json:"name" bson:"name"`
	Description     string    `json:"description" bson:"description"`
	Price           float64   `json:"price" bson:"price"`
	Category        string    `json:"category" bson:"category"`
	IsAvailable     bool      `json:"isAvailable" bson:"is_available"`
	PreparationTime int       `json:"preparationTime" bson:"preparation_time"`
	ImageURL        string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}

func NewMenuItem(restaurantID uuid.UUID) *MenuItem {
	return &MenuItem{
		ID:              uuid.New(),
		RestaurantID:    restaurantID,
		IsAvailable:     true,
		PreparationTime: DefaultPreparationTime,
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.PreparationTime <= 0 {
		m.PreparationTime = DefaultPreparationTime
	}
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now().UTC()
}
