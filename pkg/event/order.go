package event

import "time"

const (
	OrderCreatedTopic       = "ORDER_CREATED"
	OrderStatusUpdatedTopic = "ORDER_STATUS_UPDATED"
)

// OrderItem is the line item carried on order events.
type OrderItem struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category,omitempty"`
}

// Address mirrors the delivery address of an order.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// OrderCreatedEvent is published once per persisted order, keyed by order id.
// Kitchen and payment services consume it.
type OrderCreatedEvent struct {
	OrderID      string      `json:"orderId"`
	RestaurantID string      `json:"restaurantId"`
	Items        []OrderItem `json:"items"`
	UserID       string      `json:"userId"`
	Total        float64     `json:"total"`
	CreatedAt    time.Time   `json:"createdAt"`

	// Denormalized data for the kitchen display
	DeliveryAddress *Address `json:"deliveryAddress,omitempty"`
	CustomerName    string   `json:"customerName,omitempty"`
	CustomerPhone   string   `json:"customerPhone,omitempty"`
}

type OrderStatusUpdatedEvent struct {
	OrderID        string    `json:"orderId"`
	RestaurantID   string    `json:"restaurantId"`
	UserID         string    `json:"userId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus"`
	PaymentStatus  string    `json:"paymentStatus"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
