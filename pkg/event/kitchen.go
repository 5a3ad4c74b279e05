package event

import "time"

const (
	OrderPreparingTopic = "ORDER_PREPARING"
	OrderReadyTopic     = "ORDER_READY"
)

// KitchenProgressEvent is emitted by the restaurant kitchen when an order
// starts cooking or is ready for pickup.
type KitchenProgressEvent struct {
	OrderID            string     `json:"orderId"`
	RestaurantID       string     `json:"restaurantId"`
	KitchenOrderID     string     `json:"kitchenOrderId"`
	Status             string     `json:"status"`
	PreparationTime    int        `json:"preparationTime,omitempty"`
	EstimatedReadyTime *time.Time `json:"estimatedReadyTime,omitempty"`
	OccurredAt         time.Time  `json:"occurredAt"`
}
