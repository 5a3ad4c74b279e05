package kitchen

import (
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/google/uuid"
)

// DefaultPreparationTime is the cooking estimate in minutes when the kitchen
// does not give one.
const DefaultPreparationTime = 15

type Item struct {
	ItemID   string  `json:"itemId" bson:"item_id"`
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Category string  `json:"category,omitempty" bson:"category,omitempty"`
}

type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zip_code"`
}

// KitchenOrder is the restaurant's copy of an order, created from
// ORDER_CREATED and advanced by kitchen staff.
type KitchenOrder struct {
	ID                 uuid.UUID  `json:"id" bson:"_id"`
	OrderID            string     `json:"orderId" bson:"order_id"`
	RestaurantID       string     `json:"restaurantId" bson:"restaurant_id"`
	UserID             string     `json:"userId" bson:"user_id"`
	Items              []Item     `json:"items" bson:"items"`
	DeliveryAddress    *Address   `json:"deliveryAddress,omitempty" bson:"delivery_address,omitempty"`
	CustomerName       string     `json:"customerName,omitempty" bson:"customer_name,omitempty"`
	CustomerPhone      string     `json:"customerPhone,omitempty" bson:"customer_phone,omitempty"`
	Total              float64    `json:"total" bson:"total"`
	Status             string     `json:"status" bson:"status"`
	ReceivedAt         time.Time  `json:"receivedAt" bson:"received_at"`
	StartedAt          *time.Time `json:"startedAt,omitempty" bson:"started_at,omitempty"`
	EstimatedReadyTime *time.Time `json:"estimatedReadyTime,omitempty" bson:"estimated_ready_time,omitempty"`
	ReadyAt            *time.Time `json:"readyAt,omitempty" bson:"ready_at,omitempty"`
	PreparationTime    int        `json:"preparationTime" bson:"preparation_time"`
	CreatedAt          time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" bson:"updated_at"`
}

// FromOrderCreated builds a received kitchen order from the order event.
func FromOrderCreated(evt event.OrderCreatedEvent, now time.Time) *KitchenOrder {
	ko := &KitchenOrder{
		ID:              uuid.New(),
		OrderID:         evt.OrderID,
		RestaurantID:    evt.RestaurantID,
		UserID:          evt.UserID,
		Items:           make([]Item, 0, len(evt.Items)),
		CustomerName:    evt.CustomerName,
		CustomerPhone:   evt.CustomerPhone,
		Total:           evt.Total,
		Status:          kitchenstatus.Statuses.Received.Code(),
		ReceivedAt:      now,
		PreparationTime: DefaultPreparationTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range evt.Items {
		ko.Items = append(ko.Items, Item{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Category: it.Category,
		})
	}
	if a := evt.DeliveryAddress; a != nil {
		ko.DeliveryAddress = &Address{
			Street:  a.Street,
			City:    a.City,
			State:   a.State,
			ZipCode: a.ZipCode,
		}
	}
	return ko
}

func (k *KitchenOrder) GetID() uuid.UUID {
	return k.ID
}

func (k *KitchenOrder) ResourceType() string {
	return "kitchen/order"
}

// Advance moves the order to next, stamping the timestamps that belong to
// the new status. prep is only used when starting.
func (k *KitchenOrder) Advance(next string, prep int, now time.Time) error {
	if !kitchenstatus.CanTransition(k.Status, next) {
		return &TransitionError{From: k.Status, To: next}
	}

	k.Status = next
	k.UpdatedAt = now

	switch next {
	case kitchenstatus.Statuses.Preparing.Code():
		if prep <= 0 {
			prep = DefaultPreparationTime
		}
		ready := now.Add(time.Duration(prep) * time.Minute)
		k.PreparationTime = prep
		k.StartedAt = &now
		k.EstimatedReadyTime = &ready
	case kitchenstatus.Statuses.Ready.Code():
		k.ReadyAt = &now
	}
	return nil
}

func (k *KitchenOrder) progressEvent(now time.Time) event.KitchenProgressEvent {
	return event.KitchenProgressEvent{
		OrderID:            k.OrderID,
		RestaurantID:       k.RestaurantID,
		KitchenOrderID:     k.ID.String(),
		Status:             k.Status,
		PreparationTime:    k.PreparationTime,
		EstimatedReadyTime: k.EstimatedReadyTime,
		OccurredAt:         now,
	}
}
