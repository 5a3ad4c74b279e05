package order

import (
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/orderstatus"
	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/google/uuid"
)

type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zip_code"`
}

// LineItem is an order line priced from the restaurant menu, never from the
// client request.
type LineItem struct {
	ItemID   string  `json:"itemId" bson:"item_id"`
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Category string  `json:"category,omitempty" bson:"category,omitempty"`
}

type Order struct {
	ID              uuid.UUID  `json:"id" bson:"_id"`
	RestaurantID    string     `json:"restaurantId" bson:"restaurant_id"`
	UserID          string     `json:"userId" bson:"user_id"`
	DeliveryAddress Address    `json:"deliveryAddress" bson:"delivery_address"`
	CustomerName    string     `json:"customerName" bson:"customer_name"`
	CustomerPhone   string     `json:"customerPhone" bson:"customer_phone"`
	Items           []LineItem `json:"items" bson:"items"`
	Subtotal        float64    `json:"subtotal" bson:"subtotal"`
	DeliveryFee     float64    `json:"deliveryFee" bson:"delivery_fee"`
	Total           float64    `json:"total" bson:"total"`
	Status          string     `json:"status" bson:"status"`
	PaymentStatus   string     `json:"paymentStatus" bson:"payment_status"`
	CreatedAt       time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updated_at"`
	ConfirmedAt     *time.Time `json:"confirmedAt" bson:"confirmed_at"`
	DeliveredAt     *time.Time `json:"deliveredAt" bson:"delivered_at"`
}

func NewOrder() *Order {
	return &Order{
		ID:            uuid.New(),
		Status:        orderstatus.Statuses.Pending.Code(),
		PaymentStatus: paymentstatus.Statuses.Pending.Code(),
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now().UTC()
}

// ApplyStatus moves the order to next. It reports whether anything changed.
// Entering confirmed stamps ConfirmedAt and entering delivered stamps
// DeliveredAt; existing stamps are never cleared.
func (o *Order) ApplyStatus(next string, at time.Time) (bool, error) {
	if !orderstatus.Valid(next) {
		return false, &ValidationError{Message: "Invalid status"}
	}
	if o.Status == next {
		return false, nil
	}
	if !orderstatus.CanTransition(o.Status, next) {
		return false, &TransitionError{Kind: "status", From: o.Status, To: next}
	}

	o.Status = next
	switch next {
	case orderstatus.Statuses.Confirmed.Code():
		o.ConfirmedAt = &at
	case orderstatus.Statuses.Delivered.Code():
		o.DeliveredAt = &at
	}
	o.UpdatedAt = at
	return true, nil
}

// ApplyPaymentStatus moves the payment status to next.
func (o *Order) ApplyPaymentStatus(next string, at time.Time) (bool, error) {
	if !paymentstatus.Valid(next) {
		return false, &ValidationError{Message: "Invalid payment status"}
	}
	if o.PaymentStatus == next {
		return false, nil
	}
	if !paymentstatus.CanTransition(o.PaymentStatus, next) {
		return false, &TransitionError{Kind: "payment status", From: o.PaymentStatus, To: next}
	}
	o.PaymentStatus = next
	o.UpdatedAt = at
	return true, nil
}

func (o *Order) createdEvent() event.OrderCreatedEvent {
	items := make([]event.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, event.OrderItem{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Category: it.Category,
		})
	}
	return event.OrderCreatedEvent{
		OrderID:      o.ID.String(),
		RestaurantID: o.RestaurantID,
		Items:        items,
		UserID:       o.UserID,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
		DeliveryAddress: &event.Address{
			Street:  o.DeliveryAddress.Street,
			City:    o.DeliveryAddress.City,
			State:   o.DeliveryAddress.State,
			ZipCode: o.DeliveryAddress.ZipCode,
		},
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
	}
}

func (o *Order) statusEvent(previous string) event.OrderStatusUpdatedEvent {
	return event.OrderStatusUpdatedEvent{
		OrderID:        o.ID.String(),
		RestaurantID:   o.RestaurantID,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: previous,
		PaymentStatus:  o.PaymentStatus,
		UpdatedAt:      o.UpdatedAt,
	}
}
