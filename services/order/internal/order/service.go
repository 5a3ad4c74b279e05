package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/orderstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPreparationMinutes is reported while preparation times are not tracked.
const DefaultPreparationMinutes = 15

// Service runs the order workflows shared by HTTP handlers and event
// subscribers.
type Service struct {
	repo        OrderRepo
	restaurants RestaurantClient
	idempotency IdempotencyStore
	logger      aqm.Logger
	now         func() time.Time
}

func NewService(repo OrderRepo, restaurants RestaurantClient, idempotency IdempotencyStore, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Service{
		repo:        repo,
		restaurants: restaurants,
		idempotency: idempotency,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateOrder checks availability and menu with the restaurant service, prices
// the order from the menu, and stores it with its ORDER_CREATED event.
func (s *Service) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	log := s.logger.With("user_id", req.UserID, "restaurant_id", req.RestaurantID)
	log.Info("Order creation started", "items_count", len(req.Items))

	status, err := s.restaurants.Status(ctx, req.RestaurantID)
	if err != nil {
		if isUpstreamStatus(err) {
			return nil, &RejectionError{Message: "Restaurant not found"}
		}
		return nil, err
	}
	if !status.IsOpen {
		return nil, &RejectionError{Message: "Restaurant is currently closed", Reason: status.Reason}
	}

	refs := make([]MenuItemRef, 0, len(req.Items))
	for _, it := range req.Items {
		refs = append(refs, MenuItemRef{ID: it.ID, Quantity: it.Quantity})
	}

	validation, err := s.restaurants.ValidateMenu(ctx, req.RestaurantID, refs)
	if err != nil {
		if isUpstreamStatus(err) {
			return nil, &RejectionError{Message: "Failed to validate menu items"}
		}
		return nil, err
	}
	if !validation.Valid {
		return nil, &RejectionError{Message: "Invalid menu items", Details: validation.Errors}
	}

	fee, err := s.restaurants.DeliveryFee(ctx, req.RestaurantID)
	if err != nil {
		if isUpstreamStatus(err) {
			return nil, &RejectionError{Message: "Failed to fetch restaurant details"}
		}
		return nil, err
	}

	o := NewOrder()
	o.RestaurantID = req.RestaurantID
	o.UserID = req.UserID
	o.DeliveryAddress = req.DeliveryAddress
	o.CustomerName = req.CustomerName
	o.CustomerPhone = req.CustomerPhone
	price(o, validation.Items, fee)
	o.BeforeCreate()

	msg, err := outbox.NewMessage(event.OrderCreatedTopic, o.ID.String(), o.createdEvent())
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateWithEvents(ctx, o, msg); err != nil {
		return nil, err
	}

	created, err := s.repo.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("order %s not found after create", o.ID)
	}

	log.Info("Order created in database", "order_id", created.ID.String(), "total", created.Total)
	return created, nil
}

// CreateOrderOnce is CreateOrder guarded by an idempotency key. It reports
// true when an earlier order was replayed instead of creating a new one.
func (s *Service) CreateOrderOnce(ctx context.Context, key string, req *CreateOrderRequest) (*Order, bool, error) {
	if s.idempotency == nil || key == "" {
		o, err := s.CreateOrder(ctx, req)
		return o, false, err
	}

	scoped := req.UserID + ":" + key
	existing, reserved, err := s.idempotency.Reserve(ctx, scoped)
	if err != nil {
		return nil, false, fmt.Errorf("cannot reserve idempotency key: %w", err)
	}

	if !reserved {
		if existing == "" {
			return nil, false, ErrIdempotencyPending
		}
		id, err := uuid.Parse(existing)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt idempotency record: %w", err)
		}
		o, err := s.GetOrder(ctx, id)
		return o, true, err
	}

	o, err := s.CreateOrder(ctx, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, scoped); relErr != nil {
			s.logger.Error("cannot release idempotency key", "key", key, "error", relErr)
		}
		return nil, false, err
	}

	// The order is committed. A key left pending expires on its own.
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.idempotency.Complete(ctx, scoped, o.ID.String()); err == nil {
			break
		}
		s.logger.Error("cannot complete idempotency key", "key", key, "order_id", o.ID.String(), "attempt", attempt+1, "error", err)
	}
	return o, false, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	if filter.UserID == "" {
		return nil, &ValidationError{Message: "userId is required"}
	}
	if filter.Status != "" && !orderstatus.Valid(filter.Status) {
		return nil, &ValidationError{Message: "Invalid status"}
	}
	orders, err := s.repo.List(ctx, filter.Normalize())
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*Order{}
	}
	return orders, nil
}

// UpdateStatus changes the order status and optionally the payment status.
// Re-applying the current values changes nothing and emits nothing.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*Order, error) {
	if req.Status == "" && req.PaymentStatus == "" {
		return nil, &ValidationError{Message: "Status is required"}
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	previous := o.Status
	changed := false

	if req.Status != "" {
		c, err := o.ApplyStatus(req.Status, at)
		if err != nil {
			return nil, err
		}
		changed = changed || c
	}
	if req.PaymentStatus != "" {
		c, err := o.ApplyPaymentStatus(req.PaymentStatus, at)
		if err != nil {
			return nil, err
		}
		changed = changed || c
	}

	if !changed {
		return o, nil
	}

	if err := s.saveWithStatusEvents(ctx, o, []string{previous}); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated successfully",
		"order_id", o.ID.String(), "old_status", previous, "new_status", o.Status, "payment_status", o.PaymentStatus)
	return o, nil
}

// ApplyKitchenProgress walks the order forward to target along the delivery
// chain. Orders that cannot reach target are left alone.
func (s *Service) ApplyKitchenProgress(ctx context.Context, orderID, target string) error {
	o, ok, err := s.lookupForEvent(ctx, orderID)
	if !ok || err != nil {
		return err
	}

	steps := orderstatus.Path(o.Status, target)
	if len(steps) == 0 {
		s.logger.Info("Kitchen progress ignored", "order_id", orderID, "status", o.Status, "target", target)
		return nil
	}

	at := s.now().UTC()
	previous := make([]string, 0, len(steps))
	for _, step := range steps {
		prev := o.Status
		if _, err := o.ApplyStatus(step, at); err != nil {
			return err
		}
		previous = append(previous, prev)
	}

	if err := s.saveWithStatusEvents(ctx, o, previous); err != nil {
		return err
	}

	s.logger.Info("Order advanced by kitchen", "order_id", orderID, "from", previous[0], "to", o.Status)
	return nil
}

// ApplyPaymentResult records a payment outcome on the order.
func (s *Service) ApplyPaymentResult(ctx context.Context, orderID, paymentStatus string) error {
	o, ok, err := s.lookupForEvent(ctx, orderID)
	if !ok || err != nil {
		return err
	}

	changed, err := o.ApplyPaymentStatus(paymentStatus, s.now().UTC())
	if err != nil {
		var te *TransitionError
		var ve *ValidationError
		if errors.As(err, &te) || errors.As(err, &ve) {
			s.logger.Info("Payment result ignored", "order_id", orderID, "payment_status", o.PaymentStatus, "result", paymentStatus)
			return nil
		}
		return err
	}
	if !changed {
		return nil
	}

	if err := s.saveWithStatusEvents(ctx, o, []string{o.Status}); err != nil {
		return err
	}

	s.logger.Info("Order payment status updated", "order_id", orderID, "payment_status", o.PaymentStatus)
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, startOfDay(s.now()))
}

func (s *Service) RestaurantStats(ctx context.Context, restaurantID string) (*RestaurantStats, error) {
	stats, err := s.repo.RestaurantStats(ctx, restaurantID, startOfDay(s.now()))
	if err != nil {
		return nil, err
	}
	if stats.AveragePreparationTime == 0 {
		stats.AveragePreparationTime = DefaultPreparationMinutes
	}
	return stats, nil
}

func (s *Service) lookupForEvent(ctx context.Context, orderID string) (*Order, bool, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		s.logger.Info("Event for invalid order id dropped", "order_id", orderID)
		return nil, false, nil
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if o == nil {
		s.logger.Info("Event for unknown order dropped", "order_id", orderID)
		return nil, false, nil
	}
	return o, true, nil
}

// saveWithStatusEvents stores o with one ORDER_STATUS_UPDATED event per
// entry in previous.
func (s *Service) saveWithStatusEvents(ctx context.Context, o *Order, previous []string) error {
	msgs := make([]*outbox.Message, 0, len(previous))
	for i, prev := range previous {
		evt := o.statusEvent(prev)
		if i < len(previous)-1 {
			evt.Status = previous[i+1]
		}
		msg, err := outbox.NewMessage(event.OrderStatusUpdatedTopic, o.ID.String(), evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return s.repo.SaveWithEvents(ctx, o, msgs...)
}

// price fills the order lines and totals from validated menu items.
func price(o *Order, items []ValidatedItem, fee decimal.Decimal) {
	subtotal := decimal.Zero
	lines := make([]LineItem, 0, len(items))
	for _, it := range items {
		subtotal = subtotal.Add(money.Line(it.Price, it.Quantity))
		lines = append(lines, LineItem{
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Category: it.Category,
		})
	}

	subtotal = subtotal.Round(2)
	fee = fee.Round(2)

	o.Items = lines
	o.Subtotal = money.Float(subtotal)
	o.DeliveryFee = money.Float(fee)
	o.Total = money.Float(subtotal.Add(fee))
}

func isUpstreamStatus(err error) bool {
	var use *UpstreamStatusError
	return errors.As(err, &use)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
