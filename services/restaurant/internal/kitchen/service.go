package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/delivery/pkg/enums/orderstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm"
)

const MaxListLimit = 100

type Service struct {
	repo   Repo
	owners OwnerLookup
	logger aqm.Logger
	now    func() time.Time
}

func NewService(repo Repo, owners OwnerLookup, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Service{
		repo:   repo,
		owners: owners,
		logger: logger,
		now:    time.Now,
	}
}

// Receive mirrors a new order into the kitchen. A second delivery of the
// same event leaves the existing row untouched.
func (s *Service) Receive(ctx context.Context, evt event.OrderCreatedEvent) (bool, error) {
	ko := FromOrderCreated(evt, s.now().UTC())
	created, err := s.repo.CreateIfAbsent(ctx, ko)
	if err != nil {
		return false, fmt.Errorf("cannot store kitchen order: %w", err)
	}

	if created {
		s.logger.Info("Kitchen order received", "order_id", evt.OrderID, "restaurant_id", evt.RestaurantID, "items", len(ko.Items))
	} else {
		s.logger.Debug("Kitchen order already exists", "order_id", evt.OrderID)
	}
	return created, nil
}

// RestaurantFor returns the restaurant the owner manages, or ErrNoRestaurant.
func (s *Service) RestaurantFor(ctx context.Context, ownerID string) (string, error) {
	restaurantID, err := s.owners.RestaurantIDFor(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if restaurantID == "" {
		return "", ErrNoRestaurant
	}
	return restaurantID, nil
}

// List returns the restaurant's kitchen orders, newest first, with counts
// per kitchen status.
func (s *Service) List(ctx context.Context, restaurantID, status string) ([]*KitchenOrder, map[string]int64, error) {
	orders, err := s.repo.List(ctx, ListFilter{
		RestaurantID: restaurantID,
		Status:       status,
		Limit:        MaxListLimit,
	})
	if err != nil {
		return nil, nil, err
	}
	if orders == nil {
		orders = []*KitchenOrder{}
	}

	counts, err := s.repo.CountByStatus(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}
	stats := make(map[string]int64, len(kitchenstatus.All))
	for _, st := range kitchenstatus.All {
		stats[st.Code()] = counts[st.Code()]
	}
	return orders, stats, nil
}

// Get returns the kitchen order for orderID if it belongs to restaurantID.
func (s *Service) Get(ctx context.Context, restaurantID, orderID string) (*KitchenOrder, error) {
	ko, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ko == nil || ko.RestaurantID != restaurantID {
		return nil, ErrNotFound
	}
	return ko, nil
}

// Start moves a received order to preparing and announces ORDER_PREPARING.
func (s *Service) Start(ctx context.Context, restaurantID, orderID string, prep int) (*KitchenOrder, error) {
	return s.advance(ctx, restaurantID, orderID, kitchenstatus.Statuses.Preparing.Code(), prep, event.OrderPreparingTopic)
}

// Ready moves a preparing order to ready and announces ORDER_READY.
func (s *Service) Ready(ctx context.Context, restaurantID, orderID string) (*KitchenOrder, error) {
	return s.advance(ctx, restaurantID, orderID, kitchenstatus.Statuses.Ready.Code(), 0, event.OrderReadyTopic)
}

func (s *Service) advance(ctx context.Context, restaurantID, orderID, next string, prep int, topic string) (*KitchenOrder, error) {
	ko, err := s.Get(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := ko.Advance(next, prep, now); err != nil {
		return nil, err
	}

	msg, err := outbox.NewMessage(topic, ko.OrderID, ko.progressEvent(now))
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithEvents(ctx, ko, msg); err != nil {
		return nil, err
	}

	s.logger.Info("Kitchen order advanced", "order_id", orderID, "status", next, "topic", topic)
	return ko, nil
}

// ApplyOrderStatus follows the order lifecycle: a cancelled order is
// cancelled in the kitchen and an order on its way out is picked up. Other
// statuses and disallowed moves are ignored.
func (s *Service) ApplyOrderStatus(ctx context.Context, orderID, status string) error {
	var next string
	switch status {
	case orderstatus.Statuses.Cancelled.Code():
		next = kitchenstatus.Statuses.Cancelled.Code()
	case orderstatus.Statuses.OutForDelivery.Code(), orderstatus.Statuses.Delivered.Code():
		next = kitchenstatus.Statuses.PickedUp.Code()
	default:
		return nil
	}

	ko, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if ko == nil {
		s.logger.Debug("Order status for unknown kitchen order ignored", "order_id", orderID, "status", status)
		return nil
	}
	if !kitchenstatus.CanTransition(ko.Status, next) {
		s.logger.Debug("Kitchen order status unchanged", "order_id", orderID, "from", ko.Status, "order_status", status)
		return nil
	}

	if err := ko.Advance(next, 0, s.now().UTC()); err != nil {
		return err
	}
	if err := s.repo.SaveWithEvents(ctx, ko); err != nil {
		return err
	}

	s.logger.Info("Kitchen order followed order status", "order_id", orderID, "status", next)
	return nil
}
