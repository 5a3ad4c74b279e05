package kitchen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
)

// SubscribedTopics are the order events the kitchen follows.
var SubscribedTopics = []string{
	event.OrderCreatedTopic,
	event.OrderStatusUpdatedTopic,
}

type EventSubscriber struct {
	subscriber events.Subscriber
	service    *Service
	logger     aqm.Logger
}

func NewEventSubscriber(subscriber events.Subscriber, service *Service, logger aqm.Logger) *EventSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &EventSubscriber{
		subscriber: subscriber,
		service:    service,
		logger:     logger,
	}
}

func (s *EventSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return fmt.Errorf("kitchen event subscriber not configured")
	}

	if err := s.subscriber.Subscribe(ctx, event.OrderCreatedTopic, s.handleOrderCreated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderCreatedTopic, err)
	}
	if err := s.subscriber.Subscribe(ctx, event.OrderStatusUpdatedTopic, s.handleOrderStatusUpdated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderStatusUpdatedTopic, err)
	}

	s.log().Info("Kitchen event subscriber started", "topics", len(SubscribedTopics))
	return nil
}

func (s *EventSubscriber) handleOrderCreated(ctx context.Context, msg []byte) error {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Errorf("Failed to unmarshal order created event: %v", err)
		return nil
	}
	if evt.OrderID == "" || evt.RestaurantID == "" {
		s.log().Info("Order created event without order or restaurant id dropped")
		return nil
	}

	_, err := s.service.Receive(ctx, evt)
	return err
}

func (s *EventSubscriber) handleOrderStatusUpdated(ctx context.Context, msg []byte) error {
	var evt event.OrderStatusUpdatedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Errorf("Failed to unmarshal order status event: %v", err)
		return nil
	}
	if evt.OrderID == "" {
		s.log().Info("Order status event without order id dropped")
		return nil
	}

	return s.service.ApplyOrderStatus(ctx, evt.OrderID, evt.Status)
}

func (s *EventSubscriber) log() aqm.Logger {
	return s.logger.With("component", "kitchen-event-subscriber")
}
