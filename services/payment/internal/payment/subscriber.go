package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
)

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
		return fmt.Errorf("payment event subscriber not configured")
	}

	if err := s.subscriber.Subscribe(ctx, event.OrderCreatedTopic, s.handleOrderCreated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderCreatedTopic, err)
	}

	s.log().Info("Payment event subscriber started", "topic", event.OrderCreatedTopic)
	return nil
}

// handleOrderCreated opens the pending payment. Unreadable payloads are
// dropped; store failures are returned so the bus redelivers.
func (s *EventSubscriber) handleOrderCreated(ctx context.Context, msg []byte) error {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Errorf("Failed to unmarshal order created event: %v", err)
		return nil
	}
	if evt.OrderID == "" {
		s.log().Info("Order created event without order id dropped")
		return nil
	}

	_, err := s.service.Receive(ctx, evt)
	return err
}

func (s *EventSubscriber) log() aqm.Logger {
	return s.logger.With("component", "payment-event-subscriber")
}
