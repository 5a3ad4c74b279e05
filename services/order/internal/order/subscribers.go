package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/delivery/pkg/enums/orderstatus"
	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
)

// Topics consumed by the order service.
var SubscribedTopics = []string{
	event.OrderPreparingTopic,
	event.OrderReadyTopic,
	event.PaymentCompletedTopic,
	event.PaymentFailedTopic,
}

// EventSubscriber keeps orders in step with kitchen and payment events.
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
		return fmt.Errorf("order event subscriber not configured")
	}

	handlers := map[string]events.HandlerFunc{
		event.OrderPreparingTopic:   s.kitchenHandler(orderstatus.Statuses.Preparing.Code()),
		event.OrderReadyTopic:       s.kitchenHandler(orderstatus.Statuses.Ready.Code()),
		event.PaymentCompletedTopic: s.paymentHandler(paymentstatus.Statuses.Success.Code()),
		event.PaymentFailedTopic:    s.paymentHandler(paymentstatus.Statuses.Failed.Code()),
	}

	for _, topic := range SubscribedTopics {
		if err := s.subscriber.Subscribe(ctx, topic, handlers[topic]); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	s.log().Info("Order event subscriber started", "topics", len(SubscribedTopics))
	return nil
}

func (s *EventSubscriber) kitchenHandler(target string) events.HandlerFunc {
	return func(ctx context.Context, msg []byte) error {
		var evt event.KitchenProgressEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			s.log().Errorf("Failed to unmarshal kitchen event: %v", err)
			return nil
		}
		if evt.OrderID == "" {
			s.log().Info("Kitchen event without order id dropped")
			return nil
		}
		return s.service.ApplyKitchenProgress(ctx, evt.OrderID, target)
	}
}

func (s *EventSubscriber) paymentHandler(result string) events.HandlerFunc {
	return func(ctx context.Context, msg []byte) error {
		var evt event.PaymentResultEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			s.log().Errorf("Failed to unmarshal payment event: %v", err)
			return nil
		}
		if evt.OrderID == "" {
			s.log().Info("Payment event without order id dropped")
			return nil
		}
		return s.service.ApplyPaymentResult(ctx, evt.OrderID, result)
	}
}

func (s *EventSubscriber) log() aqm.Logger {
	return s.logger.With("component", "order-event-subscriber")
}
