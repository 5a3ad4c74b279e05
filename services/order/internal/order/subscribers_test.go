package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
)

func TestEventSubscriberStart(t *testing.T) {
	tests := []struct {
		name       string
		subscriber func() events.Subscriber
		wantErr    bool
	}{
		{
			name:       "subscribesAllTopics",
			subscriber: func() events.Subscriber { return NewMockSubscriber() },
		},
		{
			name:       "notConfigured",
			subscriber: func() events.Subscriber { return nil },
			wantErr:    true,
		},
		{
			name: "subscribeFails",
			subscriber: func() events.Subscriber {
				m := NewMockSubscriber()
				m.SubscribeFunc = func(ctx context.Context, topic string, handler events.HandlerFunc) error {
					return errors.New("broker down")
				}
				return m
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			sub := tt.subscriber()
			es := NewEventSubscriber(sub, svc, aqm.NewNoopLogger())

			err := es.Start(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			m := sub.(*MockSubscriber)
			for _, topic := range SubscribedTopics {
				if m.handlers[topic] == nil {
					t.Errorf("no handler for %s", topic)
				}
			}
		})
	}
}

func TestEventSubscriberKitchenEvents(t *testing.T) {
	svc, repo, _ := newTestService()
	o := NewOrder()
	repo.put(o)

	mock := NewMockSubscriber()
	if err := NewEventSubscriber(mock, svc, nil).Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deliver := func(topic string, evt any) {
		data, _ := json.Marshal(evt)
		if err := mock.Deliver(context.Background(), topic, data); err != nil {
			t.Fatalf("handler %s error: %v", topic, err)
		}
	}

	deliver(event.OrderPreparingTopic, event.KitchenProgressEvent{OrderID: o.ID.String(), Status: "preparing"})
	stored, _ := repo.Get(context.Background(), o.ID)
	if stored.Status != "preparing" {
		t.Fatalf("Status = %q, want preparing", stored.Status)
	}

	deliver(event.OrderReadyTopic, event.KitchenProgressEvent{OrderID: o.ID.String(), Status: "ready"})
	stored, _ = repo.Get(context.Background(), o.ID)
	if stored.Status != "ready" {
		t.Fatalf("Status = %q, want ready", stored.Status)
	}

	// Redelivery of an older step leaves the order where it is.
	deliver(event.OrderPreparingTopic, event.KitchenProgressEvent{OrderID: o.ID.String(), Status: "preparing"})
	stored, _ = repo.Get(context.Background(), o.ID)
	if stored.Status != "ready" {
		t.Errorf("Status = %q, want ready after redelivery", stored.Status)
	}
	if len(repo.Messages) != 3 {
		t.Errorf("events = %d, want 3", len(repo.Messages))
	}
}

func TestEventSubscriberPaymentEvents(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		wantPayment string
	}{
		{name: "completed", topic: event.PaymentCompletedTopic, wantPayment: "success"},
		{name: "failed", topic: event.PaymentFailedTopic, wantPayment: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			o := NewOrder()
			repo.put(o)

			mock := NewMockSubscriber()
			if err := NewEventSubscriber(mock, svc, nil).Start(context.Background()); err != nil {
				t.Fatalf("Start() error: %v", err)
			}

			data, _ := json.Marshal(event.PaymentResultEvent{OrderID: o.ID.String(), Status: tt.wantPayment})
			if err := mock.Deliver(context.Background(), tt.topic, data); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			stored, _ := repo.Get(context.Background(), o.ID)
			if stored.PaymentStatus != tt.wantPayment {
				t.Errorf("PaymentStatus = %q, want %q", stored.PaymentStatus, tt.wantPayment)
			}
		})
	}
}

func TestEventSubscriberDropsBadMessages(t *testing.T) {
	svc, repo, _ := newTestService()
	mock := NewMockSubscriber()
	if err := NewEventSubscriber(mock, svc, nil).Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	for _, topic := range SubscribedTopics {
		for _, payload := range []string{"not json", `{}`} {
			if err := mock.Deliver(context.Background(), topic, []byte(payload)); err != nil {
				t.Errorf("%s %q: error = %v, want nil", topic, payload, err)
			}
		}
	}
	if len(repo.Messages) != 0 {
		t.Errorf("events = %d, want 0", len(repo.Messages))
	}
}

func TestEventSubscriberReturnsStoreErrors(t *testing.T) {
	svc, repo, _ := newTestService()
	o := NewOrder()
	repo.put(o)
	repo.SaveFunc = func(ctx context.Context, o *Order) error {
		return errors.New("write conflict")
	}

	mock := NewMockSubscriber()
	if err := NewEventSubscriber(mock, svc, nil).Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	data, _ := json.Marshal(event.KitchenProgressEvent{OrderID: o.ID.String()})
	if err := mock.Deliver(context.Background(), event.OrderReadyTopic, data); err == nil {
		t.Error("handler should return store errors so the message is redelivered")
	}
}
