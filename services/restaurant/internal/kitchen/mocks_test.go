package kitchen

import (
	"context"
	"sort"
	"sync"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm/events"
)

type MockSubscriber struct {
	mu            sync.Mutex
	handlers      map[string]events.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{handlers: make(map[string]events.HandlerFunc)}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	return h(ctx, msg)
}

// MockRepo keeps kitchen orders by order id and records outbox messages.
type MockRepo struct {
	mu       sync.Mutex
	orders   map[string]*KitchenOrder
	Messages []*outbox.Message
	Err      error
	SaveErr  error
}

func NewMockRepo(orders ...*KitchenOrder) *MockRepo {
	m := &MockRepo{orders: make(map[string]*KitchenOrder)}
	for _, ko := range orders {
		m.orders[ko.OrderID] = ko
	}
	return m
}

func (m *MockRepo) CreateIfAbsent(ctx context.Context, ko *KitchenOrder) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[ko.OrderID]; ok {
		return false, nil
	}
	cp := *ko
	m.orders[ko.OrderID] = &cp
	return true, nil
}

func (m *MockRepo) GetByOrderID(ctx context.Context, orderID string) (*KitchenOrder, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ko, ok := m.orders[orderID]; ok {
		cp := *ko
		return &cp, nil
	}
	return nil, nil
}

func (m *MockRepo) SaveWithEvents(ctx context.Context, ko *KitchenOrder, msgs ...*outbox.Message) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[ko.OrderID]; !ok {
		return ErrNotFound
	}
	cp := *ko
	m.orders[ko.OrderID] = &cp
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockRepo) List(ctx context.Context, filter ListFilter) ([]*KitchenOrder, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*KitchenOrder
	for _, ko := range m.orders {
		if ko.RestaurantID != filter.RestaurantID {
			continue
		}
		if filter.Status != "" && ko.Status != filter.Status {
			continue
		}
		cp := *ko
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockRepo) CountByStatus(ctx context.Context, restaurantID string) (map[string]int64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, ko := range m.orders {
		if ko.RestaurantID == restaurantID {
			counts[ko.Status]++
		}
	}
	return counts, nil
}

func (m *MockRepo) get(orderID string) *KitchenOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID]
}

func (m *MockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

const (
	testRestaurantID = "rest-1"
	testOwnerID      = "owner-1"
	testOrderID      = "order-1"
)

// testOwners maps owner-1 to rest-1 and everyone else to nothing.
var testOwners = OwnerLookupFunc(func(ctx context.Context, ownerID string) (string, error) {
	if ownerID == testOwnerID {
		return testRestaurantID, nil
	}
	return "", nil
})
