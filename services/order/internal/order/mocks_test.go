package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing
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

// MockOrderRepo is an in-memory OrderRepo that records outbox messages
type MockOrderRepo struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*Order
	Messages []*outbox.Message

	CreateFunc func(ctx context.Context, order *Order) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveFunc   func(ctx context.Context, order *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) CreateWithEvents(ctx context.Context, o *Order, msgs ...*outbox.Message) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, o); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) SaveWithEvents(ctx context.Context, o *Order, msgs ...*outbox.Message) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, o); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	cp := *o
	m.orders[o.ID] = &cp
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockOrderRepo) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Order
	for _, o := range m.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.RestaurantID != "" && o.RestaurantID != filter.RestaurantID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		cp := *o
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockOrderRepo) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{ByStatus: map[string]int64{}}
	for _, o := range m.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if !o.CreatedAt.Before(since) {
			stats.TodayOrders++
		}
	}
	return stats, nil
}

func (m *MockOrderRepo) RestaurantStats(ctx context.Context, restaurantID string, since time.Time) (*RestaurantStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &RestaurantStats{}
	for _, o := range m.orders {
		if o.RestaurantID != restaurantID {
			continue
		}
		stats.TotalOrders++
		if !o.CreatedAt.Before(since) {
			stats.TodayOrders++
			stats.TodayRevenue += o.Total
		}
	}
	return stats, nil
}

func (m *MockOrderRepo) put(o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
}

func (m *MockOrderRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func (m *MockOrderRepo) topics() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, msg := range m.Messages {
		out = append(out, msg.Topic)
	}
	return out
}

// MockRestaurantClient serves a fixed menu for one or more restaurants
type MockRestaurantClient struct {
	Restaurants map[string]*mockRestaurant

	StatusErr   error
	ValidateErr error
	FeeErr      error
}

type mockRestaurant struct {
	Open   bool
	Reason string
	Fee    decimal.Decimal
	Menu   map[string]ValidatedItem
	Closed map[string]bool
}

func NewMockRestaurantClient() *MockRestaurantClient {
	return &MockRestaurantClient{Restaurants: make(map[string]*mockRestaurant)}
}

func (m *MockRestaurantClient) Status(ctx context.Context, restaurantID string) (*RestaurantStatus, error) {
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	r, ok := m.Restaurants[restaurantID]
	if !ok {
		return nil, &UpstreamStatusError{Op: "status", StatusCode: 404}
	}
	reason := r.Reason
	if reason == "" && r.Open {
		reason = "Restaurant is open"
	}
	return &RestaurantStatus{RestaurantID: restaurantID, IsOpen: r.Open, Reason: reason}, nil
}

func (m *MockRestaurantClient) ValidateMenu(ctx context.Context, restaurantID string, items []MenuItemRef) (*MenuValidation, error) {
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	r, ok := m.Restaurants[restaurantID]
	if !ok {
		return nil, &UpstreamStatusError{Op: "menu validation", StatusCode: 404}
	}

	result := &MenuValidation{Valid: true, Errors: []string{}}
	for _, ref := range items {
		item, ok := r.Menu[ref.ID]
		if !ok {
			result.Valid = false
			result.Errors = append(result.Errors, "Item "+ref.ID+" not found in restaurant menu")
			continue
		}
		if r.Closed[ref.ID] {
			result.Valid = false
			result.Errors = append(result.Errors, "Item "+item.Name+" is currently unavailable")
			continue
		}
		item.Quantity = ref.Quantity
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (m *MockRestaurantClient) DeliveryFee(ctx context.Context, restaurantID string) (decimal.Decimal, error) {
	if m.FeeErr != nil {
		return decimal.Zero, m.FeeErr
	}
	r, ok := m.Restaurants[restaurantID]
	if !ok {
		return decimal.Zero, &UpstreamStatusError{Op: "restaurant details", StatusCode: 404}
	}
	return r.Fee, nil
}

// MockIdempotencyStore is an in-memory IdempotencyStore
type MockIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
	// CompleteFailures makes the next Complete calls fail.
	CompleteFailures int
	CompleteCalls    int
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{keys: make(map[string]string)}
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[key]; ok {
		if v == idempotencyPending {
			return "", false, nil
		}
		return v, false, nil
	}
	m.keys[key] = idempotencyPending
	return "", true, nil
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls++
	if m.CompleteFailures > 0 {
		m.CompleteFailures--
		return errors.New("redis unavailable")
	}
	m.keys[key] = orderID
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// Test fixtures

const (
	testRestaurantID = "rest-1"
	testUserID       = "user-1"
)

func newTestRestaurants() *MockRestaurantClient {
	client := NewMockRestaurantClient()
	client.Restaurants[testRestaurantID] = &mockRestaurant{
		Open: true,
		Fee:  decimal.RequireFromString("2.99"),
		Menu: map[string]ValidatedItem{
			"pizza": {ItemID: "pizza", Name: "Margherita", Price: 12.50, Category: "Mains"},
			"soda":  {ItemID: "soda", Name: "Cola", Price: 1.99, Category: "Drinks"},
			"soup":  {ItemID: "soup", Name: "Tomato Soup", Price: 6.00, Category: "Starters"},
		},
		Closed: map[string]bool{"soup": true},
	}
	return client
}

func validCreateRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		UserID:       testUserID,
		RestaurantID: testRestaurantID,
		Items: []RequestedItem{
			{ID: "pizza", Price: 1, Quantity: 2},
			{ID: "soda", Price: 1, Quantity: 3},
		},
		DeliveryAddress: Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701"},
		CustomerName:    "Ada",
		CustomerPhone:   "555-0100",
	}
}

func validCreateBody() map[string]any {
	return map[string]any{
		"restaurantId": testRestaurantID,
		"items": []any{
			map[string]any{"id": "pizza", "price": 12.5, "quantity": 2.0},
		},
		"deliveryAddress": map[string]any{
			"street":  "1 Main St",
			"city":    "Springfield",
			"state":   "IL",
			"zipCode": "62701",
		},
		"customerName":  "Ada",
		"customerPhone": "555-0100",
	}
}
