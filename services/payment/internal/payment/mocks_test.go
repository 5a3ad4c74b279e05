package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"
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

// MockRepo keeps payments by id. Several rows may share an order id, as
// they can in the store.
type MockRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*Payment
	Messages []*outbox.Message
	Err      error
	SaveErr  error
}

func NewMockRepo(payments ...*Payment) *MockRepo {
	m := &MockRepo{payments: make(map[uuid.UUID]*Payment)}
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return m
}

func (m *MockRepo) latest(orderID string) *Payment {
	var found *Payment
	for _, p := range m.payments {
		if p.OrderID != orderID {
			continue
		}
		if found == nil || p.CreatedAt.After(found.CreatedAt) {
			found = p
		}
	}
	return found
}

func (m *MockRepo) UpsertByOrder(ctx context.Context, p *Payment) (*Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.latest(p.OrderID)
	if existing == nil {
		cp := *p
		m.payments[p.ID] = &cp
		out := cp
		return &out, nil
	}
	existing.Amount = p.Amount
	existing.Method = p.Method
	existing.UpdatedAt = p.UpdatedAt
	if p.UserID != "" {
		existing.UserID = p.UserID
	}
	out := *existing
	return &out, nil
}

func (m *MockRepo) CreateIfAbsent(ctx context.Context, p *Payment) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest(p.OrderID) != nil {
		return false, nil
	}
	cp := *p
	m.payments[p.ID] = &cp
	return true, nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MockRepo) GetByOrder(ctx context.Context, orderID string) (*Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.latest(orderID); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MockRepo) SaveWithEvents(ctx context.Context, p *Payment, msgs ...*outbox.Message) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockRepo) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Payment
	for _, p := range m.payments {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Method != "" && p.Method != filter.Method {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockRepo) Totals(ctx context.Context) (map[string]int64, float64, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	var amount float64
	for _, p := range m.payments {
		counts[p.Status]++
		if p.Status == "success" {
			amount += p.Amount
		}
	}
	return counts, amount, nil
}

func (m *MockRepo) get(id uuid.UUID) *Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

func (m *MockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

const (
	testOrderID = "order-1"
	testUserID  = "user-1"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// newTestPayment returns a payment for orderID created at createdAt.
func newTestPayment(orderID, status string, amount float64, createdAt time.Time) *Payment {
	p := NewPayment(orderID, createdAt)
	p.Status = status
	p.Amount = amount
	p.Method = MethodCreditCard
	p.UserID = testUserID
	return p
}

func newTestService(payments ...*Payment) (*Service, *MockRepo) {
	repo := NewMockRepo(payments...)
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return testNow }
	return svc, repo
}
