package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

type Service struct {
	repo   Repo
	logger aqm.Logger
	now    func() time.Time
}

func NewService(repo Repo, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create records the client's payment details for an order. An existing
// payment for the order is updated in place unless it already succeeded.
func (s *Service) Create(ctx context.Context, req CreatePaymentRequest, userID string) (*Payment, error) {
	existing, err := s.repo.GetByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == paymentstatus.Statuses.Success.Code() {
		return nil, ErrAlreadySettled
	}

	p := NewPayment(req.OrderID, s.now().UTC())
	p.Amount = req.Amount
	p.Method = req.Method
	p.UserID = req.UserID
	if userID != "" {
		p.UserID = userID
	}

	stored, err := s.repo.UpsertByOrder(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("cannot store payment: %w", err)
	}

	s.logger.Info("Payment recorded", "payment_id", stored.ID, "order_id", stored.OrderID, "method", stored.Method)
	return stored, nil
}

// Receive opens a pending payment for a newly created order. A payment
// already on file for the order is left untouched.
func (s *Service) Receive(ctx context.Context, evt event.OrderCreatedEvent) (bool, error) {
	p := NewPayment(evt.OrderID, s.now().UTC())
	p.Amount = evt.Total
	p.UserID = evt.UserID

	created, err := s.repo.CreateIfAbsent(ctx, p)
	if err != nil {
		return false, fmt.Errorf("cannot open payment: %w", err)
	}

	if created {
		s.logger.Info("Pending payment opened", "order_id", evt.OrderID, "amount", evt.Total)
	} else {
		s.logger.Debug("Payment already exists for order", "order_id", evt.OrderID)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID string) (*Payment, error) {
	p, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return payments, nil
}

// Update patches the payment. When the status settles as success or failed
// the matching result event is written to the outbox with the payment.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) (*Payment, error) {
	if req.empty() {
		return nil, &InputError{Message: "No fields to update"}
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	changed := false
	if req.Status != nil {
		changed, err = p.ApplyStatus(*req.Status, now)
		if err != nil {
			return nil, err
		}
	}
	req.applyFields(p)
	p.UpdatedAt = now

	var msgs []*outbox.Message
	if topic := p.resultTopic(); changed && topic != "" {
		msg, err := outbox.NewMessage(topic, p.OrderID, p.resultEvent(now))
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	if err := s.repo.SaveWithEvents(ctx, p, msgs...); err != nil {
		return nil, err
	}

	s.logger.Info("Payment updated", "payment_id", p.ID, "order_id", p.OrderID, "status", p.Status, "events", len(msgs))
	return p, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, amount, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return NewStats(counts, amount), nil
}
