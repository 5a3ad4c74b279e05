package payment

import (
	"context"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/google/uuid"
)

const MaxListLimit = 100

type ListFilter struct {
	UserID string
	Status string
	Method string
	Limit  int
}

// Repo stores payments. Get and GetByOrder return nil, nil when nothing
// matches.
type Repo interface {
	// UpsertByOrder writes amount, method and user of p onto the payment for
	// p.OrderID, creating it as pending when absent. It returns the stored row.
	UpsertByOrder(ctx context.Context, p *Payment) (*Payment, error)
	// CreateIfAbsent inserts p unless the order already has a payment.
	CreateIfAbsent(ctx context.Context, p *Payment) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*Payment, error)
	// GetByOrder returns the most recently created payment for the order.
	GetByOrder(ctx context.Context, orderID string) (*Payment, error)
	SaveWithEvents(ctx context.Context, p *Payment, msgs ...*outbox.Message) error
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)
	// Totals counts payments per status and sums the successful amounts.
	Totals(ctx context.Context) (map[string]int64, float64, error)
}
