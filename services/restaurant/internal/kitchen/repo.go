package kitchen

import (
	"context"

	"github.com/appetiteclub/delivery/pkg/outbox"
)

type ListFilter struct {
	RestaurantID string
	Status       string
	Limit        int
}

// Repo stores kitchen orders, one per order id.
type Repo interface {
	// CreateIfAbsent inserts ko unless a kitchen order for the same order id
	// exists. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, ko *KitchenOrder) (bool, error)
	GetByOrderID(ctx context.Context, orderID string) (*KitchenOrder, error)
	// SaveWithEvents patches the progress fields of ko and stores msgs in
	// the same unit of work.
	SaveWithEvents(ctx context.Context, ko *KitchenOrder, msgs ...*outbox.Message) error
	List(ctx context.Context, filter ListFilter) ([]*KitchenOrder, error)
	CountByStatus(ctx context.Context, restaurantID string) (map[string]int64, error)
}

// OwnerLookup resolves the restaurant managed by a user. It returns an
// empty id when the user has none.
type OwnerLookup interface {
	RestaurantIDFor(ctx context.Context, ownerID string) (string, error)
}

type OwnerLookupFunc func(ctx context.Context, ownerID string) (string, error)

func (f OwnerLookupFunc) RestaurantIDFor(ctx context.Context, ownerID string) (string, error) {
	return f(ctx, ownerID)
}
