package restaurant

import (
	"context"

	"github.com/google/uuid"
)

const MaxListLimit = 100

// ListFilter narrows GET /restaurants. Cuisine matches case-insensitively.
type ListFilter struct {
	Cuisine   string
	IsActive  *bool
	MinRating *float64
	Limit     int
}

type MenuFilter struct {
	Category    string
	IsAvailable *bool
}

// RestaurantRepo stores restaurants. Get and GetByOwner return nil, nil when
// nothing matches.
type RestaurantRepo interface {
	Create(ctx context.Context, r *Restaurant) error
	Get(ctx context.Context, id uuid.UUID) (*Restaurant, error)
	GetByOwner(ctx context.Context, ownerID string) (*Restaurant, error)
	List(ctx context.Context, filter ListFilter) ([]*Restaurant, error)
	Save(ctx context.Context, r *Restaurant) error
	SetOpen(ctx context.Context, id uuid.UUID, open bool) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
}

// MenuItemRepo stores menu items. Every lookup is scoped to a restaurant so
// one restaurant can never read or change another's items.
type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, restaurantID, itemID uuid.UUID) (*MenuItem, error)
	List(ctx context.Context, restaurantID uuid.UUID, filter MenuFilter) ([]*MenuItem, error)
	FindByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, restaurantID, itemID uuid.UUID) (bool, error)
	SetAvailability(ctx context.Context, restaurantID, itemID uuid.UUID, available bool) (bool, error)
}
