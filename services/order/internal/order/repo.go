package order

import (
	"context"
	"time"

	"github.com/appetiteclub/delivery/pkg/outbox"
	"github.com/google/uuid"
)

// OrderRepo persists orders together with the events they produce. The
// *WithEvents methods write the order and its outbox messages atomically.
type OrderRepo interface {
	CreateWithEvents(ctx context.Context, order *Order, msgs ...*outbox.Message) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveWithEvents(ctx context.Context, order *Order, msgs ...*outbox.Message) error
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
	RestaurantStats(ctx context.Context, restaurantID string, since time.Time) (*RestaurantStats, error)
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type ListFilter struct {
	UserID       string
	RestaurantID string
	Status       string
	Limit        int
}

// Normalize applies the default and maximum page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

type Stats struct {
	TotalOrders       int64            `json:"totalOrders"`
	ByStatus          map[string]int64 `json:"byStatus"`
	TotalRevenue      float64          `json:"totalRevenue"`
	AverageOrderValue float64          `json:"averageOrderValue"`
	TodayOrders       int64            `json:"todayOrders"`
	TodayRevenue      float64          `json:"todayRevenue"`
}

type RestaurantStats struct {
	TotalOrders            int64   `json:"totalOrders"`
	TodayOrders            int64   `json:"todayOrders"`
	TodayRevenue           float64 `json:"todayRevenue"`
	AveragePreparationTime int     `json:"averagePreparationTime"`
}
