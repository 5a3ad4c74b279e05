package restaurant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockRestaurantRepo is an in-memory RestaurantRepo.
type MockRestaurantRepo struct {
	mu          sync.Mutex
	restaurants map[uuid.UUID]*Restaurant
	Err         error
	StatsFunc   func(ctx context.Context) (*Stats, error)
}

func NewMockRestaurantRepo(rs ...*Restaurant) *MockRestaurantRepo {
	m := &MockRestaurantRepo{restaurants: make(map[uuid.UUID]*Restaurant)}
	for _, r := range rs {
		m.restaurants[r.ID] = r
	}
	return m
}

func (m *MockRestaurantRepo) Create(ctx context.Context, r *Restaurant) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.restaurants {
		if existing.OwnerID == r.OwnerID {
			return ErrOwnerExists
		}
	}
	m.restaurants[r.ID] = r
	return nil
}

func (m *MockRestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*Restaurant, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.restaurants[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *MockRestaurantRepo) GetByOwner(ctx context.Context, ownerID string) (*Restaurant, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRestaurantRepo) List(ctx context.Context, filter ListFilter) ([]*Restaurant, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Restaurant
	for _, r := range m.restaurants {
		if filter.Cuisine != "" && !strings.Contains(strings.ToLower(r.Cuisine), strings.ToLower(filter.Cuisine)) {
			continue
		}
		if filter.IsActive != nil && r.IsActive != *filter.IsActive {
			continue
		}
		if filter.MinRating != nil && r.Rating < *filter.MinRating {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockRestaurantRepo) Save(ctx context.Context, r *Restaurant) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.restaurants[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	m.restaurants[r.ID] = &cp
	return nil
}

func (m *MockRestaurantRepo) SetOpen(ctx context.Context, id uuid.UUID, open bool) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return false, nil
	}
	r.IsOpen = open
	return true, nil
}

func (m *MockRestaurantRepo) Stats(ctx context.Context) (*Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &Stats{ByCuisine: map[string]int64{}}, m.Err
}

func (m *MockRestaurantRepo) get(id uuid.UUID) *Restaurant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restaurants[id]
}

// MockMenuItemRepo is an in-memory MenuItemRepo.
type MockMenuItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*MenuItem
	Err   error
}

func NewMockMenuItemRepo(items ...*MenuItem) *MockMenuItemRepo {
	m := &MockMenuItemRepo{items: make(map[uuid.UUID]*MenuItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *MenuItem) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, restaurantID, itemID uuid.UUID) (*MenuItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[itemID]; ok && it.RestaurantID == restaurantID {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

func (m *MockMenuItemRepo) List(ctx context.Context, restaurantID uuid.UUID, filter MenuFilter) ([]*MenuItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MenuItem
	for _, it := range m.items {
		if it.RestaurantID != restaurantID {
			continue
		}
		if filter.Category != "" && it.Category != filter.Category {
			continue
		}
		if filter.IsAvailable != nil && it.IsAvailable != *filter.IsAvailable {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockMenuItemRepo) FindByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]*MenuItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MenuItem
	for _, id := range ids {
		if it, ok := m.items[id]; ok && it.RestaurantID == restaurantID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *MenuItem) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[item.ID]
	if !ok || existing.RestaurantID != item.RestaurantID {
		return ErrMenuItemNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *MockMenuItemRepo) Delete(ctx context.Context, restaurantID, itemID uuid.UUID) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.RestaurantID != restaurantID {
		return false, nil
	}
	delete(m.items, itemID)
	return true, nil
}

func (m *MockMenuItemRepo) SetAvailability(ctx context.Context, restaurantID, itemID uuid.UUID, available bool) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.RestaurantID != restaurantID {
		return false, nil
	}
	it.IsAvailable = available
	return true, nil
}

func (m *MockMenuItemRepo) get(id uuid.UUID) *MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

const (
	testOwnerID = "owner-1"
	otherUserID = "user-2"
)

var (
	testRestaurantID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	pizzaID          = uuid.MustParse("22222222-2222-4222-8222-222222222201")
	sodaID           = uuid.MustParse("22222222-2222-4222-8222-222222222202")
	soupID           = uuid.MustParse("22222222-2222-4222-8222-222222222203")
)

func newTestRestaurant() *Restaurant {
	return &Restaurant{
		ID:          testRestaurantID,
		OwnerID:     testOwnerID,
		Name:        "Napoli",
		Cuisine:     "Italian",
		Rating:      4.5,
		DeliveryFee: 2.99,
		IsOpen:      true,
		IsActive:    true,
	}
}

func newTestItems() []*MenuItem {
	return []*MenuItem{
		{ID: pizzaID, RestaurantID: testRestaurantID, Name: "Pizza", Price: 12.50, Category: "Mains", IsAvailable: true, PreparationTime: 15},
		{ID: sodaID, RestaurantID: testRestaurantID, Name: "Soda", Price: 1.99, Category: "Drinks", IsAvailable: true, PreparationTime: 1},
		{ID: soupID, RestaurantID: testRestaurantID, Name: "Soup", Price: 6.00, Category: "Starters", IsAvailable: false, PreparationTime: 10},
	}
}
