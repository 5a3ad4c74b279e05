package restaurant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ItemRef is one line of an order being checked against the menu.
type ItemRef struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type ValidatedItem struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category"`
}

// MenuValidation is the answer to POST /restaurants/{id}/menu/validate.
// Items carries menu prices for the lines that passed.
type MenuValidation struct {
	Valid  bool            `json:"valid"`
	Errors []string        `json:"errors"`
	Items  []ValidatedItem `json:"items"`
}

// ValidateOrderItems checks each reference against the restaurant's menu
// in request order. Unknown and unavailable items are reported, not fatal.
func ValidateOrderItems(ctx context.Context, repo MenuItemRepo, restaurantID uuid.UUID, refs []ItemRef) (*MenuValidation, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		if id, err := uuid.Parse(ref.ID); err == nil {
			ids = append(ids, id)
		}
	}

	found, err := repo.FindByIDs(ctx, restaurantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*MenuItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	result := &MenuValidation{
		Errors: []string{},
		Items:  make([]ValidatedItem, 0, len(refs)),
	}
	for _, ref := range refs {
		var item *MenuItem
		if id, err := uuid.Parse(ref.ID); err == nil {
			item = byID[id]
		}
		if item == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Item %s not found in restaurant menu", ref.ID))
			continue
		}
		if !item.IsAvailable {
			result.Errors = append(result.Errors, fmt.Sprintf("Item %s is currently unavailable", item.Name))
			continue
		}
		result.Items = append(result.Items, ValidatedItem{
			ItemID:   ref.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: ref.Quantity,
			Category: item.Category,
		})
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}
