package restaurant

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/delivery/pkg/validate"
)

type CreateRestaurantRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Cuisine      string  `json:"cuisine" validate:"required,max=60"`
	Address      string  `json:"address" validate:"required,max=250"`
	Phone        string  `json:"phone" validate:"required,max=30"`
	DeliveryTime int     `json:"deliveryTime" validate:"gte=0,lte=240"`
	DeliveryFee  float64 `json:"deliveryFee" validate:"gte=0"`
	OpeningTime  string  `json:"openingTime" validate:"omitempty,datetime=15:04"`
	ClosingTime  string  `json:"closingTime" validate:"omitempty,datetime=15:04"`
	ImageURL     string  `json:"imageUrl" validate:"omitempty,url"`
	IsOpen       *bool   `json:"isOpen"`
}

// Restaurant builds a new active restaurant owned by ownerID.
func (req *CreateRestaurantRequest) Restaurant(ownerID string) *Restaurant {
	r := NewRestaurant()
	r.OwnerID = ownerID
	r.Name = strings.TrimSpace(req.Name)
	r.Cuisine = strings.TrimSpace(req.Cuisine)
	r.Address = req.Address
	r.Phone = req.Phone
	r.DeliveryTime = req.DeliveryTime
	r.DeliveryFee = req.DeliveryFee
	r.OpeningTime = req.OpeningTime
	r.ClosingTime = req.ClosingTime
	r.ImageURL = req.ImageURL
	if req.IsOpen != nil {
		r.IsOpen = *req.IsOpen
	}
	return r
}

// UpdateRestaurantRequest holds the fields a PATCH may change. Nil fields
// are left alone.
type UpdateRestaurantRequest struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Cuisine      *string  `json:"cuisine" validate:"omitempty,min=1,max=60"`
	Address      *string  `json:"address" validate:"omitempty,min=1,max=250"`
	Phone        *string  `json:"phone" validate:"omitempty,min=1,max=30"`
	DeliveryTime *int     `json:"deliveryTime" validate:"omitempty,gte=0,lte=240"`
	DeliveryFee  *float64 `json:"deliveryFee" validate:"omitempty,gte=0"`
	OpeningTime  *string  `json:"openingTime" validate:"omitempty,datetime=15:04"`
	ClosingTime  *string  `json:"closingTime" validate:"omitempty,datetime=15:04"`
	ImageURL     *string  `json:"imageUrl" validate:"omitempty,url"`
	IsActive     *bool    `json:"isActive"`
}

func (req *UpdateRestaurantRequest) Apply(r *Restaurant) {
	setString(&r.Name, req.Name)
	setString(&r.Cuisine, req.Cuisine)
	setString(&r.Address, req.Address)
	setString(&r.Phone, req.Phone)
	setString(&r.OpeningTime, req.OpeningTime)
	setString(&r.ClosingTime, req.ClosingTime)
	setString(&r.ImageURL, req.ImageURL)
	if req.DeliveryTime != nil {
		r.DeliveryTime = *req.DeliveryTime
	}
	if req.DeliveryFee != nil {
		r.DeliveryFee = *req.DeliveryFee
	}
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
}

// MenuItemInput is a validated POST /restaurants/{id}/menu body.
type MenuItemInput struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Description     string  `json:"description" validate:"max=1000"`
	Price           float64 `json:"price" validate:"gt=0"`
	Category        string  `json:"category" validate:"required,max=60"`
	PreparationTime int     `json:"preparationTime" validate:"gte=0,lte=240"`
	ImageURL        string  `json:"imageUrl" validate:"omitempty,url"`
}

// ParseMenuItem checks a decoded body the way the menu API always has:
// required fields first, then the price, then the remaining tags.
func ParseMenuItem(body map[string]any) (*MenuItemInput, error) {
	name, _ := body["name"].(string)
	category, _ := body["category"].(string)
	rawPrice, hasPrice := body["price"]
	if name == "" || !hasPrice || rawPrice == nil || category == "" {
		return nil, &InputError{Message: "Missing required fields: name, price, category"}
	}

	price, ok := number(rawPrice)
	if !ok || price <= 0 {
		return nil, &InputError{Message: "Price must be a positive number"}
	}

	in := &MenuItemInput{
		Name:     name,
		Price:    price,
		Category: category,
	}
	in.Description, _ = body["description"].(string)
	in.ImageURL, _ = body["imageUrl"].(string)
	if prep, ok := number(body["preparationTime"]); ok {
		in.PreparationTime = int(prep)
	}

	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return in, nil
}

// MenuItem builds a new available item for restaurantID.
func (in *MenuItemInput) MenuItem(restaurantID uuid.UUID) *MenuItem {
	item := NewMenuItem(restaurantID)
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.Price = in.Price
	item.Category = strings.TrimSpace(in.Category)
	item.ImageURL = in.ImageURL
	if in.PreparationTime > 0 {
		item.PreparationTime = in.PreparationTime
	}
	return item
}

// UpdateMenuItemRequest holds the fields a PATCH may change.
type UpdateMenuItemRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Description     *string  `json:"description" validate:"omitempty,max=1000"`
	Price           *float64 `json:"price" validate:"omitempty,gt=0"`
	Category        *string  `json:"category" validate:"omitempty,min=1,max=60"`
	IsAvailable     *bool    `json:"isAvailable"`
	PreparationTime *int     `json:"preparationTime" validate:"omitempty,gte=1,lte=240"`
	ImageURL        *string  `json:"imageUrl" validate:"omitempty,url"`
}

func (req *UpdateMenuItemRequest) Apply(item *MenuItem) {
	setString(&item.Name, req.Name)
	setString(&item.Description, req.Description)
	setString(&item.Category, req.Category)
	setString(&item.ImageURL, req.ImageURL)
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.PreparationTime != nil {
		item.PreparationTime = *req.PreparationTime
	}
}

// BoolField reads a required boolean from a decoded body.
func BoolField(body map[string]any, field string) (bool, error) {
	v, ok := body[field].(bool)
	if !ok {
		return false, &InputError{Message: field + " must be a boolean"}
	}
	return v, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	default:
		return 0, false
	}
}
