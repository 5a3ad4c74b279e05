package order

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const missingFieldsMessage = "Missing required fields: restaurantId, items, deliveryAddress, customerName, customerPhone"

var addressFields = []string{"street", "city", "state", "zipCode"}

// RequestedItem is a client line. Price is advisory; the menu decides.
type RequestedItem struct {
	ID       string
	Price    float64
	Quantity int
}

type CreateOrderRequest struct {
	UserID          string
	RestaurantID    string
	Items           []RequestedItem
	DeliveryAddress Address
	CustomerName    string
	CustomerPhone   string
}

type UpdateStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// ParseCreateOrder checks a decoded request body in a fixed order and
// returns the first failure as a ValidationError.
func ParseCreateOrder(body map[string]any, userID string) (*CreateOrderRequest, error) {
	for _, field := range []string{"restaurantId", "items", "deliveryAddress", "customerName", "customerPhone"} {
		if !present(body[field]) {
			return nil, &ValidationError{Message: missingFieldsMessage}
		}
	}

	rawItems, ok := body["items"].([]any)
	if !ok || len(rawItems) == 0 {
		return nil, &ValidationError{Message: "Items must be a non-empty array"}
	}

	items := make([]RequestedItem, 0, len(rawItems))
	for i, raw := range rawItems {
		item, err := parseItem(i, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	restaurantID, ok := body["restaurantId"].(string)
	if !ok || userID == "" {
		return nil, &ValidationError{Message: "restaurantId and userId must be strings"}
	}

	customerName, nameOK := body["customerName"].(string)
	customerPhone, phoneOK := body["customerPhone"].(string)
	if !nameOK || !phoneOK {
		return nil, &ValidationError{Message: "customerName and customerPhone must be strings"}
	}

	rawAddress, ok := body["deliveryAddress"].(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: "deliveryAddress must be an object"}
	}

	fields := make(map[string]string, len(addressFields))
	for _, field := range addressFields {
		v, ok := rawAddress[field].(string)
		if !ok || v == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("deliveryAddress.%s is required and must be a string", field)}
		}
		fields[field] = v
	}

	return &CreateOrderRequest{
		UserID:       userID,
		RestaurantID: restaurantID,
		Items:        items,
		DeliveryAddress: Address{
			Street:  fields["street"],
			City:    fields["city"],
			State:   fields["state"],
			ZipCode: fields["zipCode"],
		},
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
	}, nil
}

func parseItem(index int, raw any) (RequestedItem, error) {
	item, ok := raw.(map[string]any)
	if !ok || !present(item["id"]) || !present(item["price"]) || !present(item["quantity"]) {
		return RequestedItem{}, &ValidationError{
			Message: fmt.Sprintf("Item at index %d missing required fields: id, price, quantity", index),
		}
	}

	price, ok := number(item["price"])
	if !ok || price <= 0 {
		return RequestedItem{}, &ValidationError{
			Message: fmt.Sprintf("Item at index %d has invalid price: must be a positive number", index),
		}
	}

	qty, ok := number(item["quantity"])
	if !ok || qty <= 0 || qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return RequestedItem{}, &ValidationError{
			Message: fmt.Sprintf("Item at index %d has invalid quantity: must be a positive integer", index),
		}
	}

	return RequestedItem{
		ID:       idString(item["id"]),
		Price:    price,
		Quantity: int(qty),
	}, nil
}

// present treats null, empty strings, false and zero as absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
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

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
