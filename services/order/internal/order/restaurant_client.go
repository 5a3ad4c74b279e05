package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/shopspring/decimal"
)

// RestaurantClient is the order service's view of the restaurant service.
type RestaurantClient interface {
	Status(ctx context.Context, restaurantID string) (*RestaurantStatus, error)
	ValidateMenu(ctx context.Context, restaurantID string, items []MenuItemRef) (*MenuValidation, error)
	DeliveryFee(ctx context.Context, restaurantID string) (decimal.Decimal, error)
}

type RestaurantStatus struct {
	RestaurantID string `json:"restaurantId"`
	IsOpen       bool   `json:"isOpen"`
	Reason       string `json:"reason"`
}

type MenuItemRef struct {
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

type MenuValidation struct {
	Valid  bool            `json:"valid"`
	Errors []string        `json:"errors"`
	Items  []ValidatedItem `json:"items"`
}

// UpstreamStatusError is returned when the restaurant service answers with a
// non-200 status.
type UpstreamStatusError struct {
	Op         string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("restaurant service %s returned status %d", e.Op, e.StatusCode)
}

// HTTPRestaurantClient implements RestaurantClient using HTTP
type HTTPRestaurantClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRestaurantClient creates a new HTTP restaurant client
func NewHTTPRestaurantClient(baseURL string, timeout time.Duration) *HTTPRestaurantClient {
	if baseURL == "" {
		baseURL = "http://localhost:5006" // Default restaurant service URL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRestaurantClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPRestaurantClient) Status(ctx context.Context, restaurantID string) (*RestaurantStatus, error) {
	var status RestaurantStatus
	if err := c.do(ctx, "status", http.MethodGet, c.restaurantURL(restaurantID, "/status"), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPRestaurantClient) ValidateMenu(ctx context.Context, restaurantID string, items []MenuItemRef) (*MenuValidation, error) {
	payload := struct {
		Items []MenuItemRef `json:"items"`
	}{Items: items}

	var validation MenuValidation
	if err := c.do(ctx, "menu validation", http.MethodPost, c.restaurantURL(restaurantID, "/menu/validate"), payload, &validation); err != nil {
		return nil, err
	}
	return &validation, nil
}

// DeliveryFee reads the restaurant's fee. A missing or unparseable fee is
// treated as zero.
func (c *HTTPRestaurantClient) DeliveryFee(ctx context.Context, restaurantID string) (decimal.Decimal, error) {
	var resp struct {
		Restaurant map[string]any `json:"restaurant"`
	}
	if err := c.do(ctx, "restaurant details", http.MethodGet, c.restaurantURL(restaurantID, ""), nil, &resp); err != nil {
		return decimal.Zero, err
	}

	fee, ok := resp.Restaurant["deliveryFee"]
	if !ok {
		fee = resp.Restaurant["delivery_fee"]
	}
	d := money.ParseLenient(fee)
	if d.IsNegative() {
		return decimal.Zero, nil
	}
	return d, nil
}

func (c *HTTPRestaurantClient) restaurantURL(restaurantID, suffix string) string {
	return fmt.Sprintf("%s/restaurants/%s%s", c.baseURL, url.PathEscape(restaurantID), suffix)
}

func (c *HTTPRestaurantClient) do(ctx context.Context, op, method, target string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request failed: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, target, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
	}
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("restaurant service %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamStatusError{Op: op, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
