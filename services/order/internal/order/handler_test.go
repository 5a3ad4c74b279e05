package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc, aqm.NewConfig(), aqm.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func serve(router http.Handler, method, path string, body any, userID string, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if userID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID}))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		config *aqm.Config
		logger aqm.Logger
	}{
		{name: "withAllDependencies", config: aqm.NewConfig(), logger: aqm.NewNoopLogger()},
		{name: "withNilLogger", config: aqm.NewConfig(), logger: nil},
		{name: "withNilConfig", config: nil, logger: aqm.NewNoopLogger()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h := NewHandler(nil, tt.config, tt.logger); h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestHandlerCreateOrder(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		userID      string
		setup       func(*MockRestaurantClient)
		wantStatus  int
		wantError   string
		wantReason  string
		wantDetails bool
	}{
		{
			name:       "created",
			body:       validCreateBody(),
			userID:     testUserID,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unauthenticated",
			body:       validCreateBody(),
			wantStatus: http.StatusUnauthorized,
			wantError:  "Authentication required",
		},
		{
			name:       "invalidJSON",
			body:       "{not json",
			userID:     testUserID,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON in request body",
		},
		{
			name:       "missingFields",
			body:       map[string]any{"restaurantId": testRestaurantID},
			userID:     testUserID,
			wantStatus: http.StatusBadRequest,
			wantError:  missingFieldsMessage,
		},
		{
			name:   "restaurantClosed",
			body:   validCreateBody(),
			userID: testUserID,
			setup: func(c *MockRestaurantClient) {
				c.Restaurants[testRestaurantID].Open = false
				c.Restaurants[testRestaurantID].Reason = "Closed for holidays"
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Restaurant is currently closed",
			wantReason: "Closed for holidays",
		},
		{
			name: "unavailableItem",
			body: func() map[string]any {
				b := validCreateBody()
				b["items"] = []any{map[string]any{"id": "soup", "price": 6.0, "quantity": 1.0}}
				return b
			}(),
			userID:      testUserID,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Invalid menu items",
			wantDetails: true,
		},
		{
			name:   "restaurantUnreachable",
			body:   validCreateBody(),
			userID: testUserID,
			setup: func(c *MockRestaurantClient) {
				c.StatusErr = errors.New("dial tcp: connection refused")
			},
			wantStatus:  http.StatusInternalServerError,
			wantError:   "Failed to create order",
			wantDetails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, client := newTestService()
			if tt.setup != nil {
				tt.setup(client)
			}

			rec := serve(newTestRouter(svc), http.MethodPost, "/orders", tt.body, tt.userID, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			out := decodeBody(t, rec)

			if tt.wantStatus == http.StatusCreated {
				if out["message"] != "Order created successfully" {
					t.Errorf("message = %v", out["message"])
				}
				o, _ := out["order"].(map[string]any)
				if o["total"] != 27.99 {
					t.Errorf("total = %v, want 27.99", o["total"])
				}
				if o["confirmedAt"] != nil {
					t.Errorf("confirmedAt = %v, want null", o["confirmedAt"])
				}
				if repo.count() != 1 {
					t.Errorf("stored orders = %d, want 1", repo.count())
				}
				return
			}

			if out["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", out["error"], tt.wantError)
			}
			if tt.wantReason != "" && out["reason"] != tt.wantReason {
				t.Errorf("reason = %v, want %q", out["reason"], tt.wantReason)
			}
			if _, ok := out["details"]; ok != tt.wantDetails {
				t.Errorf("details present = %v, want %v", ok, tt.wantDetails)
			}
			if repo.count() != 0 {
				t.Errorf("stored orders = %d, want 0", repo.count())
			}
		})
	}
}

func TestHandlerCreateOrderIdempotencyKey(t *testing.T) {
	svc, repo, _ := newTestService()
	router := newTestRouter(svc)
	headers := map[string]string{IdempotencyHeader: "abc-123"}

	first := serve(router, http.MethodPost, "/orders", validCreateBody(), testUserID, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", first.Code)
	}
	second := serve(router, http.MethodPost, "/orders", validCreateBody(), testUserID, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", second.Code)
	}

	a := decodeBody(t, first)["order"].(map[string]any)
	b := decodeBody(t, second)["order"].(map[string]any)
	if a["id"] != b["id"] {
		t.Errorf("replayed id = %v, want %v", b["id"], a["id"])
	}
	if repo.count() != 1 {
		t.Errorf("stored orders = %d, want 1", repo.count())
	}
}

func TestHandlerCreateOrderWithBearerToken(t *testing.T) {
	svc, repo, _ := newTestService()
	verifier := auth.NewVerifier("test-secret")
	token, err := verifier.Sign(auth.Identity{UserID: "user-from-token"}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	r := chi.NewRouter()
	r.Use(auth.Middleware(verifier))
	NewHandler(svc, nil, nil).RegisterRoutes(r)

	rec := serve(r, http.MethodPost, "/orders", validCreateBody(), "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	orders, _ := repo.List(context.Background(), ListFilter{UserID: "user-from-token"})
	if len(orders) != 1 {
		t.Errorf("orders for token user = %d, want 1", len(orders))
	}
}

func TestHandlerGetOrder(t *testing.T) {
	svc, repo, _ := newTestService()
	o := NewOrder()
	o.UserID = testUserID
	repo.put(o)
	router := newTestRouter(svc)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "found", path: "/orders/" + o.ID.String(), wantStatus: http.StatusOK},
		{name: "unknown", path: "/orders/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "malformedID", path: "/orders/xyz", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, nil, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			out := decodeBody(t, rec)
			if tt.wantStatus == http.StatusNotFound && out["error"] != "Order not found" {
				t.Errorf("error = %v, want %q", out["error"], "Order not found")
			}
			if tt.wantStatus == http.StatusOK && out["message"] != "Order retrieved successfully" {
				t.Errorf("message = %v", out["message"])
			}
		})
	}
}

func TestHandlerListOrders(t *testing.T) {
	svc, repo, _ := newTestService()
	for _, user := range []string{"alice", "alice", "bob"} {
		o := NewOrder()
		o.UserID = user
		repo.put(o)
	}
	router := newTestRouter(svc)

	tests := []struct {
		name       string
		path       string
		userID     string
		wantStatus int
		wantTotal  float64
	}{
		{name: "ownOrders", path: "/orders", userID: "alice", wantStatus: http.StatusOK, wantTotal: 2},
		{name: "withLimit", path: "/orders?limit=1", userID: "alice", wantStatus: http.StatusOK, wantTotal: 1},
		{name: "otherUser", path: "/orders", userID: "bob", wantStatus: http.StatusOK, wantTotal: 1},
		{name: "invalidStatus", path: "/orders?status=lost", userID: "alice", wantStatus: http.StatusBadRequest},
		{name: "unauthenticated", path: "/orders", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, nil, tt.userID, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			out := decodeBody(t, rec)
			if out["total"] != tt.wantTotal {
				t.Errorf("total = %v, want %v", out["total"], tt.wantTotal)
			}
		})
	}
}

func TestHandlerUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		body       any
		wantStatus int
		wantError  string
	}{
		{name: "confirm", from: "pending", body: map[string]string{"status": "confirmed"}, wantStatus: http.StatusOK},
		{name: "missingStatus", from: "pending", body: map[string]string{}, wantStatus: http.StatusBadRequest, wantError: "Status is required"},
		{name: "invalidStatus", from: "pending", body: map[string]string{"status": "lost"}, wantStatus: http.StatusBadRequest, wantError: "Invalid status"},
		{name: "terminal", from: "cancelled", body: map[string]string{"status": "confirmed"}, wantStatus: http.StatusConflict, wantError: "cannot change status from cancelled to confirmed"},
		{name: "badJSON", from: "pending", body: "[", wantStatus: http.StatusBadRequest, wantError: "Invalid JSON in request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			o := NewOrder()
			o.Status = tt.from
			repo.put(o)

			rec := serve(newTestRouter(svc), http.MethodPatch, "/orders/"+o.ID.String()+"/status", tt.body, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			out := decodeBody(t, rec)
			if tt.wantError != "" && out["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", out["error"], tt.wantError)
			}
		})
	}
}

func TestHandlerStats(t *testing.T) {
	svc, repo, _ := newTestService()
	o := NewOrder()
	o.RestaurantID = testRestaurantID
	repo.put(o)
	router := newTestRouter(svc)

	rec := serve(router, http.MethodGet, "/orders/stats", nil, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["stats"]; !ok {
		t.Error("response should carry stats")
	}

	rec = serve(router, http.MethodGet, "/restaurants/"+testRestaurantID+"/orders/stats", nil, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	stats, _ := decodeBody(t, rec)["stats"].(map[string]any)
	if stats["totalOrders"] != 1.0 {
		t.Errorf("totalOrders = %v, want 1", stats["totalOrders"])
	}
	if stats["averagePreparationTime"] != float64(DefaultPreparationMinutes) {
		t.Errorf("averagePreparationTime = %v", stats["averagePreparationTime"])
	}
}
