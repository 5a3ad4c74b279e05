package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(payments ...*Payment) (http.Handler, *MockRepo) {
	svc, repo := newTestService(payments...)
	h := NewHandler(svc, aqm.NewConfig(), aqm.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

func serve(router http.Handler, method, path, body string, id *auth.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
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

func TestHandlerCreatePayment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		existing   []*Payment
		wantStatus int
		wantError  string
	}{
		{
			name:       "created",
			body:       `{"orderId":"order-1","amount":25.5,"method":"credit_card"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missingOrder",
			body:       `{"amount":25.5,"method":"credit_card"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{
			name:       "zeroAmount",
			body:       `{"orderId":"order-1","amount":0,"method":"cash"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{
			name:       "unknownMethod",
			body:       `{"orderId":"order-1","amount":10,"method":"iou"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Validation failed",
		},
		{name: "badJSON", body: `{"orderId":`, wantStatus: http.StatusBadRequest},
		{
			name:       "alreadyPaid",
			body:       `{"orderId":"order-1","amount":25.5,"method":"credit_card"}`,
			existing:   []*Payment{newTestPayment(testOrderID, "success", 25.5, testNow)},
			wantStatus: http.StatusConflict,
			wantError:  "Payment already completed for this order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(tt.existing...)

			rec := serve(router, http.MethodPost, "/payments", tt.body, &auth.Identity{UserID: testUserID})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			p, _ := body["payment"].(map[string]any)
			if p["orderId"] != testOrderID || p["userId"] != testUserID || p["status"] != "pending" {
				t.Errorf("payment = %v", p)
			}
			if _, ok := p["paymentId"].(string); !ok {
				t.Errorf("paymentId missing: %v", p)
			}
		})
	}
}

func TestHandlerListPayments(t *testing.T) {
	mine := newTestPayment("order-1", "pending", 10, testNow.Add(-time.Hour))
	minePaid := newTestPayment("order-2", "success", 20, testNow)
	theirs := newTestPayment("order-3", "pending", 30, testNow)
	theirs.UserID = "user-2"

	tests := []struct {
		name       string
		query      string
		id         *auth.Identity
		wantStatus int
		wantCount  int
	}{
		{name: "scopedToCaller", id: &auth.Identity{UserID: testUserID}, wantStatus: http.StatusOK, wantCount: 2},
		{name: "adminSeesAll", id: &auth.Identity{UserID: "ops", Role: AdminRole}, wantStatus: http.StatusOK, wantCount: 3},
		{name: "anonymousSeesAll", wantStatus: http.StatusOK, wantCount: 3},
		{name: "byStatus", query: "?status=success", id: &auth.Identity{UserID: testUserID}, wantStatus: http.StatusOK, wantCount: 1},
		{name: "byMethod", query: "?method=cash", wantStatus: http.StatusOK, wantCount: 0},
		{name: "limit", query: "?limit=1", wantStatus: http.StatusOK, wantCount: 1},
		{name: "badLimit", query: "?limit=zero", wantStatus: http.StatusBadRequest},
		{name: "badStatus", query: "?status=refunded", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(mine, minePaid, theirs)

			rec := serve(router, http.MethodGet, "/payments"+tt.query, "", tt.id)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decodeBody(t, rec)
			payments, _ := body["payments"].([]any)
			if len(payments) != tt.wantCount || body["total"] != float64(tt.wantCount) {
				t.Errorf("payments = %d, total = %v, want %d", len(payments), body["total"], tt.wantCount)
			}
		})
	}
}

func TestHandlerGetPayment(t *testing.T) {
	p := newTestPayment(testOrderID, "pending", 10, testNow)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "byID", path: "/payments/" + p.ID.String(), wantStatus: http.StatusOK},
		{name: "byOrder", path: "/payments/order/" + testOrderID, wantStatus: http.StatusOK},
		{name: "unknownID", path: "/payments/7d1c8c9e-0000-4000-8000-000000000000", wantStatus: http.StatusNotFound},
		{name: "invalidID", path: "/payments/not-a-uuid", wantStatus: http.StatusNotFound},
		{name: "unknownOrder", path: "/payments/order/order-404", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(p)

			rec := serve(router, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusNotFound {
				if body["error"] != "Payment not found" {
					t.Errorf("error = %v", body["error"])
				}
				return
			}
			got, _ := body["payment"].(map[string]any)
			if got["paymentId"] != p.ID.String() {
				t.Errorf("payment = %v", got)
			}
		})
	}
}

func TestHandlerUpdatePayment(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		body         string
		wantStatus   int
		wantMessages int
	}{
		{name: "complete", status: "processing", body: `{"status":"success","transactionId":"tx-1"}`, wantStatus: http.StatusOK, wantMessages: 1},
		{name: "fail", status: "pending", body: `{"status":"failed","failureReason":"declined"}`, wantStatus: http.StatusOK, wantMessages: 1},
		{name: "methodOnly", status: "pending", body: `{"method":"debit_card"}`, wantStatus: http.StatusOK},
		{name: "finalStatus", status: "success", body: `{"status":"pending"}`, wantStatus: http.StatusConflict},
		{name: "unknownStatus", status: "pending", body: `{"status":"refunded"}`, wantStatus: http.StatusBadRequest},
		{name: "emptyPatch", status: "pending", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPayment(testOrderID, tt.status, 10, testNow)
			router, repo := newTestRouter(p)

			rec := serve(router, http.MethodPatch, "/payments/"+p.ID.String(), tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(repo.Messages) != tt.wantMessages {
				t.Errorf("messages = %d, want %d", len(repo.Messages), tt.wantMessages)
			}
		})
	}
}

func TestHandlerGetStats(t *testing.T) {
	router, _ := newTestRouter(
		newTestPayment("order-1", "success", 10, testNow),
		newTestPayment("order-2", "success", 20.02, testNow),
		newTestPayment("order-3", "failed", 5, testNow),
		newTestPayment("order-4", "pending", 7, testNow),
	)

	rec := serve(router, http.MethodGet, "/payments/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	stats, _ := decodeBody(t, rec)["stats"].(map[string]any)
	want := map[string]float64{
		"total":         4,
		"successful":    2,
		"failed":        1,
		"pending":       1,
		"processing":    0,
		"totalAmount":   30.02,
		"averageAmount": 15.01,
		"successRate":   50,
	}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("%s = %v, want %v", k, stats[k], v)
		}
	}
}

func TestHandlerStoreError(t *testing.T) {
	router, repo := newTestRouter()
	repo.Err = errors.New("connection refused")

	rec := serve(router, http.MethodGet, "/payments/stats", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to retrieve payment statistics" || body["details"] != "connection refused" {
		t.Errorf("body = %v", body)
	}
}
