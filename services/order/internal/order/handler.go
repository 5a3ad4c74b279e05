package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/web"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	service *Service
	logger  aqm.Logger
	config  *aqm.Config
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/stats", h.GetOrderStats)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
	})

	r.Get("/restaurants/{restaurantId}/orders/stats", h.GetRestaurantOrderStats)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	body, err := web.DecodeObject(w, r)
	if err != nil {
		log.Debug("failed to decode request body", "error", err)
		web.DecodeFailed(w, err)
		return
	}

	req, err := ParseCreateOrder(body, id.UserID)
	if err != nil {
		log.Debug("order creation failed validation", "user_id", id.UserID, "error", err)
		h.respondError(w, log, err, "Failed to create order")
		return
	}

	o, replayed, err := h.service.CreateOrderOnce(ctx, r.Header.Get(IdempotencyHeader), req)
	if err != nil {
		h.respondError(w, log.With("user_id", req.UserID, "restaurant_id", req.RestaurantID), err, "Failed to create order")
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	web.Message(w, status, "Order created successfully", web.Body{"order": o})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Order not found")
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve order")
		return
	}

	web.Message(w, http.StatusOK, "Order retrieved successfully", web.Body{"order": o})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := ListFilter{
		UserID: id.UserID,
		Status: r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	orders, err := h.service.ListOrders(ctx, filter)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve orders")
		return
	}

	web.Message(w, http.StatusOK, "Orders retrieved successfully", web.Body{
		"orders": orders,
		"total":  len(orders),
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Order not found")
		return
	}

	var req UpdateStatusRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		web.DecodeFailed(w, err)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.respondError(w, log.With("order_id", id.String()), err, "Failed to update order status")
		return
	}

	web.Message(w, http.StatusOK, "Order status updated successfully", web.Body{"order": o})
}

func (h *Handler) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderStats")
	defer finish()

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, h.log(r), err, "Failed to retrieve order statistics")
		return
	}

	web.Message(w, http.StatusOK, "Order statistics retrieved successfully", web.Body{"stats": stats})
}

func (h *Handler) GetRestaurantOrderStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetRestaurantOrderStats")
	defer finish()

	stats, err := h.service.RestaurantStats(r.Context(), chi.URLParam(r, "restaurantId"))
	if err != nil {
		h.respondError(w, h.log(r), err, "Failed to retrieve restaurant order statistics")
		return
	}

	web.Message(w, http.StatusOK, "Restaurant order statistics retrieved successfully", web.Body{"stats": stats})
}

// respondError maps workflow errors to status codes. Unknown errors become a
// 500 carrying fallback and the raw detail.
func (h *Handler) respondError(w http.ResponseWriter, log aqm.Logger, err error, fallback string) {
	var validation *ValidationError
	var rejection *RejectionError
	var transition *TransitionError

	switch {
	case errors.As(err, &validation):
		web.Error(w, http.StatusBadRequest, validation.Message)

	case errors.As(err, &rejection):
		log.Info("order rejected by restaurant service", "reason", rejection.Error())
		body := web.ErrorBody{Error: rejection.Message, Reason: rejection.Reason}
		if rejection.Details != nil {
			body.Details = rejection.Details
		}
		web.JSON(w, http.StatusBadRequest, body)

	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "Order not found")

	case errors.As(err, &transition):
		web.Error(w, http.StatusConflict, transition.Error())

	case errors.Is(err, ErrIdempotencyPending):
		web.Error(w, http.StatusConflict, err.Error())

	default:
		log.Error(fallback, "error", err)
		web.ErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
