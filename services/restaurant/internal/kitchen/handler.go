package kitchen

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/delivery/pkg/web"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
)

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
	r.Route("/kitchen/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{orderId}", h.GetOrder)
		r.Patch("/{orderId}/start", h.StartOrder)
		r.Patch("/{orderId}/ready", h.MarkReady)
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)

	restaurantID, ok := h.restaurant(w, r, log)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !kitchenstatus.Valid(status) {
		web.Error(w, http.StatusBadRequest, "Invalid kitchen status")
		return
	}

	orders, stats, err := h.service.List(r.Context(), restaurantID, status)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve kitchen orders")
		return
	}

	web.Message(w, http.StatusOK, "Kitchen orders retrieved successfully", web.Body{
		"orders": orders,
		"stats":  stats,
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	restaurantID, ok := h.restaurant(w, r, log)
	if !ok {
		return
	}

	ko, err := h.service.Get(r.Context(), restaurantID, chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve kitchen order")
		return
	}

	web.Message(w, http.StatusOK, "Kitchen order retrieved successfully", web.Body{"order": ko})
}

func (h *Handler) StartOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.StartOrder")
	defer finish()
	log := h.log(r)

	restaurantID, ok := h.restaurant(w, r, log)
	if !ok {
		return
	}

	var req struct {
		PreparationTime int `json:"preparationTime"`
	}
	body, err := web.ReadBody(w, r)
	if err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			web.DecodeFailed(w, web.ErrInvalidJSON)
			return
		}
	}
	if req.PreparationTime < 0 {
		web.Error(w, http.StatusBadRequest, "preparationTime must be a positive number of minutes")
		return
	}

	ko, err := h.service.Start(r.Context(), restaurantID, chi.URLParam(r, "orderId"), req.PreparationTime)
	if err != nil {
		h.respondError(w, log, err, "Failed to start order preparation")
		return
	}

	web.Message(w, http.StatusOK, "Order preparation started", web.Body{"order": ko})
}

func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkReady")
	defer finish()
	log := h.log(r)

	restaurantID, ok := h.restaurant(w, r, log)
	if !ok {
		return
	}

	ko, err := h.service.Ready(r.Context(), restaurantID, chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, log, err, "Failed to mark order as ready")
		return
	}

	web.Message(w, http.StatusOK, "Order marked as ready", web.Body{"order": ko})
}

// restaurant resolves the caller's restaurant, writing the response when
// there is none.
func (h *Handler) restaurant(w http.ResponseWriter, r *http.Request, log aqm.Logger) (string, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}

	restaurantID, err := h.service.RestaurantFor(r.Context(), id.UserID)
	if err != nil {
		h.respondError(w, log, err, "Failed to resolve restaurant")
		return "", false
	}
	return restaurantID, true
}

func (h *Handler) respondError(w http.ResponseWriter, log aqm.Logger, err error, fallback string) {
	var transition *TransitionError

	switch {
	case errors.Is(err, ErrNoRestaurant):
		web.Error(w, http.StatusNotFound, "No restaurant found for this user")

	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "Kitchen order not found")

	case errors.As(err, &transition):
		web.Error(w, http.StatusConflict, transition.Error())

	default:
		log.Error(fallback, "error", err)
		web.ErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
