package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/validate"
	"github.com/appetiteclub/delivery/pkg/web"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminRole sees every payment in listings.
const AdminRole = "admin"

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
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.CreatePayment)
		r.Get("/", h.ListPayments)
		r.Get("/stats", h.GetStats)
		r.Get("/order/{orderId}", h.GetOrderPayment)
		r.Get("/{paymentId}", h.GetPayment)
		r.Patch("/{paymentId}", h.UpdatePayment)
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreatePayment")
	defer finish()
	log := h.log(r)

	var req CreatePaymentRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, log, err, "Failed to create payment")
		return
	}

	var userID string
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		userID = id.UserID
	}

	p, err := h.service.Create(r.Context(), req, userID)
	if err != nil {
		h.respondError(w, log, err, "Failed to create payment")
		return
	}

	web.Message(w, http.StatusCreated, "Payment recorded successfully", web.Body{"payment": p})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListPayments")
	defer finish()
	log := h.log(r)

	q := r.URL.Query()
	filter := ListFilter{
		Status: q.Get("status"),
		Method: q.Get("method"),
	}
	if filter.Status != "" && !paymentstatus.Valid(filter.Status) {
		web.Error(w, http.StatusBadRequest, "Invalid payment status")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			web.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok && id.Role != AdminRole {
		filter.UserID = id.UserID
	}

	payments, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve payments")
		return
	}

	web.Message(w, http.StatusOK, "Payments retrieved successfully", web.Body{
		"payments": payments,
		"total":    len(payments),
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStats")
	defer finish()
	log := h.log(r)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve payment statistics")
		return
	}

	web.Message(w, http.StatusOK, "Payment statistics retrieved successfully", web.Body{"stats": stats})
}

func (h *Handler) GetOrderPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderPayment")
	defer finish()
	log := h.log(r)

	p, err := h.service.GetByOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve payment")
		return
	}

	web.Message(w, http.StatusOK, "Payment retrieved successfully", web.Body{"payment": p})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPayment")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		h.respondError(w, log, ErrNotFound, "Failed to retrieve payment")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve payment")
		return
	}

	web.Message(w, http.StatusOK, "Payment retrieved successfully", web.Body{"payment": p})
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdatePayment")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "paymentId"))
	if err != nil {
		h.respondError(w, log, ErrNotFound, "Failed to update payment")
		return
	}

	var req UpdatePaymentRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, log, err, "Failed to update payment")
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, log, err, "Failed to update payment")
		return
	}

	web.Message(w, http.StatusOK, "Payment updated successfully", web.Body{"payment": p})
}

func (h *Handler) respondError(w http.ResponseWriter, log aqm.Logger, err error, fallback string) {
	var input *InputError
	var invalid validate.Errors
	var transition *TransitionError

	switch {
	case errors.As(err, &input):
		web.Error(w, http.StatusBadRequest, input.Message)

	case errors.As(err, &invalid):
		web.ErrorDetails(w, http.StatusBadRequest, "Validation failed", invalid)

	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "Payment not found")

	case errors.Is(err, ErrAlreadySettled):
		web.Error(w, http.StatusConflict, "Payment already completed for this order")

	case errors.As(err, &transition):
		web.Error(w, http.StatusConflict, transition.Error())

	default:
		log.Error(fallback, "error", err)
		web.ErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
