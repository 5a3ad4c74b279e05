package restaurant

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/appetiteclub/delivery/pkg/auth"
	"github.com/appetiteclub/delivery/pkg/validate"
	"github.com/appetiteclub/delivery/pkg/web"
	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminRole may manage any restaurant.
const AdminRole = "admin"

type HandlerDeps struct {
	Restaurants RestaurantRepo
	Items       MenuItemRepo
}

type Handler struct {
	restaurants RestaurantRepo
	items       MenuItemRepo
	logger      aqm.Logger
	config      *aqm.Config
	tlm         *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		restaurants: deps.Restaurants,
		items:       deps.Items,
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.ListRestaurants)
		r.Post("/", h.CreateRestaurant)
		r.Get("/stats", h.GetStats)
		r.Get("/me", h.GetMyRestaurant)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetRestaurant)
			r.Patch("/", h.UpdateRestaurant)
			r.Get("/status", h.GetStatus)
			r.Patch("/status", h.SetStatus)

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", h.ListMenu)
				r.Post("/", h.AddMenuItem)
				r.Post("/validate", h.ValidateMenu)
				r.Get("/{itemId}", h.GetMenuItem)
				r.Patch("/{itemId}", h.UpdateMenuItem)
				r.Delete("/{itemId}", h.DeleteMenuItem)
				r.Patch("/{itemId}/availability", h.SetAvailability)
			})
		})
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

// Restaurant handlers

func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListRestaurants")
	defer finish()
	log := h.log(r)

	q := r.URL.Query()
	filter := ListFilter{Cuisine: q.Get("cuisine"), Limit: MaxListLimit}
	if raw := q.Get("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	if raw := q.Get("minRating"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinRating = &v
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < MaxListLimit {
			filter.Limit = n
		}
	}

	restaurants, err := h.restaurants.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve restaurants")
		return
	}
	if restaurants == nil {
		restaurants = []*Restaurant{}
	}

	web.Message(w, http.StatusOK, "Restaurants retrieved successfully", web.Body{
		"restaurants": restaurants,
		"total":       len(restaurants),
	})
}

func (h *Handler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateRestaurant")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateRestaurantRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		log.Debug("restaurant validation failed", "error", err)
		h.respondError(w, log, err, "Failed to create restaurant")
		return
	}

	existing, err := h.restaurants.GetByOwner(ctx, id.UserID)
	if err != nil {
		h.respondError(w, log, err, "Failed to create restaurant")
		return
	}
	if existing != nil {
		h.respondError(w, log, ErrOwnerExists, "Failed to create restaurant")
		return
	}

	restaurant := req.Restaurant(id.UserID)
	restaurant.BeforeCreate()
	if err := h.restaurants.Create(ctx, restaurant); err != nil {
		h.respondError(w, log, err, "Failed to create restaurant")
		return
	}

	log.Info("Restaurant created", "restaurant_id", restaurant.ID.String(), "owner_id", id.UserID)
	web.Message(w, http.StatusCreated, "Restaurant created successfully", web.Body{"restaurant": restaurant})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStats")
	defer finish()

	stats, err := h.restaurants.Stats(r.Context())
	if err != nil {
		h.respondError(w, h.log(r), err, "Failed to retrieve restaurant statistics")
		return
	}

	web.Message(w, http.StatusOK, "Restaurant statistics retrieved successfully", web.Body{"stats": stats})
}

func (h *Handler) GetMyRestaurant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMyRestaurant")
	defer finish()
	log := h.log(r)

	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	restaurant, err := h.restaurants.GetByOwner(r.Context(), id.UserID)
	if err != nil {
		h.respondError(w, log, err, "Failed to retrieve restaurant")
		return
	}
	if restaurant == nil {
		web.Error(w, http.StatusNotFound, "No restaurant found for this user")
		return
	}

	web.Message(w, http.StatusOK, "Restaurant retrieved successfully", web.Body{"restaurant": restaurant})
}

func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetRestaurant")
	defer finish()

	restaurant, ok := h.loadRestaurant(w, r, "Failed to retrieve restaurant")
	if !ok {
		return
	}

	web.Message(w, http.StatusOK, "Restaurant retrieved successfully", web.Body{"restaurant": restaurant})
}

func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateRestaurant")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to update restaurant")
	if !ok {
		return
	}

	var req UpdateRestaurantRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, log, err, "Failed to update restaurant")
		return
	}

	req.Apply(restaurant)
	restaurant.BeforeUpdate()
	if err := h.restaurants.Save(r.Context(), restaurant); err != nil {
		h.respondError(w, log, err, "Failed to update restaurant")
		return
	}

	web.Message(w, http.StatusOK, "Restaurant updated successfully", web.Body{"restaurant": restaurant})
}

// GetStatus answers whether the restaurant accepts orders right now.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStatus")
	defer finish()

	restaurant, ok := h.loadRestaurant(w, r, "Failed to check restaurant status")
	if !ok {
		return
	}

	web.JSON(w, http.StatusOK, restaurant.Availability())
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetStatus")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to update restaurant status")
	if !ok {
		return
	}

	body, err := web.DecodeObject(w, r)
	if err != nil {
		web.DecodeFailed(w, err)
		return
	}
	open, err := BoolField(body, "isOpen")
	if err != nil {
		h.respondError(w, log, err, "Failed to update restaurant status")
		return
	}

	found, err := h.restaurants.SetOpen(r.Context(), restaurant.ID, open)
	if err != nil {
		h.respondError(w, log, err, "Failed to update restaurant status")
		return
	}
	if !found {
		h.respondError(w, log, ErrNotFound, "Failed to update restaurant status")
		return
	}

	log.Info("Restaurant status changed", "restaurant_id", restaurant.ID.String(), "is_open", open)
	web.Message(w, http.StatusOK, "Restaurant status updated successfully", web.Body{
		"restaurantId": restaurant.ID.String(),
		"isOpen":       open,
	})
}

// Menu handlers

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenu")
	defer finish()

	restaurant, ok := h.loadRestaurant(w, r, "Failed to retrieve menu")
	if !ok {
		return
	}

	filter := MenuFilter{Category: r.URL.Query().Get("category")}
	if raw := r.URL.Query().Get("isAvailable"); raw != "" {
		available := raw == "true"
		filter.IsAvailable = &available
	}

	items, err := h.items.List(r.Context(), restaurant.ID, filter)
	if err != nil {
		h.respondError(w, h.log(r), err, "Failed to retrieve menu")
		return
	}
	if items == nil {
		items = []*MenuItem{}
	}

	web.Message(w, http.StatusOK, "Menu retrieved successfully", web.Body{
		"restaurantId": restaurant.ID.String(),
		"items":        items,
		"total":        len(items),
	})
}

func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddMenuItem")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to add menu item")
	if !ok {
		return
	}

	body, err := web.DecodeObject(w, r)
	if err != nil {
		web.DecodeFailed(w, err)
		return
	}
	in, err := ParseMenuItem(body)
	if err != nil {
		log.Debug("menu item validation failed", "error", err)
		h.respondError(w, log, err, "Failed to add menu item")
		return
	}

	item := in.MenuItem(restaurant.ID)
	item.BeforeCreate()
	if err := h.items.Create(r.Context(), item); err != nil {
		h.respondError(w, log, err, "Failed to add menu item")
		return
	}

	log.Info("Menu item added", "restaurant_id", restaurant.ID.String(), "item_id", item.ID.String())
	web.Message(w, http.StatusCreated, "Menu item added successfully", web.Body{"item": item})
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()

	restaurantID, itemID, ok := h.menuItemParams(w, r)
	if !ok {
		return
	}

	item, err := h.items.Get(r.Context(), restaurantID, itemID)
	if err != nil {
		h.respondError(w, h.log(r), err, "Failed to get menu item")
		return
	}
	if item == nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	web.Message(w, http.StatusOK, "Menu item retrieved successfully", web.Body{"item": item})
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to update menu item")
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	var req UpdateMenuItemRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, log, err, "Failed to update menu item")
		return
	}

	item, err := h.items.Get(r.Context(), restaurant.ID, itemID)
	if err != nil {
		h.respondError(w, log, err, "Failed to update menu item")
		return
	}
	if item == nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	req.Apply(item)
	item.BeforeUpdate()
	if err := h.items.Save(r.Context(), item); err != nil {
		h.respondError(w, log, err, "Failed to update menu item")
		return
	}

	web.Message(w, http.StatusOK, "Menu item updated successfully", web.Body{"item": item})
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to delete menu item")
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	deleted, err := h.items.Delete(r.Context(), restaurant.ID, itemID)
	if err != nil {
		h.respondError(w, log, err, "Failed to delete menu item")
		return
	}
	if !deleted {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	log.Info("Menu item deleted", "restaurant_id", restaurant.ID.String(), "item_id", itemID.String())
	web.Message(w, http.StatusOK, "Menu item deleted successfully", nil)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetAvailability")
	defer finish()
	log := h.log(r)

	restaurant, ok := h.ownedRestaurant(w, r, "Failed to toggle availability")
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	body, err := web.DecodeObject(w, r)
	if err != nil {
		web.DecodeFailed(w, err)
		return
	}
	available, err := BoolField(body, "isAvailable")
	if err != nil {
		h.respondError(w, log, err, "Failed to toggle availability")
		return
	}

	found, err := h.items.SetAvailability(r.Context(), restaurant.ID, itemID, available)
	if err != nil {
		h.respondError(w, log, err, "Failed to toggle availability")
		return
	}
	if !found {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return
	}

	msg := "Menu item disabled successfully"
	if available {
		msg = "Menu item enabled successfully"
	}
	web.Message(w, http.StatusOK, msg, web.Body{
		"itemId":      itemID.String(),
		"isAvailable": available,
	})
}

// ValidateMenu prices a prospective order against the menu.
func (h *Handler) ValidateMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ValidateMenu")
	defer finish()
	log := h.log(r)

	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Restaurant not found")
		return
	}

	var req struct {
		Items []ItemRef `json:"items"`
	}
	if err := web.DecodeJSON(w, r, &req); err != nil {
		web.DecodeFailed(w, err)
		return
	}
	if len(req.Items) == 0 {
		web.Error(w, http.StatusBadRequest, "Items must be a non-empty array")
		return
	}

	result, err := ValidateOrderItems(r.Context(), h.items, restaurantID, req.Items)
	if err != nil {
		h.respondError(w, log, err, "Failed to validate menu items")
		return
	}

	log.Debug("menu validated", "restaurant_id", restaurantID.String(), "valid", result.Valid, "errors", len(result.Errors))
	web.JSON(w, http.StatusOK, result)
}

// loadRestaurant resolves the {id} path parameter. It writes the response
// and returns false when the restaurant cannot be served.
func (h *Handler) loadRestaurant(w http.ResponseWriter, r *http.Request, fallback string) (*Restaurant, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Restaurant not found")
		return nil, false
	}

	restaurant, err := h.restaurants.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, h.log(r), err, fallback)
		return nil, false
	}
	if restaurant == nil {
		web.Error(w, http.StatusNotFound, "Restaurant not found")
		return nil, false
	}
	return restaurant, true
}

// ownedRestaurant is loadRestaurant restricted to the owner or an admin.
func (h *Handler) ownedRestaurant(w http.ResponseWriter, r *http.Request, fallback string) (*Restaurant, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		web.Error(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	restaurant, ok := h.loadRestaurant(w, r, fallback)
	if !ok {
		return nil, false
	}
	if restaurant.OwnerID != id.UserID && id.Role != AdminRole {
		web.Error(w, http.StatusForbidden, "You do not manage this restaurant")
		return nil, false
	}
	return restaurant, true
}

func (h *Handler) menuItemParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		web.Error(w, http.StatusNotFound, "Menu item not found")
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, itemID, true
}

func (h *Handler) respondError(w http.ResponseWriter, log aqm.Logger, err error, fallback string) {
	var input *InputError
	var invalid validate.Errors

	switch {
	case errors.As(err, &input):
		web.Error(w, http.StatusBadRequest, input.Message)

	case errors.As(err, &invalid):
		web.ErrorDetails(w, http.StatusBadRequest, "Validation failed", invalid)

	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "Restaurant not found")

	case errors.Is(err, ErrMenuItemNotFound):
		web.Error(w, http.StatusNotFound, "Menu item not found")

	case errors.Is(err, ErrOwnerExists):
		web.Error(w, http.StatusConflict, "Restaurant already exists for this user")

	default:
		log.Error(fallback, "error", err)
		web.ErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}
