package handler

import (
	"net/http"

	"dayslot/internal/bookings/service"
	apperrors "dayslot/pkg/errors"
	httputil "dayslot/pkg/http"
	"dayslot/pkg/logger"
	"dayslot/pkg/middleware"
	"dayslot/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	coordinator service.Coordinator
	queries     service.QueryService
	log         *logger.Logger
}

func NewBookingHandler(coordinator service.Coordinator, queries service.QueryService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		coordinator: coordinator,
		queries:     queries,
		log:         log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := h.principal(w, r, "Create")
	if !ok {
		return
	}

	var req model.CreateReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	view, err := h.coordinator.CreateReservation(r.Context(), principal, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := h.principal(w, r, "Cancel")
	if !ok {
		return
	}

	req := &model.CancelReservationRequest{
		ID:         ps.ByName("id"),
		OwnerEmail: ps.ByName("owner"),
	}

	if err := h.coordinator.CancelReservation(r.Context(), principal, req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := h.principal(w, r, "GetByID")
	if !ok {
		return
	}

	view, err := h.queries.GetReservation(r.Context(), principal, ps.ByName("id"), ps.ByName("owner"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := h.principal(w, r, "Search")
	if !ok {
		return
	}

	query := r.URL.Query()
	views, err := h.queries.QueryReservations(r.Context(), principal, &model.ReservationQuery{
		OwnerEmail: query.Get("owner_email"),
		FacilityID: query.Get("facility_id"),
		Date:       query.Get("date"),
	})
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteList(w, views, len(views)); err != nil {
		h.log.Error("failed to write list response", "handler", "Search", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := h.principal(w, r, "Availability")
	if !ok {
		return
	}

	query := r.URL.Query()
	rows, err := h.queries.Availability(r.Context(), principal, query.Get("facility_id"), query.Get("from"), query.Get("to"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteList(w, rows, len(rows)); err != nil {
		h.log.Error("failed to write list response", "handler", "Availability", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) Usage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := h.principal(w, r, "Usage")
	if !ok {
		return
	}

	query := r.URL.Query()
	usage, err := h.queries.WeeklyUsage(r.Context(), principal, query.Get("owner_email"), query.Get("date"))
	if err != nil {
		h.writeError(w, "Usage", err)
		return
	}

	if err := httputil.WriteSuccess(w, usage); err != nil {
		h.log.Error("failed to write success response", "handler", "Usage", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.Search)
	router.GET("/api/v1/bookings/:owner/:id", h.GetByID)
	router.DELETE("/api/v1/bookings/:owner/:id", h.Cancel)
	router.GET("/api/v1/availability", h.Availability)
	router.GET("/api/v1/usage", h.Usage)
}

func (h *BookingHandler) principal(w http.ResponseWriter, r *http.Request, handler string) (*model.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.writeError(w, handler, apperrors.Unauthorized("Missing authenticated principal"))
		return nil, false
	}
	return principal, true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if appErr := apperrors.AsAppError(err); appErr.StatusCode() >= http.StatusInternalServerError {
		h.log.Error("request failed", "handler", handler, "code", appErr.Code, "reason", appErr.Reason, "error", err)
	}
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
