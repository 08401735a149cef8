package handler

import (
	"encoding/json"
	"net/http"

	"fitbook/internal/classes/service"
	"fitbook/internal/classes/validator"
	apperrors "fitbook/pkg/errors"
	httputil "fitbook/pkg/http"
	"fitbook/pkg/logger"
	"fitbook/pkg/timeslot"

	"github.com/julienschmidt/httprouter"
)

type RegistrationHandler struct {
	service service.RegistrationService
	logger  *logger.Logger
}

func NewRegistrationHandler(svc service.RegistrationService, log *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: svc,
		logger:  log,
	}
}

func (h *RegistrationHandler) RegisterRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodPost, "/api/v1/registrations", h.Register)
	router.HandlerFunc(http.MethodGet, "/api/v1/registrations", h.ListByMember)
	router.Handle(http.MethodPost, "/api/v1/registrations/id/:id/cancel", h.Cancel)
	router.Handle(http.MethodGet, "/api/v1/classes/id/:id/availability", h.Availability)
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validator.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	result, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.logger.Error("Failed to write registration response", "error", err)
	}
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	registrationID := params.ByName("id")

	var body struct {
		MemberID string `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	registration, err := h.service.Cancel(r.Context(), registrationID, body.MemberID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, registration); err != nil {
		h.logger.Error("Failed to write cancellation response", "error", err)
	}
}

func (h *RegistrationHandler) Availability(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	scheduleID := params.ByName("id")

	date := timeslot.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := timeslot.ParseDate(raw)
		if err != nil {
			h.writeError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		date = parsed
	}

	availability, err := h.service.Availability(r.Context(), scheduleID, date)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.logger.Error("Failed to write availability response", "error", err)
	}
}

func (h *RegistrationHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		h.writeError(w, apperrors.InvalidInput("member_id query parameter is required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	registrations, total, err := h.service.GetByMember(r.Context(), memberID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WritePaginated(w, registrations, total, limit, offset); err != nil {
		h.logger.Error("Failed to write registrations response", "error", err)
	}
}

func (h *RegistrationHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.logger.Error("Failed to write error response", "error", writeErr)
	}
}
