package handler

import (
	"encoding/json"
	"net/http"

	"fitbook/internal/trainers/service"
	"fitbook/internal/trainers/validator"
	apperrors "fitbook/pkg/errors"
	httputil "fitbook/pkg/http"
	"fitbook/pkg/logger"
	"fitbook/pkg/timeslot"

	"github.com/julienschmidt/httprouter"
)

type SessionHandler struct {
	service service.SessionService
	logger  *logger.Logger
}

func NewSessionHandler(svc service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.Handle(http.MethodGet, "/api/v1/trainers/id/:id/slots", h.Browse)
	router.HandlerFunc(http.MethodPost, "/api/v1/sessions", h.Request)
	router.HandlerFunc(http.MethodGet, "/api/v1/sessions", h.ListByMember)
	router.Handle(http.MethodPost, "/api/v1/sessions/id/:id/confirm", h.Confirm)
	router.Handle(http.MethodPost, "/api/v1/sessions/id/:id/reject", h.Reject)
}

func (h *SessionHandler) Browse(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	trainerID := params.ByName("id")

	date := timeslot.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := timeslot.ParseDate(raw)
		if err != nil {
			h.writeError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		date = parsed
	}

	slots, err := h.service.Browse(r.Context(), trainerID, date)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.logger.Error("Failed to write slots response", "error", err)
	}
}

func (h *SessionHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req validator.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	result, err := h.service.Request(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.logger.Error("Failed to write session response", "error", err)
	}
}

func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sessionID := params.ByName("id")

	var body struct {
		TrainerID string `json:"trainer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	session, err := h.service.Confirm(r.Context(), sessionID, body.TrainerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.logger.Error("Failed to write confirmation response", "error", err)
	}
}

func (h *SessionHandler) Reject(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sessionID := params.ByName("id")

	var body struct {
		TrainerID string `json:"trainer_id"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid JSON in request body"))
		return
	}

	session, err := h.service.Reject(r.Context(), sessionID, body.TrainerID, body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.logger.Error("Failed to write rejection response", "error", err)
	}
}

func (h *SessionHandler) ListByMember(w http.ResponseWriter, r *http.Request) {
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

	sessions, total, err := h.service.GetByMember(r.Context(), memberID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WritePaginated(w, sessions, total, limit, offset); err != nil {
		h.logger.Error("Failed to write sessions response", "error", err)
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.logger.Error("Failed to write error response", "error", writeErr)
	}
}
