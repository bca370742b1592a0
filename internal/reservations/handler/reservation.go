package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"railbook/internal/reservations/service"
	"railbook/internal/reservations/validator"
	apperrors "railbook/pkg/errors"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) CreateHold(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validator.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	hold, err := h.service.CreateHold(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, hold)
}

func (h *ReservationHandler) GetHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hold, err := h.service.GetHold(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, hold)
}

// BeginCommit claims the hold for payment processing. A refused claim is a
// conflict: the hold expired, was cancelled, or is already being processed.
func (h *ReservationHandler) BeginCommit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ok, err := h.service.BeginCommit(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !ok {
		httputil.WriteError(w, apperrors.Conflict("Hold is not active"))
		return
	}
	httputil.WriteSuccess(w, map[string]any{"status": "processing"})
}

func (h *ReservationHandler) Commit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ticketIDs, err := h.service.Commit(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]any{"ticket_ids": ticketIDs})
}

func (h *ReservationHandler) RollbackCommit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.RollbackCommit(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"status": "active"})
}

func (h *ReservationHandler) CancelHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.CancelHold(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"status": "cancelled"})
}

func (h *ReservationHandler) GetTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ticket, err := h.service.GetTicket(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, ticket)
}

func (h *ReservationHandler) CancelTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.CancelTicket(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"status": "cancelled"})
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/holds", h.CreateHold)
	router.GET("/holds/:id", h.GetHold)
	router.POST("/holds/:id/begin-commit", h.BeginCommit)
	router.POST("/holds/:id/commit", h.Commit)
	router.POST("/holds/:id/rollback", h.RollbackCommit)
	router.DELETE("/holds/:id", h.CancelHold)
	router.GET("/tickets/:id", h.GetTicket)
	router.DELETE("/tickets/:id", h.CancelTicket)
}
