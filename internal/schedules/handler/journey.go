package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"railbook/internal/schedules/service"
	apperrors "railbook/pkg/errors"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
)

type JourneyHandler struct {
	service service.MaterializerService
	log     *logger.Logger
}

func NewJourneyHandler(service service.MaterializerService, log *logger.Logger) *JourneyHandler {
	return &JourneyHandler{
		service: service,
		log:     log,
	}
}

type materializeRequest struct {
	TargetDate string `json:"target_date"`
}

// Materialize triggers an on-demand materialization run for one date,
// alongside the scheduled horizon worker. Safe to call repeatedly.
func (h *JourneyHandler) Materialize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req materializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("target_date must be formatted as YYYY-MM-DD"))
		return
	}

	report, err := h.service.MaterializeForDate(r.Context(), targetDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

func (h *JourneyHandler) JourneysForDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("date query parameter must be formatted as YYYY-MM-DD"))
		return
	}

	journeys, err := h.service.JourneysForDate(r.Context(), date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, journeys)
}

func (h *JourneyHandler) JourneySegments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	segments, err := h.service.JourneySegments(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, segments)
}

func (h *JourneyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/journeys/materialize", h.Materialize)
	router.GET("/journeys", h.JourneysForDate)
	router.GET("/journeys/:id/segments", h.JourneySegments)
}
