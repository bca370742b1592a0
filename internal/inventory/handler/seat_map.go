package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"railbook/internal/inventory/service"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
)

// SeatMapHandler serves the read-only occupancy summary customers browse
// before placing a hold. Responses may lag a few seconds behind writes when
// the Redis cache is enabled.
type SeatMapHandler struct {
	service service.InventoryService
	log     *logger.Logger
}

func NewSeatMapHandler(service service.InventoryService, log *logger.Logger) *SeatMapHandler {
	return &SeatMapHandler{
		service: service,
		log:     log,
	}
}

func (h *SeatMapHandler) SeatMap(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	seatMap, err := h.service.SeatMap(r.Context(), ps.ByName("segment_id"), ps.ByName("carriage_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, seatMap)
}

func (h *SeatMapHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/segments/:segment_id/carriages/:carriage_id/seat-map", h.SeatMap)
}
