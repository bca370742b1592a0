package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"railbook/pkg/client"
	httputil "railbook/pkg/http"
	"railbook/pkg/logger"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}

// Handler serves liveness and readiness. Liveness never touches a
// dependency; readiness pings Mongo and, when configured, Redis. A broken
// cache degrades readiness output but does not fail it.
type Handler struct {
	client *client.Client
	log    *logger.Logger
}

func NewHandler(c *client.Client, log *logger.Logger) *Handler {
	return &Handler{
		client: c,
		log:    log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.client.Mongo.Ping(ctx, nil); err != nil {
		h.log.Error("Database readiness check failed",
			"error", err,
			"path", r.URL.Path,
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "error",
		})
		return
	}

	resp := HealthResponse{
		Status:   "ready",
		Database: "ok",
	}
	if h.client.Redis != nil {
		if err := h.client.Redis.Ping(ctx).Err(); err != nil {
			h.log.Warn("Cache readiness check failed", "error", err)
			resp.Cache = "error"
		} else {
			resp.Cache = "ok"
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
