package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promopilot/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter for
// HTTP. It drives the campaign engine and the post scheduler through
// their ports and holds a logger for structured logging. Routes are
// registered on a chi.Router for convenient method handling.
type Handler struct {
	engine    port.CampaignUseCase
	scheduler port.PostScheduler
	logger    *slog.Logger
	router    chi.Router
}

// NewHandler creates a handler with all routes configured. The returned
// Handler registers handlers for each endpoint on a new chi.Router.
func NewHandler(engine port.CampaignUseCase, scheduler port.PostScheduler, logger *slog.Logger) *Handler {
	h := &Handler{engine: engine, scheduler: scheduler, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.handleCreateCampaign)
			r.Get("/", h.handleListCampaigns)
			r.Get("/{id}", h.handleGetCampaign)
			r.Post("/{id}/start", h.handleStartCampaign)
			r.Post("/{id}/end", h.handleEndCampaign)
			r.Post("/{id}/enter", h.handleEnterCampaign)
			r.Post("/{id}/draw", h.handleRunDraw)
			r.Get("/{id}/stats", h.handleCampaignStats)
		})
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.handleSchedulePost)
			r.Post("/recurring", h.handleScheduleRecurring)
			r.Get("/", h.handleListPosts)
			r.Put("/{id}", h.handleUpdatePost)
			r.Delete("/{id}", h.handleCancelPost)
			r.Post("/{id}/retry", h.handleRetryPost)
		})
		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start", h.handleSchedulerStart)
			r.Post("/stop", h.handleSchedulerStop)
			r.Get("/", h.handleSchedulerStatus)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

// writeJSON encodes v with the given status. Encoding errors are logged;
// the status line has already been sent by then.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
