package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promopilot/internal/core/port"
)

// handleCreateCampaign creates a campaign in draft status from a JSON
// body. Parsing and validation errors produce HTTP 400; internal errors
// produce HTTP 500. On success it returns the campaign with HTTP 201.
func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req port.CreateCampaignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := h.engine.CreateCampaign(r.Context(), req)
	if err != nil {
		if !req.Type.Valid() {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create campaign error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.engine.ListCampaigns(r.Context())
	if err != nil {
		h.logger.Error("list campaigns error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, campaigns)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("get campaign error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// handleStartCampaign transitions draft -> active. Unknown ids produce
// HTTP 404 and non-draft campaigns HTTP 409.
func (h *Handler) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.StartCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "campaign is not in draft status", http.StatusConflict)
			return
		}
		h.logger.Error("start campaign error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// handleEndCampaign transitions any status to ended; ending twice is a
// safe no-op.
func (h *Handler) handleEndCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.EndCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("end campaign error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// handleEnterCampaign evaluates one entry. A rejected entry is a normal
// outcome: the response is HTTP 200 with accepted=false, mirroring the
// engine's sentinel semantics rather than an error status.
func (h *Handler) handleEnterCampaign(w http.ResponseWriter, r *http.Request) {
	var user port.EntryUser
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if user.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	res, err := h.engine.EnterCampaign(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		h.logger.Error("enter campaign error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// handleRunDraw performs the deferred batch draw. Drawing a non-lottery
// campaign or drawing twice produces HTTP 409.
func (h *Handler) handleRunDraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	results, err := h.engine.RunDraw(r.Context(), id)
	if err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "campaign cannot be drawn", http.StatusConflict)
			return
		}
		h.logger.Error("run draw error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		// Distinguish an unknown campaign from a draw with no winners.
		if c, err := h.engine.GetCampaign(r.Context(), id); err != nil || c == nil {
			http.NotFound(w, r)
			return
		}
		results = []port.DrawResult{}
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("campaign stats error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
