package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promopilot/internal/core/port"
)

// handleSchedulePost queues one post. While the scheduler runs, a past
// target time executes immediately, so the returned post may already be
// posted or failed.
func (h *Handler) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	var req port.SchedulePostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	p, err := h.scheduler.Schedule(r.Context(), req)
	if err != nil {
		h.logger.Error("schedule post error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// Re-read so an immediate execution is reflected in the response.
	if cur, err := h.scheduler.ListPosts(r.Context()); err == nil {
		for i := range cur {
			if cur[i].ID == p.ID {
				p = &cur[i]
				break
			}
		}
	}
	h.writeJSON(w, http.StatusCreated, p)
}

// handleScheduleRecurring queues a batch of posts spaced one calendar
// interval apart. Sub-operations are independent; a failure does not roll
// back posts already queued.
func (h *Handler) handleScheduleRecurring(w http.ResponseWriter, r *http.Request) {
	var req port.RecurringPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	posts, err := h.scheduler.ScheduleRecurring(r.Context(), req)
	if err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "invalid interval or count", http.StatusBadRequest)
			return
		}
		h.logger.Error("schedule recurring error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, posts)
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.scheduler.ListPosts(r.Context())
	if err != nil {
		h.logger.Error("list posts error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, posts)
}

// handleUpdatePost replaces a pending post's content and target time.
// Unknown ids produce HTTP 404; non-pending posts HTTP 409.
func (h *Handler) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req port.SchedulePostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	p, err := h.scheduler.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "post is not pending", http.StatusConflict)
			return
		}
		h.logger.Error("update post error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// handleCancelPost deletes a pending post.
func (h *Handler) handleCancelPost(w http.ResponseWriter, r *http.Request) {
	err := h.scheduler.Cancel(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, port.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, port.ErrInvalidState):
		http.Error(w, "post is not pending", http.StatusConflict)
	default:
		h.logger.Error("cancel post error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// handleRetryPost resets a failed post and, while running, executes it
// immediately.
func (h *Handler) handleRetryPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.scheduler.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "post is not failed", http.StatusConflict)
			return
		}
		h.logger.Error("retry post error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Start(r.Context()); err != nil {
		if errors.Is(err, port.ErrInvalidState) {
			http.Error(w, "scheduler already running", http.StatusConflict)
			return
		}
		h.logger.Error("scheduler start error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"running": true})
}

func (h *Handler) handleSchedulerStop(w http.ResponseWriter, _ *http.Request) {
	h.scheduler.Stop()
	h.writeJSON(w, http.StatusOK, map[string]bool{"running": false})
}

func (h *Handler) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"running": h.scheduler.Running()})
}
