package renewal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(service *Service, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		service:     service,
	}
}

// Job endpoints are mounted behind the shared-secret middleware; the
// scheduler is the only caller. Success is an empty 204, failure a
// generic 500 with the real cause only in the logs.

func (h *Handler) RunReminderJob(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "renewal-reminders", h.service.RunReminderJob)
}

func (h *Handler) RunAutoCancelJob(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "auto-cancel-notices", h.service.RunAutoCancelJob)
}

func (h *Handler) RunRolloverJob(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "rollover", h.service.RunRolloverJob)
}

func (h *Handler) RunRateRefreshJob(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "rate-refresh", h.service.RunRateRefreshJob)
}

func (h *Handler) RunRetentionJob(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, "retention-cleanup", h.service.RunRetentionJob)
}

func (h *Handler) runJob(w http.ResponseWriter, r *http.Request, name string, job func(context.Context) error) {
	if err := job(r.Context()); err != nil {
		h.Logger.Error("scheduled job failed", "job", name, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "job failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateLog handles POST /api/v1/renewal-logs.
func (h *Handler) CreateLog(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateLogDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, err := h.service.CreateLog(r.Context(), dto, principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, log)
}

// ListLogs handles GET /api/v1/entries/{id}/renewal-logs.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	logs, err := h.service.ListLogs(r.Context(), entryID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"renewal_logs": logs,
		"count":        len(logs),
	})
}
