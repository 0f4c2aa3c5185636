package entry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
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

// CreateEntry handles POST /api/v1/entries.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.service.CreateEntry(r.Context(), dto, principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}

// GetEntry handles GET /api/v1/entries/{id}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	e, err := h.service.GetEntry(r.Context(), id, principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

// SearchEntries handles GET /api/v1/entries.
func (h *Handler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filters, err := filtersFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.service.SearchEntries(r.Context(), filters, principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// UpdateEntryStatus handles PATCH /api/v1/entries/{id}/status.
func (h *Handler) UpdateEntryStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateEntryStatus(r.Context(), id, dto, principal); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry handles DELETE /api/v1/entries/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if err := h.service.DeleteEntry(r.Context(), id, principal); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportEntries handles GET /api/v1/entries/export.
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filters, err := filtersFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	content, err := h.service.ExportEntries(r.Context(), filters, principal)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expense-entries.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.Logger.Error("failed to stream export", "error", err)
	}
}

func filtersFromQuery(r *http.Request) (SearchFilters, error) {
	q := r.URL.Query()
	filters := SearchFilters{
		CardNumber:      q.Get("card_number"),
		Status:          q.Get("status"),
		EntryStatus:     q.Get("entry_status"),
		DuplicateStatus: q.Get("duplicate_status"),
		Query:           q.Get("q"),
	}

	if raw := q.Get("business_unit"); raw != "" {
		for _, bu := range strings.Split(raw, ",") {
			if bu = strings.TrimSpace(bu); bu != "" {
				filters.BusinessUnits = append(filters.BusinessUnits, bu)
			}
		}
	}
	if raw := q.Get("shared"); raw != "" {
		shared := raw == "true" || raw == "yes" || raw == "1"
		filters.Shared = &shared
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filters, internal.NewValidationError("limit must be an integer", internal.ErrCodeValidationFailed)
		}
		filters.Limit = limit
	}

	var err error
	if filters.DateFrom, err = queryDate(q.Get("date_from")); err != nil {
		return filters, err
	}
	if filters.DateTo, err = queryDate(q.Get("date_to")); err != nil {
		return filters, err
	}
	if filters.DisabledFrom, err = queryDate(q.Get("disabled_from")); err != nil {
		return filters, err
	}
	if filters.DisabledTo, err = queryDate(q.Get("disabled_to")); err != nil {
		return filters, err
	}
	if filters.AmountMin, err = queryDecimal(q.Get("amount_min")); err != nil {
		return filters, err
	}
	if filters.AmountMax, err = queryDecimal(q.Get("amount_max")); err != nil {
		return filters, err
	}

	return filters, nil
}

func queryDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, internal.NewValidationError("date filters must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return &t, nil
}

func queryDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, internal.NewValidationError("amount filters must be numeric", internal.ErrCodeValidationFailed)
	}
	return &d, nil
}
