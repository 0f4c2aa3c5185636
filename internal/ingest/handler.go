package ingest

import (
	"io"
	"log/slog"
	"net/http"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/transport"
)

const maxUploadBytes = 32 << 20

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

// ImportEntries handles POST /api/v1/entries/import. The statement file is
// uploaded as the multipart field "file"; its kind is taken from the file
// name extension.
func (h *Handler) ImportEntries(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.HandleServiceError(w, internal.NewValidationError("invalid multipart upload", internal.ErrCodeUnsupportedFormat).WithCause(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationError("missing upload field \"file\"", internal.ErrCodeUnsupportedFormat).WithCause(err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.HandleServiceError(w, internal.NewInternalError("failed to read upload", err))
		return
	}

	result, err := h.service.IngestFile(r.Context(), Upload{
		Filename:   header.Filename,
		Content:    content,
		ActorID:    principal.UserID,
		AutoAccept: principal.Role.Privileged(),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// DownloadTemplate handles GET /api/v1/entries/import/template and serves
// a spreadsheet with the canonical columns plus one example row.
func (h *Handler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	content, err := BuildTemplate()
	if err != nil {
		h.HandleServiceError(w, internal.NewInternalError("failed to build import template", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expense-import-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.Logger.Error("failed to stream import template", "error", err)
	}
}
