package catalog

import (
	"net/http"

	"github.com/wytlabs/cardops/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler(baseHandler *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: baseHandler}
}

type tableResponse struct {
	Name    string            `json:"name"`
	Members []string          `json:"members"`
	Aliases map[string]string `json:"aliases"`
}

// GetCatalogs returns the canonical enum tables so the UI can render
// dropdowns that match what the importer will accept.
func (h *Handler) GetCatalogs(w http.ResponseWriter, r *http.Request) {
	tables := All()
	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, tableResponse{Name: t.Name, Members: t.Members, Aliases: t.Aliases})
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"catalogs": resp})
}
