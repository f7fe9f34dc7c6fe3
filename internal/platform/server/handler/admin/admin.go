package admin

import (
	"QuorumKV/internal/application/service"
	"net/http"
)

type AdminHandler struct {
	compactService *service.CompactService
}

func NewAdminHandler(compactService *service.CompactService) *AdminHandler {
	return &AdminHandler{
		compactService: compactService,
	}
}

// Compact blocks until the local compaction has finished.
func (h *AdminHandler) Compact(w http.ResponseWriter, r *http.Request) {
	if err := h.compactService.Execute(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
