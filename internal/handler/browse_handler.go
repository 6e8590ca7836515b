package handler

import (
	"net/http"

	"home-cloud/internal/service"
)

type BrowseHandler struct {
	service *service.BrowseService
}

func NewBrowseHandler(service *service.BrowseService) *BrowseHandler {
	return &BrowseHandler{service: service}
}

// Browse lists one directory level. An empty path means the media root.
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}
