package handler

import (
	"net/http"
	"strings"

	"home-cloud/internal/history"
	"home-cloud/internal/media/imaging"
	"home-cloud/internal/model"
	"home-cloud/internal/service"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

type MediaHandler struct {
	library *service.LibraryService
	records *history.Store
	thumbs  *imaging.Thumbnailer
	store   *storage.Storage
}

func NewMediaHandler(library *service.LibraryService, records *history.Store, thumbs *imaging.Thumbnailer, store *storage.Storage) *MediaHandler {
	return &MediaHandler{library: library, records: records, thumbs: thumbs, store: store}
}

func (h *MediaHandler) Library(w http.ResponseWriter, r *http.Request) {
	scan, err := h.library.Scan(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

func (h *MediaHandler) Photos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.library.Photos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, photos)
}

// Thumbnail serves a cached JPEG rendition of a photo, generating it on the
// first request for each size.
func (h *MediaHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.InvalidRequest("query parameter 'path' is required", "path"))
		return
	}

	srcAbs, err := h.store.Resolve(requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	size := parseIntOrDefault(r.URL.Query().Get("size"), imaging.DefaultSize)

	thumb, info, err := h.thumbs.Open(srcAbs, size)
	if err != nil {
		writeError(w, err)
		return
	}
	defer thumb.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), thumb)
}

func (h *MediaHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	entries, err := h.records.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.HistoryResponse{Entries: entries})
}
