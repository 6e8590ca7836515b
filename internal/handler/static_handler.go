package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"home-cloud/internal/storage"
	"home-cloud/internal/util"
	"home-cloud/pkg/apierror"
)

// StaticHandler serves media files straight from the sandbox, for poster and
// photo URLs embedded in library responses. Directories are never listed.
type StaticHandler struct {
	store *storage.Storage
}

func NewStaticHandler(store *storage.Storage) *StaticHandler {
	return &StaticHandler{store: store}
}

func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	// chi keeps wildcard captures escaped when the request path was.
	rel, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, apierror.InvalidPath(chi.URLParam(r, "*")))
		return
	}

	file, info, err := h.store.OpenForRead(rel)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeTypeMismatch {
			// Directory targets 404 like missing files; listings stay off.
			writeError(w, apierror.NotFound(rel))
			return
		}
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", util.ContentTypeFor(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
