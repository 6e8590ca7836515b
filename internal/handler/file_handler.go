package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"home-cloud/internal/service"
	"home-cloud/internal/util"
	"home-cloud/pkg/apierror"
)

type FileHandler struct {
	uploads       *service.UploadService
	downloads     *service.DownloadService
	maxUploadSize int64
}

func NewFileHandler(uploads *service.UploadService, downloads *service.DownloadService, maxUploadSize int64) *FileHandler {
	return &FileHandler{uploads: uploads, downloads: downloads, maxUploadSize: maxUploadSize}
}

// Upload streams a multipart request into the destination directory. The
// ingest keeps running on client disconnect so half-received batches still
// settle into consistent per-item outcomes.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.InvalidRequest("multipart/form-data body required", err.Error()))
		return
	}

	result, err := h.uploads.Ingest(context.WithoutCancel(r.Context()), reader)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Download serves one file, or a zip stream of a directory when the target
// is a directory or archive=true is passed.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	requestedPath := strings.TrimSpace(r.URL.Query().Get("path"))
	if requestedPath == "" {
		writeError(w, apierror.InvalidRequest("query parameter 'path' is required", "path"))
		return
	}

	archive := strings.EqualFold(r.URL.Query().Get("archive"), "true")
	if archive {
		h.serveArchive(w, requestedPath)
		return
	}

	file, info, err := h.downloads.Open(requestedPath)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeTypeMismatch {
			// Directory target: fall back to a zip stream.
			h.serveArchive(w, requestedPath)
			return
		}
		writeError(w, err)
		return
	}
	defer file.Close()

	filename := info.Name()

	w.Header().Set("Content-Type", util.ContentTypeFor(filename))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

func (h *FileHandler) serveArchive(w http.ResponseWriter, requestedPath string) {
	directory, archiveName, err := h.downloads.ArchiveDir(requestedPath)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": archiveName}))
	if err := util.StreamZipFromDirectory(directory, w); err != nil {
		// Headers are already on the wire; log and cut the stream.
		slog.Error("zip stream aborted", "path", requestedPath, "error", err.Error())
	}
}
