package handler

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"home-cloud/internal/model"
	"home-cloud/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError maps an error onto the wire envelope. Raw filesystem errors
// that slipped past the services still land on the right status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := model.APIError{
		Code:    apierror.CodeInternal,
		Message: "internal server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "no such file or directory"
	case errors.Is(err, fs.ErrExist):
		status = http.StatusConflict
		body.Code = apierror.CodeAlreadyExists
		body.Message = "an entry with this name already exists"
	case errors.Is(err, fs.ErrPermission):
		status = http.StatusForbidden
		body.Code = apierror.CodePermissionDenied
		body.Message = "operation not permitted on this entry"
	default:
		slog.Error("unclassified error reached the handler", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorBody{Error: body})
}

// decodeJSON reads a request body into dst, rejecting unknown wire shapes
// uniformly.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.InvalidRequest("malformed JSON body", err.Error())
	}

	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
