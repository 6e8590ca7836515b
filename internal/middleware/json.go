package middleware

import (
	"encoding/json"
	"net/http"

	"home-cloud/internal/model"
)

// writeError emits the standard error envelope from inside middleware,
// before a handler ever runs.
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(model.ErrorBody{
		Error: model.APIError{Code: code, Message: message},
	})
}
