package handler

import (
	"net/http"

	"home-cloud/internal/model"
)

// Health reports process liveness. It deliberately checks nothing else so
// the probe stays cheap and never flaps with the database.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}
