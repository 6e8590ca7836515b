package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds JSON API requests with http.TimeoutHandler. Streaming
// routes use StreamingTimeout instead, this one buffers the response.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
