package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitDisabledGeneralBucket(t *testing.T) {
	t.Parallel()

	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/browse", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitThrottlesAuth(t *testing.T) {
	t.Parallel()

	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "TOO_MANY_REQUESTS")
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	t.Parallel()

	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	reqA := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	recA := httptest.NewRecorder()
	handler.ServeHTTP(recA, reqA)
	require.Equal(t, http.StatusOK, recA.Code)

	// A different client still has its own budget.
	reqB := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"
	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, reqB)
	require.Equal(t, http.StatusOK, recB.Code)
}

func TestRateLimitExemptsThumbnails(t *testing.T) {
	t.Parallel()

	handler := NewRateLimitMiddleware(1, 1).Handler(okHandler())

	burner := httptest.NewRecorder()
	handler.ServeHTTP(burner, httptest.NewRequest(http.MethodGet, "/api/v1/files/browse", nil))
	require.Equal(t, http.StatusOK, burner.Code)

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/media/thumbnail?path=%2Fa.jpg", nil))
		require.Equal(t, http.StatusOK, rec.Code, "thumbnail request %d", i)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	t.Parallel()

	mw := NewRateLimitMiddleware(-1, 0)
	assert.Equal(t, -1, mw.generalRPM)
	assert.Equal(t, 10, mw.authRPM)
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", extractClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", extractClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.2")
	assert.Equal(t, "203.0.113.9", extractClientIP(req))
}
