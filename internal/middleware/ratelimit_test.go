package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAs(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	h := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := serveAs(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	h := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	require.Equal(t, http.StatusOK, serveAs(h, "10.0.0.2:1234").Code)

	rec := serveAs(h, "10.0.0.2:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusTooManyRequests), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	h := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	require.Equal(t, http.StatusOK, serveAs(h, "10.0.0.3:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, serveAs(h, "10.0.0.3:1234").Code)

	// A different client address gets its own bucket.
	assert.Equal(t, http.StatusOK, serveAs(h, "10.0.0.4:1234").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:5555"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
