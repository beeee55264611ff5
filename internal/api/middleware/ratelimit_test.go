package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/walkplan/walkplan/internal/api/middleware"
)

func send(handler http.Handler, remoteAddr, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/planning/sessions/s1/calculate", http.NoBody)
	req.RemoteAddr = remoteAddr
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(handler, "10.0.0.1:12345", "").Code, "request %d", i+1)
	}

	rec := send(handler, "10.0.0.1:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send(handler, "10.0.0.2:12345", "").Code)
}

func TestRateLimitByOwner_SharesLimitAcrossAddresses(t *testing.T) {
	token := mintToken(t, "owner-1", 0)
	limited := middleware.RateLimitByOwner(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(okHandler())
	handler := middleware.Auth(newJWTService(t, "owner-1", 0))(limited)

	auth := "Bearer " + token
	assert.Equal(t, http.StatusOK, send(handler, "192.168.1.1:1000", auth).Code)
	assert.Equal(t, http.StatusOK, send(handler, "192.168.1.2:1000", auth).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(handler, "192.168.1.3:1000", auth).Code)
}

func TestRateLimitByOwner_FallsBackToIP(t *testing.T) {
	handler := middleware.RateLimitByOwner(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: time.Minute,
	})(okHandler())

	assert.Equal(t, http.StatusOK, send(handler, "172.16.0.1:1000", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(handler, "172.16.0.1:1000", "").Code)
	assert.Equal(t, http.StatusOK, send(handler, "172.16.0.2:1000", "").Code)
}

func TestRateLimitExceededResponse_Format(t *testing.T) {
	handler := middleware.RequestID(
		middleware.RateLimitByIP(middleware.RateLimitConfig{
			RequestLimit: 1,
			WindowLength: time.Minute,
		})(okHandler()),
	)

	send(handler, "203.0.113.1:12345", "")
	rec := send(handler, "203.0.113.1:12345", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "too-many-requests")
	assert.Contains(t, body, "Rate limit exceeded")
	assert.Contains(t, body, "/v1/planning/sessions/s1/calculate")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 10, middleware.ExpensiveRateLimit.RequestLimit)
	assert.Equal(t, 20, middleware.UploadRateLimit.RequestLimit)
	assert.Equal(t, 120, middleware.StandardRateLimit.RequestLimit)
	for _, cfg := range []middleware.RateLimitConfig{
		middleware.ExpensiveRateLimit,
		middleware.UploadRateLimit,
		middleware.StandardRateLimit,
	} {
		assert.Equal(t, time.Minute, cfg.WindowLength)
	}
}
