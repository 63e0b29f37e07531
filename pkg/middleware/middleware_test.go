package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pizzashop/pkg/config"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/metrics"
	"github.com/wyfcoding/pizzashop/pkg/ratelimit"
	"github.com/wyfcoding/pizzashop/pkg/response"
)

const (
	testSecret = "test-secret"
	testIssuer = "pizzashop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID, role string, ttl time.Duration) string {
	t.Helper()
	s, err := SignToken(testSecret, testIssuer, userID, role, ttl)
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.Use(GinRequestID())
	auth := r.Group("/", JWTAuth(testSecret, testIssuer))
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    UserID(c),
			"admin":      IsAdmin(c),
			"request_id": logger.RequestIDFromContext(c.Request.Context()),
		})
	})
	auth.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	rec := do(authRouter(), "/me", token(t, "user-1", "", time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, false, body["admin"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["request_id"])
}

func TestJWTAuthRejects(t *testing.T) {
	wrongSecret, err := SignToken("other", testIssuer, "user-1", "", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := SignToken(testSecret, "someone-else", "user-1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bearer string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"expired", token(t, "user-1", "", -time.Minute)},
		{"wrong secret", wrongSecret},
		{"wrong issuer", wrongIssuer},
		{"no subject", token(t, "", "admin", time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(authRouter(), "/me", tt.bearer)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, errorx.CodeUnauthorized, body.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := authRouter()

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, "user-1", "", time.Hour)).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, "boss", RoleAdmin, time.Hour)).Code)
}

func TestRecoveryRendersJSON(t *testing.T) {
	r := gin.New()
	r.Use(GinRequestID(), GinRecoveryMiddleware())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := do(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errorx.CodeInternal, body.Code)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := gin.New()
	r.Use(GinRequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context())) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ ratelimit.Limit) (*ratelimit.Result, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return nil, s.err
	}
	return &ratelimit.Result{Allowed: s.allowed, RetryAfter: 500 * time.Millisecond}, nil
}

func limitedRouter(l ratelimit.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(l, config.RateLimitConfig{Enabled: true, QPS: 5, Burst: 10}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitBlocks(t *testing.T) {
	l := &stubLimiter{allowed: false}
	rec := do(limitedRouter(l), "/", "")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Len(t, l.keys, 1)
	assert.Contains(t, l.keys[0], "ratelimit:ip:")
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitDisabledSkipsLimiter(t *testing.T) {
	l := &stubLimiter{allowed: false}
	r := gin.New()
	r.Use(RateLimitMiddleware(l, config.RateLimitConfig{Enabled: false, QPS: 5, Burst: 10}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := do(r, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, l.keys)
}

func TestRateLimitFailsOpen(t *testing.T) {
	rec := do(limitedRouter(&stubLimiter{err: errors.New("redis down")}), "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New("mw")
	r := gin.New()
	r.Use(GinMetricsMiddleware(m))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "/orders/123", "")
	do(r, "/orders/456", "")

	assert.Equal(t, 2, testCount(m, "GET", "/orders/:id", "200"))
}

func testCount(m *metrics.Metrics, method, path, status string) int {
	return int(testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(method, path, status)))
}
