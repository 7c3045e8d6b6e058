package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/pkg/http/middleware"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error {
		return DataResponse(c, map[string]string{"status": "ok"})
	})
	e.GET("/missing", func(c echo.Context) error {
		return NotFoundError("Stock not found")
	})
	e.GET("/down", func(c echo.Context) error {
		return ServiceUnavailableError("Failed to fetch stocks").WithError(errors.New("connection refused"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("nil map")
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestServer(opts ...ServerOption) *Server {
	return NewServer(logger.NewNop(), []Handler{routes{}}, opts...)
}

func do(t *testing.T, s *Server, path string, header ...string) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer()

	rec, _ := do(t, s, "/ok")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, s, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Stock not found", body.Error)
	assert.Empty(t, body.Details)

	rec, body = do(t, s, "/down")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Failed to fetch stocks", body.Error)
	assert.Equal(t, "connection refused", body.Details)

	rec, body = do(t, s, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, UnexpectedMessage, body.Error)
	assert.Equal(t, "nil map", body.Details)
}

func TestPanicIsCatchAll(t *testing.T) {
	rec, body := do(t, newTestServer(), "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, UnexpectedMessage, body.Error)
	assert.Contains(t, body.Details, "kaboom")
}

func TestLegacyStatusCodes(t *testing.T) {
	s := newTestServer(WithLegacyStatusCodes(true))

	for _, path := range []string{"/missing", "/down", "/boom", "/panic"} {
		rec, body := do(t, s, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, body.Error, path)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(WithCORSOrigins([]string{"http://localhost:3001"}))

	rec, _ := do(t, s, "/ok", echo.HeaderOrigin, "http://localhost:3001")
	assert.Equal(t, "http://localhost:3001", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	rec, _ = do(t, s, "/ok", echo.HeaderOrigin, "http://evil.example")
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimited(t *testing.T) {
	rec, _ := do(t, newTestServer(WithRateLimiter(denyAll{})), "/ok")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	rec, body := do(t, newTestServer(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, body.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(WithMetrics(middleware.NewHTTPMetrics(reg), "/metrics", reg))

	do(t, s, "/ok")
	do(t, s, "/missing")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/ok",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/missing",status="404"} 1`)
}

func TestHealthHandler(t *testing.T) {
	var failing error
	h := NewHealthHandler(func(ctx context.Context) error { return failing }, time.Second)
	s := NewServer(logger.NewNop(), []Handler{h}, WithLegacyStatusCodes(true))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	failing = errors.New("server selection timeout")
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "server selection timeout")
}
