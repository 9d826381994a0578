package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
)

func newTestRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	v, err := auth.NewVerifier(auth.VerifierConfig{Secret: "router-test-secret"})
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()
	// Only the auth gate is exercised for protected routes; their handlers are never reached.
	return RegisterRoutes(logger, Handlers{Auth: auth.NewMiddleware(v, nil, logger)}), logs
}

func TestHealth(t *testing.T) {
	h, logs := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raas-api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "lumina-raas", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"])
	assert.NoError(t, err)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 27)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/raas-api/health", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(RequestIDHeader))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestRouter(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/raas-api/outcomes"},
		{http.MethodPost, "/raas-api/agent/execute"},
		{http.MethodPost, "/raas-api/payments/checkout"},
		{http.MethodGet, "/raas-api/analytics/export.csv"},
		{http.MethodGet, "/raas-api/admin/stats"},
		{http.MethodPut, "/raas-api/admin/users/0b7c1a1e-6f35-4a53-9d3b-0a9b5a0e2f10/role"},
	}
	for _, rt := range routes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestUnknownMethodIsRejected(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/raas-api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
