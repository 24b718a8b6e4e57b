package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/mcp"
	"github.com/thebtf/refineloop/internal/registry"
	"github.com/thebtf/refineloop/internal/sse"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mcpServer := mcp.NewServer(registry.New(), fsys.OS{}, sse.NewHub(), "test")
	s, err := New(mcpServer, sse.NewHub(), false)
	require.NoError(t, err)
	return s
}

func TestHandleHealthz_ReturnsOK(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestTokenAuth_BlocksWithoutToken(t *testing.T) {
	mcpServer := mcp.NewServer(registry.New(), fsys.OS{}, sse.NewHub(), "test")
	s, err := New(mcpServer, sse.NewHub(), true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/sessions/s1/events", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuth_AllowsHealthzWithoutToken(t *testing.T) {
	mcpServer := mcp.NewServer(registry.New(), fsys.OS{}, sse.NewHub(), "test")
	s, err := New(mcpServer, sse.NewHub(), true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMCPEndpoint_RejectsGet(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMessageEndpoint_RejectsUnknownSession(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/message?sessionId=does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
