package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Efan404/slack-test-app/internal/handlers"
)

func TestServerRegistersHandlers(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, ":0", handlers.NewPingHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServerHealthHead(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, ":0", handlers.NewPingHandler(nil))

	req := httptest.NewRequest(http.MethodHead, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerSkipsNilHandlers(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, ":0", nil, handlers.NewPingHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
