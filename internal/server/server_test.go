// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/isp-backend/internal/config"
	"github.com/carterperez-dev/templates/isp-backend/internal/health"
)

func newTestServer() (*Server, *health.Handler) {
	hh := health.NewHandler(health.Dependency{
		Name:    "database",
		Checker: health.CheckFunc(func(context.Context) error { return nil }),
	})

	srv := New(Config{
		ServerConfig: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		HealthHandler: hh,
	})
	hh.RegisterRoutes(srv.Router())

	return srv, hh
}

func do(srv *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRoutingThroughWrappedHandler(t *testing.T) {
	srv, _ := newTestServer()

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz").Code)

	rec := do(srv, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"route not found","code":"NOT_FOUND"}}`, rec.Body.String())

	assert.Equal(t, http.StatusMethodNotAllowed, do(srv, http.MethodPost, "/healthz").Code)
}

func TestRecoversFromPanics(t *testing.T) {
	srv, _ := newTestServer()
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	})

	assert.Equal(t, http.StatusInternalServerError, do(srv, http.MethodGet, "/boom").Code)
}

func TestShutdownFailsLiveness(t *testing.T) {
	srv, _ := newTestServer()

	require.NoError(t, srv.Shutdown(context.Background(), 0))
	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodGet, "/livez").Code)
}
