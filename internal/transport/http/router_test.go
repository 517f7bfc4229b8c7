package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"npopulse/internal/services"
)

type stubHealth struct {
	status services.HealthStatus
}

func (s *stubHealth) Check(_ context.Context) services.HealthStatus {
	return s.status
}

func newRouterServer() *httptest.Server {
	router := NewRouter(RouterDeps{
		Dashboard:  &stubDashboard{page: &services.OrgPage{Limit: 50}},
		Operations: &stubOperations{state: completedRun("run-router")},
		Health: &stubHealth{status: services.HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   "test",
		}},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP\n"))
		}),
		Logger: testLogger(),
	})
	return httptest.NewServer(router)
}

func TestRouter_Health(t *testing.T) {
	srv := newRouterServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status services.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
}

func TestRouter_OrganizationsMounted(t *testing.T) {
	srv := newRouterServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/organizations")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	srv := newRouterServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_NotFoundIsProblemJSON(t *testing.T) {
	srv := newRouterServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestRouter_EmptyBodyStartsRun(t *testing.T) {
	srv := newRouterServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/operations", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
