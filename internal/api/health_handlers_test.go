package api

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinewise/dinewise-server/internal/recommend"
	"github.com/dinewise/dinewise-server/internal/store/sqlite"
)

func TestHealthCheck_Success(t *testing.T) {
	ts, _ := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 4, health.Restaurants)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["analytics"].Status)
	assert.Equal(t, "healthy", health.Components["summarizer"].Status)
	assert.Equal(t, "0 entries", health.Components["cache"].Message)
}

func TestHealthCheck_StoreDown(t *testing.T) {
	ts, _ := setupTestServer(t, Options{})
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy", health.Components["database"].Status)
	assert.Zero(t, health.Restaurants)
}

func TestHealthCheck_OpenCircuitDegrades(t *testing.T) {
	ts, _ := setupTestServer(t, Options{})
	ts.services.Summarizer = stubState("open")

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "circuit open", health.Components["summarizer"].Message)
}

func TestHealthCheck_DisabledComponentsStayHealthy(t *testing.T) {
	logger := testLogger()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	server := NewServer(Services{Store: st, Recommender: recommend.New(st, logger)}, Options{}, logger)
	resp := humatest.Wrap(t, server.API()).Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "no restaurants loaded", health.Components["database"].Message)
	for _, name := range []string{"analytics", "summarizer", "cache"} {
		assert.Equal(t, "disabled", health.Components[name].Status, name)
	}
}
