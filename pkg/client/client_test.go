package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"services": domain.HealthStatus{MetricsAPI: true, LLMAPI: true, Overall: true},
		})
	})

	services, err := client.HealthCheck()
	require.NoError(t, err)
	require.NotNil(t, services)
	assert.True(t, services.Overall)
}

func TestHealthCheckDegraded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "degraded",
			"services": domain.HealthStatus{MetricsAPI: true, LLMAPI: false, Overall: false},
		})
	})

	services, err := client.HealthCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")

	// per-service statuses are still available on a 503
	require.NotNil(t, services)
	assert.True(t, services.MetricsAPI)
	assert.False(t, services.LLMAPI)
	assert.False(t, services.Overall)
}

func TestHealthCheckUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})

	services, err := client.HealthCheck()
	require.Error(t, err)
	assert.Nil(t, services)
	assert.Contains(t, err.Error(), "gateway exploded")
}

func TestCompare(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/compare", r.URL.Path)

		var payload domain.MetricsPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": domain.ComparisonResult{
				OldVersion:   payload.Releases[0].ReleaseInfo.Version,
				NewVersion:   payload.Releases[1].ReleaseInfo.Version,
				ConcernLevel: domain.ConcernLow,
			},
		})
	})

	result, err := client.Compare(&domain.MetricsPayload{
		Releases: []domain.Release{
			{ReleaseInfo: domain.ReleaseInfo{Version: "1.0.0"}},
			{ReleaseInfo: domain.ReleaseInfo{Version: "1.1.0"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", result.OldVersion)
	assert.Equal(t, "1.1.0", result.NewVersion)
}

func TestCompareServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"PRECONDITION_FAILED"}}`, http.StatusUnprocessableEntity)
	})

	_, err := client.Compare(&domain.MetricsPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRECONDITION_FAILED")
}
