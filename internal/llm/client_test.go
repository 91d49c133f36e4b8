package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

func analysisPayload() *domain.MetricsPayload {
	start1 := domain.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end1 := domain.NewTimestamp(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	start2 := domain.NewTimestamp(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	end2 := domain.NewTimestamp(time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC))

	return &domain.MetricsPayload{
		Metadata: domain.Metadata{ProjectName: "Shop"},
		Releases: []domain.Release{
			{ReleaseInfo: domain.ReleaseInfo{
				Version:     "1.0.0",
				DataPeriod:  domain.DataPeriod{Start: start1, End: end1},
				TotalVisits: 1500,
			}},
			{ReleaseInfo: domain.ReleaseInfo{
				Version:     "1.1.0",
				DataPeriod:  domain.DataPeriod{Start: start2, End: end2},
				TotalVisits: 1800,
			}},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		FolderID: "folder-1",
		Model:    "test-model",
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{APIKey: "key"})
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))

	_, err = NewClient(Options{FolderID: "folder"})
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestModelName(t *testing.T) {
	client, err := NewClient(Options{APIKey: "key", FolderID: "folder-1"})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "gpt://folder-1/qwen3-235b-a22b-fp8/latest", client.ModelName())
}

func TestAnalyzeMetrics(t *testing.T) {
	var captured responsesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "resp-42",
			"output_text": "## Summary\nVisits grew.\n\n## Recommendations\n1. Keep going",
		})
	})

	outcome := client.AnalyzeMetrics(context.Background(), analysisPayload(), []string{"navigation"}, domain.EffortHigh)

	assert.True(t, outcome.Success)
	assert.Equal(t, "resp-42", outcome.ResponseID)
	assert.Contains(t, outcome.Analysis, "Visits grew.")
	assert.Equal(t, "Visits grew.", outcome.Sections["summary"])
	assert.Equal(t, "gpt://folder-1/test-model/latest", outcome.Model.Name)
	assert.Equal(t, domain.EffortHigh, outcome.Model.ReasoningEffort)

	assert.Equal(t, "gpt://folder-1/test-model/latest", captured.Model)
	assert.NotEmpty(t, captured.Instructions)
	assert.Contains(t, captured.Input, "1.0.0")
	assert.Contains(t, captured.Input, "navigation")
	require.NotNil(t, captured.Reasoning)
	assert.Equal(t, "high", captured.Reasoning.Effort)
	assert.True(t, captured.Store)
}

func TestAnalyzeMetricsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	outcome := client.AnalyzeMetrics(context.Background(), analysisPayload(), nil, domain.EffortMedium)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.ErrorDetail, "status 503")
	assert.Contains(t, outcome.ErrorDetail, "model overloaded")
}

func TestAnalyzeMetricsBadPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid payload")
	})

	outcome := client.AnalyzeMetrics(context.Background(), &domain.MetricsPayload{}, nil, domain.EffortMedium)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.ErrorDetail, "exactly 2 releases")
}

func TestAnalyzeMetricsOutputFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "resp-1",
			"output": []map[string]interface{}{
				{"content": []map[string]interface{}{
					{"type": "output_text", "text": "part one "},
					{"type": "output_text", "text": "part two"},
				}},
			},
		})
	})

	outcome := client.AnalyzeMetrics(context.Background(), analysisPayload(), nil, domain.EffortMedium)

	assert.True(t, outcome.Success)
	assert.Equal(t, "part one part two", outcome.Analysis)
}

func TestContinueAnalysis(t *testing.T) {
	var captured responsesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "resp-2",
			"output_text": "follow-up answer",
		})
	})

	outcome, err := client.ContinueAnalysis(context.Background(), "resp-1", "why did visits grow?")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "resp-2", outcome.ResponseID)
	assert.Equal(t, "resp-1", captured.PreviousResponseID)
	assert.Equal(t, "why did visits grow?", captured.Input)
}

func TestContinueAnalysisRequiresResponseID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a response id")
	})

	_, err := client.ContinueAnalysis(context.Background(), "", "question")
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestGetRecommendationsFromEmbeddedSection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected when the section is embedded")
	})

	outcome := domain.LLMOutcome{
		Success: true,
		Sections: map[string]string{
			"recommendations": "1. Simplify navigation\n2. Add search",
		},
	}

	recs, err := client.GetRecommendations(context.Background(), outcome, "high")
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, domain.Recommendation{Priority: "high", Text: "Simplify navigation"}, recs[0])
	assert.Equal(t, domain.Recommendation{Priority: "high", Text: "Add search"}, recs[1])
}

func TestGetRecommendationsViaContinuation(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "resp-3",
			"output_text": "- Reduce form fields\n- Shorten the funnel",
		})
	})

	outcome := domain.LLMOutcome{Success: true, ResponseID: "resp-1"}

	recs, err := client.GetRecommendations(context.Background(), outcome, "")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	require.Len(t, recs, 2)
	assert.Equal(t, "high", recs[0].Priority)
	assert.Equal(t, "Reduce form fields", recs[0].Text)
}

func TestGetRecommendationsFromFailedAnalysis(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a failed analysis")
	})

	_, err := client.GetRecommendations(context.Background(), domain.LLMOutcome{Success: false}, "high")
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestHealthCheckConfigured(t *testing.T) {
	client, err := NewClient(Options{APIKey: "key", FolderID: "folder-1"})
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.HealthCheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, client.HealthCheck(ctx))
}
