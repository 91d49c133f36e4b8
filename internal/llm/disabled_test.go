package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

func TestDisabledClientAnalyzeSoftFails(t *testing.T) {
	client := NewDisabled()
	defer client.Close()

	outcome := client.AnalyzeMetrics(context.Background(), analysisPayload(), nil, domain.EffortMedium)

	assert.False(t, outcome.Success)
	assert.Equal(t, "llm analysis is disabled", outcome.ErrorDetail)
}

func TestDisabledClientContinuation(t *testing.T) {
	client := NewDisabled()

	_, err := client.ContinueAnalysis(context.Background(), "resp-1", "question")
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))

	_, err = client.GetRecommendations(context.Background(), domain.LLMOutcome{Success: true}, "high")
	require.Error(t, err)
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestDisabledClientHealthy(t *testing.T) {
	client := NewDisabled()

	// switched off by configuration is not a failing dependency
	assert.True(t, client.HealthCheck(context.Background()))
	assert.Empty(t, client.ModelName())
}
