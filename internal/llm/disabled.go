package llm

import (
	"context"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

// disabledClient is the Client used when LLM analysis is switched off by
// configuration. Analysis calls soft-fail with an explanatory detail. A
// deliberately disabled client is not a failing dependency, so health probes
// report healthy.
type disabledClient struct{}

// NewDisabled creates a Client for deployments that run without LLM analysis.
func NewDisabled() Client {
	return disabledClient{}
}

func (disabledClient) AnalyzeMetrics(ctx context.Context, payload *domain.MetricsPayload, focusAreas []string, effort domain.ReasoningEffort) domain.LLMOutcome {
	return domain.LLMOutcome{Success: false, ErrorDetail: "llm analysis is disabled"}
}

func (disabledClient) ContinueAnalysis(ctx context.Context, previousResponseID, followUpQuestion string) (domain.LLMOutcome, error) {
	return domain.LLMOutcome{}, apperrors.NewPreconditionError("llm analysis is disabled")
}

func (disabledClient) GetRecommendations(ctx context.Context, outcome domain.LLMOutcome, priority string) ([]domain.Recommendation, error) {
	return nil, apperrors.NewPreconditionError("llm analysis is disabled")
}

func (disabledClient) ExplainMetric(ctx context.Context, metricName, metricContext string) domain.LLMOutcome {
	return domain.LLMOutcome{Success: false, ErrorDetail: "llm analysis is disabled"}
}

func (disabledClient) HealthCheck(ctx context.Context) bool { return true }

func (disabledClient) ModelName() string { return "" }

func (disabledClient) Close() {}
