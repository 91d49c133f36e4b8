package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/llm"
	"github.com/vihorki/metrics-analyzer/internal/metricsapi"
)

// Orchestrator drives the end-to-end analysis workflow: validate the
// payload, submit it to the metrics API, analyze it with the LLM and merge
// the outcomes. Expected failures are surfaced as result data, never as
// errors crossing this boundary.
type Orchestrator interface {
	AnalyzeAndSubmit(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
	CompareReleases(payload *domain.MetricsPayload) (*domain.ComparisonResult, error)
	GetDetailedRecommendations(ctx context.Context, result *domain.AnalysisResult, priority string) ([]domain.Recommendation, error)
	HealthCheck(ctx context.Context) domain.HealthStatus
	Close()
}

// Options configures an orchestrator.
type Options struct {
	DefaultReasoningEffort domain.ReasoningEffort
	HealthTimeout          time.Duration
}

type orchestrator struct {
	metrics       metricsapi.Client
	llm           llm.Client
	defaultEffort domain.ReasoningEffort
	healthTimeout time.Duration
	log           *logrus.Logger
}

// New creates a new orchestrator consuming the two clients
func New(metrics metricsapi.Client, llmClient llm.Client, opts Options, log *logrus.Logger) Orchestrator {
	effort := opts.DefaultReasoningEffort
	if !effort.Valid() {
		effort = domain.EffortMedium
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &orchestrator{
		metrics:       metrics,
		llm:           llmClient,
		defaultEffort: effort,
		healthTimeout: healthTimeout,
		log:           log,
	}
}

// AnalyzeAndSubmit runs the complete workflow for one request. Validation
// failure aborts before any network call. The submission and LLM steps are
// independent and run concurrently; one failing never prevents the other.
func (o *orchestrator) AnalyzeAndSubmit(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}

	o.log.Info("Validating metrics payload")
	result.Validation = ValidatePayload(&req.Payload, req.FocusAreas)
	if !result.Validation.Passed {
		o.log.WithField("errors", result.Validation.Errors).Error("Validation failed")
		return result, nil
	}
	o.log.Info("Validation passed")

	result.Project = req.Payload.Metadata.ProjectName
	result.Releases = []string{
		req.Payload.Releases[0].ReleaseInfo.Version,
		req.Payload.Releases[1].ReleaseInfo.Version,
	}

	effort := req.ReasoningEffort
	if !effort.Valid() {
		effort = o.defaultEffort
	}
	focusAreas := NormalizeFocusAreas(req.FocusAreas)

	var (
		submission domain.SubmissionOutcome
		analysis   domain.LLMOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	if req.SubmitToAPI {
		g.Go(func() error {
			o.log.Info("Submitting metrics to API")
			submission = o.metrics.SendMetrics(gctx, &req.Payload)
			if !submission.Success {
				o.log.WithField("error", submission.ErrorDetail).Warn("API submission failed")
			}
			return nil
		})
	}
	if req.AnalyzeWithLLM {
		g.Go(func() error {
			o.log.Info("Starting LLM analysis")
			analysis = o.llm.AnalyzeMetrics(gctx, &req.Payload, focusAreas, effort)
			if !analysis.Success {
				o.log.WithField("error", analysis.ErrorDetail).Warn("LLM analysis failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.SubmitToAPI {
		result.Submission = &submission
	}
	if req.AnalyzeWithLLM {
		result.LLMAnalysis = &analysis
	}

	result.Success = result.Validation.Passed &&
		(result.Submission == nil || result.Submission.Success) &&
		(result.LLMAnalysis == nil || result.LLMAnalysis.Success)

	return result, nil
}

// CompareReleases computes release-over-release deltas without any network
// call
func (o *orchestrator) CompareReleases(payload *domain.MetricsPayload) (*domain.ComparisonResult, error) {
	return CompareReleases(payload)
}

// GetDetailedRecommendations extracts prioritized recommendations from a
// prior analysis. Missing or failed LLM analysis yields an empty slice, not
// an error: recommendations are advisory.
func (o *orchestrator) GetDetailedRecommendations(ctx context.Context, result *domain.AnalysisResult, priority string) ([]domain.Recommendation, error) {
	if result == nil || result.LLMAnalysis == nil || !result.LLMAnalysis.Success {
		return []domain.Recommendation{}, nil
	}
	return o.llm.GetRecommendations(ctx, *result.LLMAnalysis, priority)
}

// HealthCheck probes both collaborators concurrently with individual
// timeouts so one slow backend cannot mask the other's status.
func (o *orchestrator) HealthCheck(ctx context.Context) domain.HealthStatus {
	var status domain.HealthStatus

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, o.healthTimeout)
		defer cancel()
		status.MetricsAPI = o.metrics.HealthCheck(probeCtx)
		return nil
	})
	g.Go(func() error {
		probeCtx, cancel := context.WithTimeout(gctx, o.healthTimeout)
		defer cancel()
		status.LLMAPI = o.llm.HealthCheck(probeCtx)
		return nil
	})
	_ = g.Wait()

	status.Overall = status.MetricsAPI && status.LLMAPI
	return status
}

// Close releases both clients
func (o *orchestrator) Close() {
	o.metrics.Close()
	o.llm.Close()
}
