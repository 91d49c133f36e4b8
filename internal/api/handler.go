package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vihorki/metrics-analyzer/internal/aggregator"
	"github.com/vihorki/metrics-analyzer/internal/analyzer"
	"github.com/vihorki/metrics-analyzer/internal/cache"
	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

// Options carries the configured workflow defaults applied when a request
// omits its step flags.
type Options struct {
	SubmitToAPI    bool
	AnalyzeWithLLM bool
}

// Handler handles API requests
type Handler struct {
	orchestrator analyzer.Orchestrator
	aggregator   aggregator.Aggregator
	cache        *cache.Cache
	opts         Options
	log          *logrus.Logger
}

// NewHandler creates a new API handler
func NewHandler(orch analyzer.Orchestrator, agg aggregator.Aggregator, c *cache.Cache, opts Options, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		orchestrator: orch,
		aggregator:   agg,
		cache:        c,
		opts:         opts,
		log:          log,
	}
}

// analyzeRequest is the POST /analyze body. Submit and analyze fall back to
// the configured defaults when omitted.
type analyzeRequest struct {
	Payload         domain.MetricsPayload  `json:"payload"`
	SubmitToAPI     *bool                  `json:"submit_to_api"`
	AnalyzeWithLLM  *bool                  `json:"analyze_with_llm"`
	FocusAreas      []string               `json:"focus_areas"`
	ReasoningEffort domain.ReasoningEffort `json:"reasoning_effort"`
}

// Analyze runs the full analysis workflow
// POST /api/v1/analyze
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	submitToAPI := h.opts.SubmitToAPI
	if req.SubmitToAPI != nil {
		submitToAPI = *req.SubmitToAPI
	}
	analyzeWithLLM := h.opts.AnalyzeWithLLM
	if req.AnalyzeWithLLM != nil {
		analyzeWithLLM = *req.AnalyzeWithLLM
	}

	result, err := h.orchestrator.AnalyzeAndSubmit(c.Request.Context(), domain.AnalysisRequest{
		Payload:         req.Payload,
		SubmitToAPI:     submitToAPI,
		AnalyzeWithLLM:  analyzeWithLLM,
		FocusAreas:      req.FocusAreas,
		ReasoningEffort: req.ReasoningEffort,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// Compare computes release-over-release deltas
// POST /api/v1/compare
func (h *Handler) Compare(c *gin.Context) {
	var payload domain.MetricsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	cacheKey := compareCacheKey(&payload)
	var cached domain.ComparisonResult
	if h.cache.Get(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{
			"data":   cached,
			"cached": true,
		})
		return
	}

	result, err := h.orchestrator.CompareReleases(&payload)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cache.Set(c.Request.Context(), cacheKey, result)

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// recommendationsRequest is the POST /recommendations body.
type recommendationsRequest struct {
	Result   domain.AnalysisResult `json:"result"`
	Priority string                `json:"priority"`
}

// Recommendations extracts prioritized recommendations from a prior analysis
// POST /api/v1/recommendations
func (h *Handler) Recommendations(c *gin.Context) {
	var req recommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	recs, err := h.orchestrator.GetDetailedRecommendations(c.Request.Context(), &req.Result, req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": recs,
	})
}

// Aggregate builds a payload from stored visits/hits for two periods
// GET /api/v1/aggregate
func (h *Handler) Aggregate(c *gin.Context) {
	if h.aggregator == nil {
		respondError(c, apperrors.NewPreconditionError("no storage configured for aggregation"))
		return
	}

	req := aggregator.AggregateRequest{
		ProjectName: c.Query("project"),
		Version1:    c.DefaultQuery("version1", "v1.0.0"),
		Version2:    c.DefaultQuery("version2", "v2.0.0"),
	}

	var err error
	if req.Period1Start, err = parseDateQuery(c, "period1_start"); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	if req.Period1End, err = parseDateQuery(c, "period1_end"); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	if req.Period2Start, err = parseDateQuery(c, "period2_start"); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	if req.Period2End, err = parseDateQuery(c, "period2_end"); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	payload, err := h.aggregator.AggregateForPeriods(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": payload,
	})
}

// HealthCheck returns the health status of the API and its collaborators
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	health := h.orchestrator.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if !health.Overall {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   overallStatus(health.Overall),
		"services": health,
	})
}

func overallStatus(healthy bool) string {
	if healthy {
		return "ok"
	}
	return "degraded"
}

// parseDateQuery parses a required RFC3339 or date-only query parameter
func parseDateQuery(c *gin.Context, key string) (time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s: invalid date %q", key, value)
}

func compareCacheKey(payload *domain.MetricsPayload) string {
	if len(payload.Releases) != 2 {
		return "compare:invalid"
	}
	return fmt.Sprintf("compare:%s:%s:%s",
		payload.Metadata.ProjectName,
		payload.Releases[0].ReleaseInfo.Version,
		payload.Releases[1].ReleaseInfo.Version,
	)
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodePrecondition:
			status = http.StatusUnprocessableEntity
		case apperrors.ErrCodeUpstream:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
