package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

// Client talks to an OpenAI-compatible Responses API. Remote failures are
// returned as LLMOutcome data with Success=false; only caller misuse (a
// continuation without a response id, recommendations from a failed
// analysis) surfaces as an error.
type Client interface {
	AnalyzeMetrics(ctx context.Context, payload *domain.MetricsPayload, focusAreas []string, effort domain.ReasoningEffort) domain.LLMOutcome
	ContinueAnalysis(ctx context.Context, previousResponseID, followUpQuestion string) (domain.LLMOutcome, error)
	GetRecommendations(ctx context.Context, outcome domain.LLMOutcome, priority string) ([]domain.Recommendation, error)
	ExplainMetric(ctx context.Context, metricName, metricContext string) domain.LLMOutcome
	HealthCheck(ctx context.Context) bool
	ModelName() string
	Close()
}

// Options configures a new Client.
type Options struct {
	BaseURL  string
	APIKey   string
	FolderID string
	Model    string
	Timeout  time.Duration
	Logger   *logrus.Logger
}

type httpLLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	pacer      *requestPacer
	log        *logrus.Logger
}

// NewClient creates a new LLM client. FolderID and APIKey are required.
func NewClient(opts Options) (Client, error) {
	if opts.FolderID == "" || opts.APIKey == "" {
		return nil, apperrors.NewPreconditionError("LLM folder ID and API key are required")
	}
	model := opts.Model
	if model == "" {
		model = "qwen3-235b-a22b-fp8"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &httpLLMClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   fmt.Sprintf("gpt://%s/%s/latest", opts.FolderID, model),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pacer: newRequestPacer(100 * time.Millisecond),
		log:   log,
	}, nil
}

type reasoningOptions struct {
	Effort string `json:"effort"`
}

type responsesRequest struct {
	Model              string            `json:"model"`
	Instructions       string            `json:"instructions,omitempty"`
	Input              string            `json:"input"`
	Reasoning          *reasoningOptions `json:"reasoning,omitempty"`
	Store              bool              `json:"store,omitempty"`
	PreviousResponseID string            `json:"previous_response_id,omitempty"`
}

type responsesResponse struct {
	ID         string `json:"id"`
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text returns the response text, preferring the flattened output_text field.
func (r *responsesResponse) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "" || c.Type == "output_text" || c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

// AnalyzeMetrics sends a two-release payload for analysis
func (c *httpLLMClient) AnalyzeMetrics(ctx context.Context, payload *domain.MetricsPayload, focusAreas []string, effort domain.ReasoningEffort) domain.LLMOutcome {
	prompt, err := BuildAnalysisPrompt(payload, focusAreas)
	if err != nil {
		return domain.LLMOutcome{Success: false, ErrorDetail: err.Error()}
	}
	if !effort.Valid() {
		effort = domain.EffortMedium
	}

	c.log.WithField("effort", effort).Info("Sending metrics to LLM for analysis")

	outcome := c.send(ctx, responsesRequest{
		Model:        c.model,
		Instructions: systemInstruction,
		Input:        prompt,
		Reasoning:    &reasoningOptions{Effort: string(effort)},
		Store:        true,
	})
	if outcome.Success {
		outcome.Model = domain.ModelInfo{Name: c.model, ReasoningEffort: effort}
		c.log.Info("LLM analysis completed")
	}
	return outcome
}

// ContinueAnalysis asks a follow-up question against a stored response.
// Calling without a previous response id is a precondition violation.
func (c *httpLLMClient) ContinueAnalysis(ctx context.Context, previousResponseID, followUpQuestion string) (domain.LLMOutcome, error) {
	if previousResponseID == "" {
		return domain.LLMOutcome{}, apperrors.NewPreconditionError("continuation requires a previous response id")
	}

	outcome := c.send(ctx, responsesRequest{
		Model:              c.model,
		PreviousResponseID: previousResponseID,
		Input:              followUpQuestion,
		Store:              true,
	})
	if outcome.Success {
		outcome.Model = domain.ModelInfo{Name: c.model}
	}
	return outcome, nil
}

// GetRecommendations extracts prioritized recommendations from an analysis.
// When the analysis already contains a recommendations section it is used
// directly; otherwise exactly one continuation call is made.
func (c *httpLLMClient) GetRecommendations(ctx context.Context, outcome domain.LLMOutcome, priority string) ([]domain.Recommendation, error) {
	if !outcome.Success {
		return nil, apperrors.NewPreconditionError("cannot generate recommendations from failed analysis")
	}
	if priority == "" {
		priority = "high"
	}

	if section, ok := outcome.Sections["recommendations"]; ok {
		return toRecommendations(ParseListItems(section), priority), nil
	}

	followUp := fmt.Sprintf(recommendationsPromptTemplate, priority)
	continued, err := c.ContinueAnalysis(ctx, outcome.ResponseID, followUp)
	if err != nil {
		return nil, err
	}
	if !continued.Success {
		return nil, apperrors.NewUpstreamError("recommendations request failed", fmt.Errorf("%s", continued.ErrorDetail))
	}
	return toRecommendations(ParseListItems(continued.Analysis), priority), nil
}

// ExplainMetric asks the model to explain a single metric
func (c *httpLLMClient) ExplainMetric(ctx context.Context, metricName, metricContext string) domain.LLMOutcome {
	contextText := ""
	if metricContext != "" {
		contextText = "\n\nContext: " + metricContext
	}
	return c.send(ctx, responsesRequest{
		Model:        c.model,
		Instructions: systemInstruction,
		Input:        fmt.Sprintf(metricExplanationPromptTemplate, metricName, contextText),
	})
}

// HealthCheck reports whether the client is usable. The Responses API has no
// cheap probe endpoint, so a configured client counts as healthy.
func (c *httpLLMClient) HealthCheck(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	return c.apiKey != "" && c.model != ""
}

// ModelName returns the fully qualified model identifier
func (c *httpLLMClient) ModelName() string {
	return c.model
}

// Close releases the underlying connection pool
func (c *httpLLMClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *httpLLMClient) send(ctx context.Context, reqBody responsesRequest) domain.LLMOutcome {
	if err := c.pacer.Wait(ctx); err != nil {
		return domain.LLMOutcome{Success: false, ErrorDetail: err.Error()}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return domain.LLMOutcome{Success: false, ErrorDetail: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return domain.LLMOutcome{Success: false, ErrorDetail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Error("LLM request failed")
		return domain.LLMOutcome{Success: false, ErrorDetail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.WithField("status", resp.StatusCode).Error("LLM API returned error status")
		return domain.LLMOutcome{
			Success:     false,
			ErrorDetail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	var parsed responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.LLMOutcome{Success: false, ErrorDetail: fmt.Sprintf("decode response: %v", err)}
	}

	text := parsed.text()
	return domain.LLMOutcome{
		Success:    true,
		Analysis:   text,
		Sections:   ParseSections(text),
		ResponseID: parsed.ID,
	}
}

func toRecommendations(items []string, priority string) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.Recommendation{Priority: priority, Text: item})
	}
	return recs
}
