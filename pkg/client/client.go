package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

// Client is the API client for metrics-analyzer
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// AnalyzeOptions control the analysis workflow. Nil Submit/Analyze default
// to true on the server side.
type AnalyzeOptions struct {
	SubmitToAPI     *bool
	AnalyzeWithLLM  *bool
	FocusAreas      []string
	ReasoningEffort domain.ReasoningEffort
}

// Analyze runs the full analysis workflow for a metrics payload
func (c *Client) Analyze(payload *domain.MetricsPayload, opts *AnalyzeOptions) (*domain.AnalysisResult, error) {
	body := map[string]interface{}{
		"payload": payload,
	}
	if opts != nil {
		if opts.SubmitToAPI != nil {
			body["submit_to_api"] = *opts.SubmitToAPI
		}
		if opts.AnalyzeWithLLM != nil {
			body["analyze_with_llm"] = *opts.AnalyzeWithLLM
		}
		if len(opts.FocusAreas) > 0 {
			body["focus_areas"] = opts.FocusAreas
		}
		if opts.ReasoningEffort != "" {
			body["reasoning_effort"] = opts.ReasoningEffort
		}
	}

	var response struct {
		Data *domain.AnalysisResult `json:"data"`
	}
	if err := c.post("/api/v1/analyze", body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Compare computes release-over-release deltas for a two-release payload
func (c *Client) Compare(payload *domain.MetricsPayload) (*domain.ComparisonResult, error) {
	var response struct {
		Data *domain.ComparisonResult `json:"data"`
	}
	if err := c.post("/api/v1/compare", payload, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Recommendations extracts prioritized recommendations from a prior analysis result
func (c *Client) Recommendations(result *domain.AnalysisResult, priority string) ([]domain.Recommendation, error) {
	body := map[string]interface{}{
		"result":   result,
		"priority": priority,
	}

	var response struct {
		Data []domain.Recommendation `json:"data"`
	}
	if err := c.post("/api/v1/recommendations", body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Aggregate builds a metrics payload from stored visits and hits for two periods
func (c *Client) Aggregate(period1Start, period1End, period2Start, period2End time.Time, version1, version2, project string) (*domain.MetricsPayload, error) {
	params := url.Values{}
	params.Set("period1_start", period1Start.Format("2006-01-02"))
	params.Set("period1_end", period1End.Format("2006-01-02"))
	params.Set("period2_start", period2Start.Format("2006-01-02"))
	params.Set("period2_end", period2End.Format("2006-01-02"))
	if version1 != "" {
		params.Set("version1", version1)
	}
	if version2 != "" {
		params.Set("version2", version2)
	}
	if project != "" {
		params.Set("project", project)
	}

	var response struct {
		Data *domain.MetricsPayload `json:"data"`
	}
	if err := c.get("/api/v1/aggregate", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API and its upstream services are healthy. A
// degraded server answers 503 with the same body, so the per-service
// statuses are returned alongside the error.
func (c *Client) HealthCheck() (*domain.HealthStatus, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var response struct {
		Status   string               `json:"status"`
		Services *domain.HealthStatus `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	if response.Status != "ok" {
		return response.Services, fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return response.Services, nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func (c *Client) post(path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func decodeResponse(resp *http.Response, result interface{}) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
