package metricsapi

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
)

// Client submits metrics payloads to the remote metrics endpoint. Failures
// are returned as data, not errors: network problems and non-2xx responses
// produce a SubmissionOutcome with Success=false.
type Client interface {
	SendMetrics(ctx context.Context, payload *domain.MetricsPayload) domain.SubmissionOutcome
	HealthCheck(ctx context.Context) bool
	Close()
}

type httpMetricsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new metrics API client
func NewClient(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &httpMetricsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SendMetrics posts the payload to the /metrics endpoint
func (c *httpMetricsClient) SendMetrics(ctx context.Context, payload *domain.MetricsPayload) domain.SubmissionOutcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SubmissionOutcome{
			Success:     false,
			ErrorDetail: fmt.Sprintf("encode payload: %v", err),
		}
	}

	endpoint := c.baseURL + "/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.SubmissionOutcome{
			Success:     false,
			ErrorDetail: fmt.Sprintf("build request: %v", err),
		}
	}
	c.setHeaders(req)

	c.log.WithField("endpoint", endpoint).Info("Sending metrics to API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Error("Metrics submission failed")
		return domain.SubmissionOutcome{
			Success:     false,
			ErrorDetail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(detail),
		}).Error("Metrics API returned error status")
		return domain.SubmissionOutcome{
			Success:     false,
			StatusCode:  resp.StatusCode,
			ErrorDetail: strings.TrimSpace(string(detail)),
		}
	}

	c.log.WithField("status", resp.StatusCode).Info("Metrics submitted successfully")
	return domain.SubmissionOutcome{
		Success:    true,
		StatusCode: resp.StatusCode,
	}
}

// HealthCheck reports whether the /health endpoint answers with 200.
// Best-effort: any failure returns false.
func (c *httpMetricsClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("Metrics API health check failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Close releases the underlying connection pool
func (c *httpMetricsClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *httpMetricsClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
