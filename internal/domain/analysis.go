package domain

import "time"

// ReasoningEffort is the opaque quality/cost knob forwarded to the LLM
// service. The orchestrator never interprets it beyond forwarding.
type ReasoningEffort string

const (
	EffortLow    ReasoningEffort = "low"
	EffortMedium ReasoningEffort = "medium"
	EffortHigh   ReasoningEffort = "high"
)

// Valid reports whether the effort is one of the three recognized levels.
func (e ReasoningEffort) Valid() bool {
	return e == EffortLow || e == EffortMedium || e == EffortHigh
}

// AnalysisRequest wraps a payload with the options controlling one
// orchestrator invocation.
type AnalysisRequest struct {
	Payload         MetricsPayload  `json:"payload"`
	SubmitToAPI     bool            `json:"submit_to_api"`
	AnalyzeWithLLM  bool            `json:"analyze_with_llm"`
	FocusAreas      []string        `json:"focus_areas,omitempty"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitempty"`
}

// ValidationReport is the outcome of payload validation. Passed is true iff
// Errors is empty; Warnings never affect Passed.
type ValidationReport struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// SubmissionOutcome is the soft-fail result of one metrics API submission.
type SubmissionOutcome struct {
	Success     bool   `json:"success"`
	StatusCode  int    `json:"status_code,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ModelInfo identifies the model that produced an analysis.
type ModelInfo struct {
	Name            string          `json:"name"`
	ReasoningEffort ReasoningEffort `json:"reasoning_effort,omitempty"`
}

// LLMOutcome is the soft-fail result of one LLM call. ResponseID carries the
// continuation identifier for follow-up questions.
type LLMOutcome struct {
	Success     bool              `json:"success"`
	Analysis    string            `json:"analysis,omitempty"`
	Sections    map[string]string `json:"sections,omitempty"`
	ResponseID  string            `json:"response_id,omitempty"`
	Model       ModelInfo         `json:"model,omitempty"`
	ErrorDetail string            `json:"error_detail,omitempty"`
}

// AnalysisResult is the orchestrator's unified output. Submission and
// LLMAnalysis are nil when the corresponding step was not requested; Success
// is true only when every requested step succeeded and validation passed.
type AnalysisResult struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Project     string             `json:"project,omitempty"`
	Releases    []string           `json:"releases,omitempty"`
	Validation  ValidationReport   `json:"validation"`
	Submission  *SubmissionOutcome `json:"submission_result,omitempty"`
	LLMAnalysis *LLMOutcome        `json:"llm_analysis,omitempty"`
	Success     bool               `json:"success"`
}

// Recommendation is one prioritized, actionable suggestion extracted from an
// analysis.
type Recommendation struct {
	Priority string `json:"priority"`
	Text     string `json:"text"`
}

// HealthStatus aggregates the two collaborators' health probes.
type HealthStatus struct {
	MetricsAPI bool `json:"metrics_api"`
	LLMAPI     bool `json:"llm_api"`
	Overall    bool `json:"overall"`
}
