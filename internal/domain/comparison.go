package domain

// MetricDelta is the change of one aggregate metric field between the
// baseline and comparison releases. ChangePct is nil when the baseline value
// is zero.
type MetricDelta struct {
	Field     string   `json:"field"`
	Before    float64  `json:"before"`
	After     float64  `json:"after"`
	Change    float64  `json:"change"`
	ChangePct *float64 `json:"change_pct"`
}

// NavigationSignal is one navigation-pattern indicator ranked by magnitude
// of change between releases.
type NavigationSignal struct {
	Name   string  `json:"name"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Change float64 `json:"change"`
}

// ConcernLevel grades how worried a reader should be about a comparison.
type ConcernLevel string

const (
	ConcernLow    ConcernLevel = "low"
	ConcernMedium ConcernLevel = "medium"
	ConcernHigh   ConcernLevel = "high"
)

// ComparisonResult is the deterministic release-over-release comparison.
// Deltas preserve field declaration order; NavigationSignals are sorted by
// absolute change, ties kept in declaration order.
type ComparisonResult struct {
	OldVersion        string             `json:"old_version"`
	NewVersion        string             `json:"new_version"`
	Deltas            []MetricDelta      `json:"deltas"`
	NavigationSignals []NavigationSignal `json:"navigation_signals,omitempty"`
	Concerns          []string           `json:"concerns"`
	ConcernLevel      ConcernLevel       `json:"concern_level"`
}
