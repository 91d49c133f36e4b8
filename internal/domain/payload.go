package domain

// Metadata describes where a metrics payload came from.
type Metadata struct {
	ProjectName string    `json:"project_name"`
	GeneratedAt Timestamp `json:"generated_at"`
	DataSource  string    `json:"data_source"`
}

// ReleaseInfo identifies one labeled, time-bounded slice of traffic data.
type ReleaseInfo struct {
	Version       string     `json:"version"`
	DataPeriod    DataPeriod `json:"data_period"`
	TotalVisits   int64      `json:"total_visits"`
	TotalHits     int64      `json:"total_hits"`
	UniqueClients int64      `json:"unique_clients"`
}

// VisitsMetrics holds aggregate visit-level counters for a release.
type VisitsMetrics struct {
	TotalCount        int64   `json:"total_count"`
	NewUsers          int64   `json:"new_users"`
	ReturningUsers    int64   `json:"returning_users"`
	AvgPageViews      float64 `json:"avg_page_views"`
	MedianPageViews   int64   `json:"median_page_views"`
	AvgDurationSec    float64 `json:"avg_duration_sec"`
	MedianDurationSec int64   `json:"median_duration_sec"`
	TotalDurationSec  int64   `json:"total_duration_sec"`
}

// PageViewsMetrics holds aggregate hit-level counters for a release.
type PageViewsMetrics struct {
	TotalCount int64 `json:"total_count"`
	UniqueURLs int64 `json:"unique_urls"`
}

// AggregateMetrics combines the visit and page-view aggregates.
type AggregateMetrics struct {
	Visits    VisitsMetrics    `json:"visits"`
	PageViews PageViewsMetrics `json:"page_views"`
}

// DistributionBucket is one bucket of a session distribution histogram.
type DistributionBucket struct {
	RangeMin   int64   `json:"range_min"`
	RangeMax   *int64  `json:"range_max,omitempty"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SessionDistribution groups sessions by page views and duration.
type SessionDistribution struct {
	ByPageViews   []DistributionBucket `json:"by_page_views"`
	ByDurationSec []DistributionBucket `json:"by_duration_sec"`
}

// PageTransition is one observed page-to-page transition.
type PageTransition struct {
	FromURL         string `json:"from_url"`
	ToURL           string `json:"to_url"`
	TransitionCount int64  `json:"transition_count"`
}

// LoopPattern is a repeated navigation sequence ending where it began.
type LoopPattern struct {
	Sequence    []string `json:"sequence"`
	Occurrences int64    `json:"occurrences"`
}

// ReverseNavigation summarizes backward navigation inside visits.
type ReverseNavigation struct {
	VisitsWithReverseNav    int64   `json:"visits_with_reverse_nav"`
	Percentage              float64 `json:"percentage"`
	TotalReverseTransitions int64   `json:"total_reverse_transitions"`
}

// NavigationPatterns captures wandering-session signals for a release.
type NavigationPatterns struct {
	ReverseNavigation ReverseNavigation `json:"reverse_navigation"`
	CommonTransitions []PageTransition  `json:"common_transitions"`
	LoopPatterns      []LoopPattern     `json:"loop_patterns"`
}

// HighInteractionSessions summarizes sessions with unusually many pages.
type HighInteractionSessions struct {
	SessionsWith10PlusPages int64   `json:"sessions_with_10plus_pages"`
	Percentage              float64 `json:"percentage"`
	AvgPages                float64 `json:"avg_pages"`
	AvgDurationSec          int64   `json:"avg_duration_sec"`
	AvgUniqueURLs           float64 `json:"avg_unique_urls"`
}

// URLRevisitPatterns summarizes sessions that reload the same URLs.
type URLRevisitPatterns struct {
	SessionsWithURLRevisits int64   `json:"sessions_with_url_revisits"`
	Percentage              float64 `json:"percentage"`
	AvgRevisitsPerSession   float64 `json:"avg_revisits_per_session"`
	AvgUniqueURLsRevisited  float64 `json:"avg_unique_urls_revisited"`
}

// SessionComplexityMetrics groups the session-complexity distributions.
type SessionComplexityMetrics struct {
	HighInteractionSessions HighInteractionSessions `json:"high_interaction_sessions"`
	URLRevisitPatterns      URLRevisitPatterns      `json:"url_revisit_patterns"`
}

// Release is the complete metrics set for one compared period.
// NavigationPatterns and SessionComplexityMetrics are optional attachments.
type Release struct {
	ReleaseInfo              ReleaseInfo               `json:"release_info"`
	AggregateMetrics         AggregateMetrics          `json:"aggregate_metrics"`
	SessionDistribution      *SessionDistribution      `json:"session_distribution,omitempty"`
	NavigationPatterns       *NavigationPatterns       `json:"navigation_patterns,omitempty"`
	SessionComplexityMetrics *SessionComplexityMetrics `json:"session_complexity_metrics,omitempty"`
}

// MetricsPayload is the full two-release payload submitted for analysis.
// Releases[0] is the baseline period, Releases[1] the comparison period.
type MetricsPayload struct {
	Metadata Metadata  `json:"metadata"`
	Releases []Release `json:"releases"`
}
