package analyzer

import (
	"math"
	"sort"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	apperrors "github.com/vihorki/metrics-analyzer/internal/errors"
)

// concern thresholds, matched against release-over-release changes.
const (
	reverseNavConcernPct = 5.0
	urlRevisitConcernPct = 5.0
	durationConcernSec   = 30.0
)

// CompareReleases computes deterministic deltas between the two releases of
// a payload. Deltas follow field declaration order; percentage change is nil
// when the baseline value is zero. Does not call any remote service.
func CompareReleases(payload *domain.MetricsPayload) (*domain.ComparisonResult, error) {
	if payload == nil || len(payload.Releases) != 2 {
		return nil, apperrors.NewPreconditionError("exactly 2 releases required for comparison")
	}

	oldRel := payload.Releases[0]
	newRel := payload.Releases[1]

	result := &domain.ComparisonResult{
		OldVersion: oldRel.ReleaseInfo.Version,
		NewVersion: newRel.ReleaseInfo.Version,
		Concerns:   []string{},
	}

	oldFields := countFields(oldRel)
	newFields := countFields(newRel)
	for i := range oldFields {
		result.Deltas = append(result.Deltas, metricDelta(oldFields[i].name, oldFields[i].value, newFields[i].value))
	}

	result.NavigationSignals = navigationSignals(oldRel, newRel)
	result.Concerns = detectConcerns(oldRel, newRel)
	result.ConcernLevel = concernLevel(len(result.Concerns))

	return result, nil
}

func metricDelta(field string, before, after float64) domain.MetricDelta {
	delta := domain.MetricDelta{
		Field:  field,
		Before: before,
		After:  after,
		Change: after - before,
	}
	if before != 0 {
		pct := (after - before) / before * 100
		delta.ChangePct = &pct
	}
	return delta
}

// navigationSignals ranks the navigation-pattern indicators by absolute
// change. Ties keep field declaration order.
func navigationSignals(oldRel, newRel domain.Release) []domain.NavigationSignal {
	if oldRel.NavigationPatterns == nil || newRel.NavigationPatterns == nil {
		return nil
	}
	oldNav := oldRel.NavigationPatterns
	newNav := newRel.NavigationPatterns

	signals := []domain.NavigationSignal{
		{
			Name:   "visits_with_reverse_nav",
			Before: float64(oldNav.ReverseNavigation.VisitsWithReverseNav),
			After:  float64(newNav.ReverseNavigation.VisitsWithReverseNav),
		},
		{
			Name:   "total_reverse_transitions",
			Before: float64(oldNav.ReverseNavigation.TotalReverseTransitions),
			After:  float64(newNav.ReverseNavigation.TotalReverseTransitions),
		},
		{
			Name:   "loop_patterns",
			Before: float64(len(oldNav.LoopPatterns)),
			After:  float64(len(newNav.LoopPatterns)),
		},
	}
	for i := range signals {
		signals[i].Change = signals[i].After - signals[i].Before
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return math.Abs(signals[i].Change) > math.Abs(signals[j].Change)
	})
	return signals
}

func detectConcerns(oldRel, newRel domain.Release) []string {
	concerns := []string{}

	if oldRel.NavigationPatterns != nil && newRel.NavigationPatterns != nil {
		reverseNavChange := newRel.NavigationPatterns.ReverseNavigation.Percentage -
			oldRel.NavigationPatterns.ReverseNavigation.Percentage
		if reverseNavChange > reverseNavConcernPct {
			concerns = append(concerns, "Significant increase in reverse navigation")
		}
		if len(newRel.NavigationPatterns.LoopPatterns) > len(oldRel.NavigationPatterns.LoopPatterns) {
			concerns = append(concerns, "More loop patterns detected")
		}
	}

	if oldRel.SessionComplexityMetrics != nil && newRel.SessionComplexityMetrics != nil {
		revisitChange := newRel.SessionComplexityMetrics.URLRevisitPatterns.Percentage -
			oldRel.SessionComplexityMetrics.URLRevisitPatterns.Percentage
		if revisitChange > urlRevisitConcernPct {
			concerns = append(concerns, "Increase in URL revisit patterns")
		}
	}

	durationChange := newRel.AggregateMetrics.Visits.AvgDurationSec -
		oldRel.AggregateMetrics.Visits.AvgDurationSec
	if durationChange > durationConcernSec {
		concerns = append(concerns, "Sessions taking longer (possible confusion)")
	}

	return concerns
}

func concernLevel(count int) domain.ConcernLevel {
	switch {
	case count >= 3:
		return domain.ConcernHigh
	case count >= 1:
		return domain.ConcernMedium
	default:
		return domain.ConcernLow
	}
}
