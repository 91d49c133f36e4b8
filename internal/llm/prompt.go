package llm

import (
	"fmt"
	"strings"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

// BuildAnalysisPrompt renders a two-release payload into the analysis prompt.
// Optional navigation and complexity blocks are included only when the
// release carries them.
func BuildAnalysisPrompt(payload *domain.MetricsPayload, focusAreas []string) (string, error) {
	if payload == nil || len(payload.Releases) != 2 {
		return "", fmt.Errorf("payload must contain exactly 2 releases")
	}

	oldRel := payload.Releases[0]
	newRel := payload.Releases[1]

	visitsChange := newRel.ReleaseInfo.TotalVisits - oldRel.ReleaseInfo.TotalVisits
	visitsChangePct := 0.0
	if oldRel.ReleaseInfo.TotalVisits > 0 {
		visitsChangePct = float64(visitsChange) / float64(oldRel.ReleaseInfo.TotalVisits) * 100
	}
	durationChange := newRel.AggregateMetrics.Visits.AvgDurationSec - oldRel.AggregateMetrics.Visits.AvgDurationSec
	pagesChange := newRel.AggregateMetrics.Visits.AvgPageViews - oldRel.AggregateMetrics.Visits.AvgPageViews

	return fmt.Sprintf(analysisPromptTemplate,
		payload.Metadata.ProjectName,

		oldRel.ReleaseInfo.Version,
		oldRel.ReleaseInfo.DataPeriod.Start.Format("2006-01-02 15:04"),
		oldRel.ReleaseInfo.DataPeriod.End.Format("2006-01-02 15:04"),
		oldRel.ReleaseInfo.TotalVisits,
		oldRel.ReleaseInfo.UniqueClients,
		oldRel.ReleaseInfo.TotalHits,
		oldRel.AggregateMetrics.Visits.NewUsers,
		userShare(oldRel.AggregateMetrics.Visits.NewUsers, oldRel.ReleaseInfo.TotalVisits),
		oldRel.AggregateMetrics.Visits.ReturningUsers,
		userShare(oldRel.AggregateMetrics.Visits.ReturningUsers, oldRel.ReleaseInfo.TotalVisits),
		oldRel.AggregateMetrics.Visits.AvgDurationSec,
		oldRel.AggregateMetrics.Visits.MedianDurationSec,
		oldRel.AggregateMetrics.Visits.AvgPageViews,
		oldRel.AggregateMetrics.Visits.MedianPageViews,
		releasePatternsBlock(oldRel),

		newRel.ReleaseInfo.Version,
		newRel.ReleaseInfo.DataPeriod.Start.Format("2006-01-02 15:04"),
		newRel.ReleaseInfo.DataPeriod.End.Format("2006-01-02 15:04"),
		newRel.ReleaseInfo.TotalVisits,
		newRel.ReleaseInfo.UniqueClients,
		newRel.ReleaseInfo.TotalHits,
		newRel.AggregateMetrics.Visits.NewUsers,
		userShare(newRel.AggregateMetrics.Visits.NewUsers, newRel.ReleaseInfo.TotalVisits),
		newRel.AggregateMetrics.Visits.ReturningUsers,
		userShare(newRel.AggregateMetrics.Visits.ReturningUsers, newRel.ReleaseInfo.TotalVisits),
		newRel.AggregateMetrics.Visits.AvgDurationSec,
		newRel.AggregateMetrics.Visits.MedianDurationSec,
		newRel.AggregateMetrics.Visits.AvgPageViews,
		newRel.AggregateMetrics.Visits.MedianPageViews,
		releasePatternsBlock(newRel),

		visitsChange,
		visitsChangePct,
		durationChange,
		pagesChange,
		navigationChangesBlock(oldRel, newRel),
		focusAreasBlock(focusAreas),
	), nil
}

func userShare(users, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(users) / float64(total) * 100
}

func releasePatternsBlock(r domain.Release) string {
	var b strings.Builder
	if nav := r.NavigationPatterns; nav != nil {
		fmt.Fprintf(&b, "- Reverse navigation: %d visits (%.1f%%), %d transitions\n",
			nav.ReverseNavigation.VisitsWithReverseNav,
			nav.ReverseNavigation.Percentage,
			nav.ReverseNavigation.TotalReverseTransitions)
		fmt.Fprintf(&b, "- Loop patterns: %d\n", len(nav.LoopPatterns))
	}
	if cm := r.SessionComplexityMetrics; cm != nil {
		fmt.Fprintf(&b, "- High-interaction sessions (10+ pages): %d (%.1f%%)\n",
			cm.HighInteractionSessions.SessionsWith10PlusPages,
			cm.HighInteractionSessions.Percentage)
		fmt.Fprintf(&b, "- Sessions with URL revisits: %d (%.1f%%, avg %.1f per session)\n",
			cm.URLRevisitPatterns.SessionsWithURLRevisits,
			cm.URLRevisitPatterns.Percentage,
			cm.URLRevisitPatterns.AvgRevisitsPerSession)
	}
	return b.String()
}

func navigationChangesBlock(oldRel, newRel domain.Release) string {
	var b strings.Builder
	if oldRel.NavigationPatterns != nil && newRel.NavigationPatterns != nil {
		fmt.Fprintf(&b, "- Reverse navigation: %+.1f pp\n",
			newRel.NavigationPatterns.ReverseNavigation.Percentage-oldRel.NavigationPatterns.ReverseNavigation.Percentage)
		fmt.Fprintf(&b, "- Loop patterns: %+d\n",
			len(newRel.NavigationPatterns.LoopPatterns)-len(oldRel.NavigationPatterns.LoopPatterns))
	}
	if oldRel.SessionComplexityMetrics != nil && newRel.SessionComplexityMetrics != nil {
		fmt.Fprintf(&b, "- High-interaction sessions: %+.1f pp\n",
			newRel.SessionComplexityMetrics.HighInteractionSessions.Percentage-oldRel.SessionComplexityMetrics.HighInteractionSessions.Percentage)
		fmt.Fprintf(&b, "- URL revisits: %+.1f pp\n",
			newRel.SessionComplexityMetrics.URLRevisitPatterns.Percentage-oldRel.SessionComplexityMetrics.URLRevisitPatterns.Percentage)
	}
	return b.String()
}

func focusAreasBlock(focusAreas []string) string {
	if len(focusAreas) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## Focus areas\n")
	for _, area := range focusAreas {
		area = strings.TrimSpace(area)
		if area == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", area)
	}
	return b.String()
}
