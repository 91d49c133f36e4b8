package analyzer

import (
	"fmt"
	"strings"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

// ValidatePayload checks a payload before any network call is made. Rule
// categories run in a fixed order; a category that produced errors stops the
// remaining categories, while errors inside a category accumulate. Warnings
// never fail validation.
func ValidatePayload(payload *domain.MetricsPayload, focusAreas []string) domain.ValidationReport {
	report := domain.ValidationReport{Errors: []string{}}

	if payload == nil {
		report.Errors = append(report.Errors, "payload is required")
		return report
	}

	// Category 1: release presence and version labels.
	if len(payload.Releases) != 2 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("payload must contain exactly 2 releases, got %d", len(payload.Releases)))
	} else {
		for idx, release := range payload.Releases {
			if strings.TrimSpace(release.ReleaseInfo.Version) == "" {
				report.Errors = append(report.Errors,
					fmt.Sprintf("release %d: version is required", idx))
			}
		}
	}
	if len(report.Errors) > 0 {
		return report
	}

	// Category 2: time windows must be ordered and timezone-aware.
	for idx, release := range payload.Releases {
		period := release.ReleaseInfo.DataPeriod
		if !period.Start.HasOffset {
			report.Errors = append(report.Errors,
				fmt.Sprintf("release %d: start timestamp has no timezone offset", idx))
		}
		if !period.End.HasOffset {
			report.Errors = append(report.Errors,
				fmt.Sprintf("release %d: end timestamp has no timezone offset", idx))
		}
		if !period.End.Time.After(period.Start.Time) {
			report.Errors = append(report.Errors,
				fmt.Sprintf("release %d: end date must be after start date", idx))
		}
	}
	if len(report.Errors) > 0 {
		return report
	}

	// Category 3: aggregate counters must be non-negative.
	for idx, release := range payload.Releases {
		for _, field := range countFields(release) {
			if field.value < 0 {
				report.Errors = append(report.Errors,
					fmt.Sprintf("release %d: %s cannot be negative", idx, field.name))
			}
		}
		if release.ReleaseInfo.TotalVisits < release.ReleaseInfo.UniqueClients {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("release %d: total_visits is less than unique_clients", idx))
		}
	}
	if len(report.Errors) > 0 {
		return report
	}

	// Category 4: the two periods must not be identical.
	if payload.Releases[0].ReleaseInfo.DataPeriod.Equal(payload.Releases[1].ReleaseInfo.DataPeriod) {
		report.Errors = append(report.Errors, "periods must differ")
		return report
	}

	// Category 5: focus areas, if supplied, must be non-empty after trimming.
	seen := make(map[string]bool, len(focusAreas))
	for idx, area := range focusAreas {
		trimmed := strings.TrimSpace(area)
		if trimmed == "" {
			report.Errors = append(report.Errors,
				fmt.Sprintf("focus area %d is empty", idx))
			continue
		}
		if seen[trimmed] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("duplicate focus area %q collapsed", trimmed))
		}
		seen[trimmed] = true
	}
	if len(report.Errors) > 0 {
		return report
	}

	report.Passed = true
	return report
}

type countField struct {
	name  string
	value float64
}

func countFields(release domain.Release) []countField {
	info := release.ReleaseInfo
	visits := release.AggregateMetrics.Visits
	pages := release.AggregateMetrics.PageViews
	return []countField{
		{"total_visits", float64(info.TotalVisits)},
		{"total_hits", float64(info.TotalHits)},
		{"unique_clients", float64(info.UniqueClients)},
		{"visits.total_count", float64(visits.TotalCount)},
		{"visits.new_users", float64(visits.NewUsers)},
		{"visits.returning_users", float64(visits.ReturningUsers)},
		{"visits.avg_page_views", visits.AvgPageViews},
		{"visits.median_page_views", float64(visits.MedianPageViews)},
		{"visits.avg_duration_sec", visits.AvgDurationSec},
		{"visits.median_duration_sec", float64(visits.MedianDurationSec)},
		{"visits.total_duration_sec", float64(visits.TotalDurationSec)},
		{"page_views.total_count", float64(pages.TotalCount)},
		{"page_views.unique_urls", float64(pages.UniqueURLs)},
	}
}

// NormalizeFocusAreas trims entries and drops duplicates, preserving first
// occurrence order.
func NormalizeFocusAreas(focusAreas []string) []string {
	seen := make(map[string]bool, len(focusAreas))
	result := make([]string, 0, len(focusAreas))
	for _, area := range focusAreas {
		trimmed := strings.TrimSpace(area)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		result = append(result, trimmed)
	}
	return result
}
