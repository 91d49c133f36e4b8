package aggregator

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/storage"
)

// Aggregator builds a two-release MetricsPayload out of stored visits and
// hits.
type Aggregator interface {
	// AggregateForPeriods aggregates both periods and assembles the payload
	AggregateForPeriods(ctx context.Context, req AggregateRequest) (*domain.MetricsPayload, error)

	// AggregateRelease aggregates a single release period
	AggregateRelease(ctx context.Context, start, end time.Time, version string) (*domain.Release, error)
}

// AggregateRequest names the two periods and their version labels.
type AggregateRequest struct {
	ProjectName  string    `json:"project_name"`
	Period1Start time.Time `json:"period1_start"`
	Period1End   time.Time `json:"period1_end"`
	Period2Start time.Time `json:"period2_start"`
	Period2End   time.Time `json:"period2_end"`
	Version1     string    `json:"version1"`
	Version2     string    `json:"version2"`
}

// aggregator implements the Aggregator interface
type aggregator struct {
	storage storage.Storage
	log     *logrus.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(storage storage.Storage, log *logrus.Logger) Aggregator {
	if log == nil {
		log = logrus.New()
	}
	return &aggregator{
		storage: storage,
		log:     log,
	}
}

// AggregateForPeriods aggregates both periods and assembles the payload
func (a *aggregator) AggregateForPeriods(ctx context.Context, req AggregateRequest) (*domain.MetricsPayload, error) {
	a.log.WithFields(logrus.Fields{
		"period1": req.Period1Start.Format("2006-01-02") + ".." + req.Period1End.Format("2006-01-02"),
		"period2": req.Period2Start.Format("2006-01-02") + ".." + req.Period2End.Format("2006-01-02"),
	}).Info("Aggregating metrics for two periods")

	version1 := req.Version1
	if version1 == "" {
		version1 = "v1.0.0"
	}
	version2 := req.Version2
	if version2 == "" {
		version2 = "v2.0.0"
	}
	projectName := req.ProjectName
	if projectName == "" {
		projectName = "Analytics Project"
	}

	release1, err := a.AggregateRelease(ctx, req.Period1Start, req.Period1End, version1)
	if err != nil {
		return nil, err
	}
	release2, err := a.AggregateRelease(ctx, req.Period2Start, req.Period2End, version2)
	if err != nil {
		return nil, err
	}

	return &domain.MetricsPayload{
		Metadata: domain.Metadata{
			ProjectName: projectName,
			GeneratedAt: domain.NewTimestamp(time.Now().UTC()),
			DataSource:  "analytics_storage",
		},
		Releases: []domain.Release{*release1, *release2},
	}, nil
}

// AggregateRelease aggregates a single release period
func (a *aggregator) AggregateRelease(ctx context.Context, start, end time.Time, version string) (*domain.Release, error) {
	visits, err := a.storage.GetVisits(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		a.log.WithField("version", version).Warn("No visits found for period")
		return emptyRelease(start, end, version), nil
	}

	var watchIDs []string
	for _, v := range visits {
		watchIDs = append(watchIDs, v.WatchIDs...)
	}

	var hits []*domain.Hit
	if len(watchIDs) > 0 {
		hits, err = a.storage.GetHitsByWatchIDs(ctx, watchIDs)
		if err != nil {
			return nil, err
		}
	}

	visitURLs := visitURLSequences(visits, hits)

	release := &domain.Release{
		ReleaseInfo:              releaseInfo(visits, hits, start, end, version),
		AggregateMetrics:         aggregateMetrics(visits, hits),
		SessionDistribution:      sessionDistribution(visits),
		NavigationPatterns:       navigationPatterns(visits, visitURLs),
		SessionComplexityMetrics: sessionComplexity(visits, visitURLs),
	}
	return release, nil
}

func releaseInfo(visits []*domain.Visit, hits []*domain.Hit, start, end time.Time, version string) domain.ReleaseInfo {
	clients := make(map[string]bool)
	for _, v := range visits {
		if v.ClientID != "" {
			clients[v.ClientID] = true
		}
	}
	return domain.ReleaseInfo{
		Version: version,
		DataPeriod: domain.DataPeriod{
			Start: domain.NewTimestamp(start),
			End:   domain.NewTimestamp(end),
		},
		TotalVisits:   int64(len(visits)),
		TotalHits:     int64(len(hits)),
		UniqueClients: int64(len(clients)),
	}
}

func aggregateMetrics(visits []*domain.Visit, hits []*domain.Hit) domain.AggregateMetrics {
	total := int64(len(visits))

	var newUsers, totalDuration int64
	pageViews := make([]int64, 0, len(visits))
	durations := make([]int64, 0, len(visits))
	for _, v := range visits {
		if v.IsNewUser {
			newUsers++
		}
		pageViews = append(pageViews, v.PageViews)
		durations = append(durations, v.VisitDurationSec)
		totalDuration += v.VisitDurationSec
	}

	var totalPages int64
	for _, pv := range pageViews {
		totalPages += pv
	}

	uniqueURLs := make(map[string]bool)
	for _, h := range hits {
		if h.URL != "" {
			uniqueURLs[h.URL] = true
		}
	}

	metrics := domain.AggregateMetrics{
		PageViews: domain.PageViewsMetrics{
			TotalCount: int64(len(hits)),
			UniqueURLs: int64(len(uniqueURLs)),
		},
	}
	metrics.Visits = domain.VisitsMetrics{
		TotalCount:        total,
		NewUsers:          newUsers,
		ReturningUsers:    total - newUsers,
		MedianPageViews:   median(pageViews),
		MedianDurationSec: median(durations),
		TotalDurationSec:  totalDuration,
	}
	if total > 0 {
		metrics.Visits.AvgPageViews = round2(float64(totalPages) / float64(total))
		metrics.Visits.AvgDurationSec = math.Floor(float64(totalDuration) / float64(total))
	}
	return metrics
}

// pageViewBuckets and durationBuckets define the histogram ranges. A nil max
// means open-ended.
var pageViewBuckets = [][2]int64{{1, 1}, {2, 5}, {6, 10}, {11, -1}}
var durationBuckets = [][2]int64{{0, 30}, {31, 120}, {121, 300}, {301, -1}}

func sessionDistribution(visits []*domain.Visit) *domain.SessionDistribution {
	return &domain.SessionDistribution{
		ByPageViews:   bucketize(visits, pageViewBuckets, func(v *domain.Visit) int64 { return v.PageViews }),
		ByDurationSec: bucketize(visits, durationBuckets, func(v *domain.Visit) int64 { return v.VisitDurationSec }),
	}
}

func bucketize(visits []*domain.Visit, buckets [][2]int64, getter func(*domain.Visit) int64) []domain.DistributionBucket {
	total := len(visits)
	result := make([]domain.DistributionBucket, 0, len(buckets))
	for _, b := range buckets {
		min, max := b[0], b[1]
		var count int64
		for _, v := range visits {
			val := getter(v)
			if max < 0 {
				if val >= min {
					count++
				}
			} else if val >= min && val <= max {
				count++
			}
		}
		bucket := domain.DistributionBucket{
			RangeMin: min,
			Count:    count,
		}
		if max >= 0 {
			upper := max
			bucket.RangeMax = &upper
		}
		if total > 0 {
			bucket.Percentage = round1(float64(count) / float64(total) * 100)
		}
		result = append(result, bucket)
	}
	return result
}

// visitURLSequences maps each visit to its hit URLs ordered by hit time.
func visitURLSequences(visits []*domain.Visit, hits []*domain.Hit) map[int64][]string {
	hitByWatchID := make(map[string]*domain.Hit, len(hits))
	for _, h := range hits {
		hitByWatchID[h.WatchID] = h
	}

	sequences := make(map[int64][]string)
	for _, v := range visits {
		var visitHits []*domain.Hit
		for _, wid := range v.WatchIDs {
			if h, ok := hitByWatchID[wid]; ok && h.URL != "" {
				visitHits = append(visitHits, h)
			}
		}
		if len(visitHits) == 0 {
			continue
		}
		sort.SliceStable(visitHits, func(i, j int) bool {
			return visitHits[i].DateTime.Before(visitHits[j].DateTime)
		})
		urls := make([]string, 0, len(visitHits))
		for _, h := range visitHits {
			urls = append(urls, h.URL)
		}
		sequences[v.VisitID] = urls
	}
	return sequences
}

func navigationPatterns(visits []*domain.Visit, visitURLs map[int64][]string) *domain.NavigationPatterns {
	totalVisits := len(visits)

	var visitsWithReverse, totalReverseTransitions int64
	transitionCounts := make(map[[2]string]int64)
	loopCounts := make(map[string]int64)
	loopSequences := make(map[string][]string)

	for _, urls := range visitURLs {
		if len(urls) < 2 {
			continue
		}

		// A URL seen again later in the same visit counts as backward
		// navigation.
		seen := make(map[string]bool, len(urls))
		var reverseCount int64
		for _, url := range urls {
			if seen[url] {
				reverseCount++
			}
			seen[url] = true
		}
		if reverseCount > 0 {
			visitsWithReverse++
			totalReverseTransitions += reverseCount
		}

		for i := 0; i+1 < len(urls); i++ {
			transitionCounts[[2]string{urls[i], urls[i+1]}]++
		}

		// A->B->A sequences count as loops.
		for i := 0; i+2 < len(urls); i++ {
			if urls[i] == urls[i+2] && urls[i] != urls[i+1] {
				key := urls[i] + "\x00" + urls[i+1] + "\x00" + urls[i+2]
				loopCounts[key]++
				loopSequences[key] = []string{urls[i], urls[i+1], urls[i+2]}
			}
		}
	}

	patterns := &domain.NavigationPatterns{
		ReverseNavigation: domain.ReverseNavigation{
			VisitsWithReverseNav:    visitsWithReverse,
			TotalReverseTransitions: totalReverseTransitions,
		},
		CommonTransitions: topTransitions(transitionCounts, 10),
		LoopPatterns:      topLoops(loopCounts, loopSequences, 5),
	}
	if totalVisits > 0 {
		patterns.ReverseNavigation.Percentage = round1(float64(visitsWithReverse) / float64(totalVisits) * 100)
	}
	return patterns
}

func topTransitions(counts map[[2]string]int64, limit int) []domain.PageTransition {
	transitions := make([]domain.PageTransition, 0, len(counts))
	for pair, count := range counts {
		transitions = append(transitions, domain.PageTransition{
			FromURL:         pair[0],
			ToURL:           pair[1],
			TransitionCount: count,
		})
	}
	sort.SliceStable(transitions, func(i, j int) bool {
		if transitions[i].TransitionCount != transitions[j].TransitionCount {
			return transitions[i].TransitionCount > transitions[j].TransitionCount
		}
		if transitions[i].FromURL != transitions[j].FromURL {
			return transitions[i].FromURL < transitions[j].FromURL
		}
		return transitions[i].ToURL < transitions[j].ToURL
	})
	if len(transitions) > limit {
		transitions = transitions[:limit]
	}
	return transitions
}

func topLoops(counts map[string]int64, sequences map[string][]string, limit int) []domain.LoopPattern {
	loops := make([]domain.LoopPattern, 0, len(counts))
	for key, count := range counts {
		loops = append(loops, domain.LoopPattern{
			Sequence:    sequences[key],
			Occurrences: count,
		})
	}
	sort.SliceStable(loops, func(i, j int) bool {
		if loops[i].Occurrences != loops[j].Occurrences {
			return loops[i].Occurrences > loops[j].Occurrences
		}
		return loops[i].Sequence[0] < loops[j].Sequence[0]
	})
	if len(loops) > limit {
		loops = loops[:limit]
	}
	return loops
}

func sessionComplexity(visits []*domain.Visit, visitURLs map[int64][]string) *domain.SessionComplexityMetrics {
	totalVisits := len(visits)

	var highInteraction []*domain.Visit
	for _, v := range visits {
		if v.PageViews >= 10 {
			highInteraction = append(highInteraction, v)
		}
	}

	hi := domain.HighInteractionSessions{
		SessionsWith10PlusPages: int64(len(highInteraction)),
	}
	if totalVisits > 0 {
		hi.Percentage = round1(float64(len(highInteraction)) / float64(totalVisits) * 100)
	}
	if len(highInteraction) > 0 {
		var pages, duration int64
		uniqueURLTotal := 0
		for _, v := range highInteraction {
			pages += v.PageViews
			duration += v.VisitDurationSec
			unique := make(map[string]bool)
			for _, url := range visitURLs[v.VisitID] {
				unique[url] = true
			}
			uniqueURLTotal += len(unique)
		}
		hi.AvgPages = round1(float64(pages) / float64(len(highInteraction)))
		hi.AvgDurationSec = duration / int64(len(highInteraction))
		hi.AvgUniqueURLs = round1(float64(uniqueURLTotal) / float64(len(highInteraction)))
	}

	var sessionsWithRevisits, totalRevisits, totalUniqueRevisited int64
	for _, urls := range visitURLs {
		urlCounts := make(map[string]int64)
		for _, url := range urls {
			urlCounts[url]++
		}
		var revisits, uniqueRevisited int64
		for _, count := range urlCounts {
			if count > 1 {
				revisits += count - 1
				uniqueRevisited++
			}
		}
		if revisits > 0 {
			sessionsWithRevisits++
			totalRevisits += revisits
			totalUniqueRevisited += uniqueRevisited
		}
	}

	revisit := domain.URLRevisitPatterns{
		SessionsWithURLRevisits: sessionsWithRevisits,
	}
	if totalVisits > 0 {
		revisit.Percentage = round1(float64(sessionsWithRevisits) / float64(totalVisits) * 100)
	}
	if sessionsWithRevisits > 0 {
		revisit.AvgRevisitsPerSession = round1(float64(totalRevisits) / float64(sessionsWithRevisits))
		revisit.AvgUniqueURLsRevisited = round1(float64(totalUniqueRevisited) / float64(sessionsWithRevisits))
	}

	return &domain.SessionComplexityMetrics{
		HighInteractionSessions: hi,
		URLRevisitPatterns:      revisit,
	}
}

func emptyRelease(start, end time.Time, version string) *domain.Release {
	return &domain.Release{
		ReleaseInfo: domain.ReleaseInfo{
			Version: version,
			DataPeriod: domain.DataPeriod{
				Start: domain.NewTimestamp(start),
				End:   domain.NewTimestamp(end),
			},
		},
		SessionDistribution: &domain.SessionDistribution{
			ByPageViews:   []domain.DistributionBucket{},
			ByDurationSec: []domain.DistributionBucket{},
		},
		NavigationPatterns: &domain.NavigationPatterns{
			CommonTransitions: []domain.PageTransition{},
			LoopPatterns:      []domain.LoopPattern{},
		},
		SessionComplexityMetrics: &domain.SessionComplexityMetrics{},
	}
}

func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
