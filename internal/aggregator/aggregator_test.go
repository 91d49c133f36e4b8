package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

type fakeStorage struct {
	visits []*domain.Visit
	hits   []*domain.Hit
}

func (f *fakeStorage) SaveVisits(ctx context.Context, visits []*domain.Visit) error { return nil }

func (f *fakeStorage) GetVisits(ctx context.Context, start, end time.Time) ([]*domain.Visit, error) {
	var result []*domain.Visit
	for _, v := range f.visits {
		if !v.DateTime.Before(start) && !v.DateTime.After(end) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (f *fakeStorage) CountVisits(ctx context.Context) (int64, error) {
	return int64(len(f.visits)), nil
}

func (f *fakeStorage) SaveHits(ctx context.Context, hits []*domain.Hit) error { return nil }

func (f *fakeStorage) GetHitsByWatchIDs(ctx context.Context, watchIDs []string) ([]*domain.Hit, error) {
	wanted := make(map[string]bool, len(watchIDs))
	for _, id := range watchIDs {
		wanted[id] = true
	}
	var result []*domain.Hit
	for _, h := range f.hits {
		if wanted[h.WatchID] {
			result = append(result, h)
		}
	}
	return result, nil
}

func (f *fakeStorage) CountHits(ctx context.Context) (int64, error) {
	return int64(len(f.hits)), nil
}

func (f *fakeStorage) Migrate(ctx context.Context) error { return nil }

func (f *fakeStorage) Close() error { return nil }

func day(d int, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func hit(watchID, url string, at time.Time) *domain.Hit {
	return &domain.Hit{WatchID: watchID, URL: url, DateTime: at}
}

func testStorage() *fakeStorage {
	return &fakeStorage{
		visits: []*domain.Visit{
			{
				VisitID:          1,
				WatchIDs:         []string{"w1", "w2", "w3", "w4"},
				DateTime:         day(1, 10),
				IsNewUser:        true,
				PageViews:        4,
				VisitDurationSec: 200,
				ClientID:         "c1",
			},
			{
				VisitID:          2,
				WatchIDs:         []string{"w5", "w6"},
				DateTime:         day(2, 11),
				IsNewUser:        false,
				PageViews:        2,
				VisitDurationSec: 20,
				ClientID:         "c2",
			},
			{
				VisitID:          3,
				WatchIDs:         []string{"w7"},
				DateTime:         day(3, 9),
				IsNewUser:        false,
				PageViews:        1,
				VisitDurationSec: 400,
				ClientID:         "c1",
			},
		},
		hits: []*domain.Hit{
			// visit 1 walks /home -> /cart -> /home -> /checkout: one loop,
			// one reverse transition.
			hit("w1", "/home", day(1, 10)),
			hit("w2", "/cart", day(1, 10).Add(time.Minute)),
			hit("w3", "/home", day(1, 10).Add(2*time.Minute)),
			hit("w4", "/checkout", day(1, 10).Add(3*time.Minute)),
			hit("w5", "/home", day(2, 11)),
			hit("w6", "/about", day(2, 11).Add(time.Minute)),
			hit("w7", "/home", day(3, 9)),
		},
	}
}

func TestAggregateRelease(t *testing.T) {
	agg := NewAggregator(testStorage(), nil)

	release, err := agg.AggregateRelease(context.Background(), day(1, 0), day(4, 0), "1.0.0")
	require.NoError(t, err)

	info := release.ReleaseInfo
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, int64(3), info.TotalVisits)
	assert.Equal(t, int64(7), info.TotalHits)
	assert.Equal(t, int64(2), info.UniqueClients)
	assert.True(t, info.DataPeriod.Start.HasOffset)
	assert.True(t, info.DataPeriod.End.HasOffset)

	visits := release.AggregateMetrics.Visits
	assert.Equal(t, int64(3), visits.TotalCount)
	assert.Equal(t, int64(1), visits.NewUsers)
	assert.Equal(t, int64(2), visits.ReturningUsers)
	assert.InDelta(t, 2.33, visits.AvgPageViews, 0.001)
	assert.Equal(t, int64(2), visits.MedianPageViews)
	assert.Equal(t, float64(206), visits.AvgDurationSec)
	assert.Equal(t, int64(200), visits.MedianDurationSec)
	assert.Equal(t, int64(620), visits.TotalDurationSec)

	pages := release.AggregateMetrics.PageViews
	assert.Equal(t, int64(7), pages.TotalCount)
	assert.Equal(t, int64(4), pages.UniqueURLs)
}

func TestAggregateReleaseNavigationPatterns(t *testing.T) {
	agg := NewAggregator(testStorage(), nil)

	release, err := agg.AggregateRelease(context.Background(), day(1, 0), day(4, 0), "1.0.0")
	require.NoError(t, err)

	nav := release.NavigationPatterns
	require.NotNil(t, nav)
	assert.Equal(t, int64(1), nav.ReverseNavigation.VisitsWithReverseNav)
	assert.Equal(t, int64(1), nav.ReverseNavigation.TotalReverseTransitions)
	assert.InDelta(t, 33.3, nav.ReverseNavigation.Percentage, 0.01)

	require.Len(t, nav.LoopPatterns, 1)
	assert.Equal(t, []string{"/home", "/cart", "/home"}, nav.LoopPatterns[0].Sequence)
	assert.Equal(t, int64(1), nav.LoopPatterns[0].Occurrences)

	require.NotEmpty(t, nav.CommonTransitions)
	for _, tr := range nav.CommonTransitions {
		assert.NotEmpty(t, tr.FromURL)
		assert.NotEmpty(t, tr.ToURL)
		assert.Positive(t, tr.TransitionCount)
	}
}

func TestAggregateReleaseSessionDistribution(t *testing.T) {
	agg := NewAggregator(testStorage(), nil)

	release, err := agg.AggregateRelease(context.Background(), day(1, 0), day(4, 0), "1.0.0")
	require.NoError(t, err)

	dist := release.SessionDistribution
	require.NotNil(t, dist)
	require.Len(t, dist.ByPageViews, 4)

	// page views 4, 2, 1: one in [1,1], two in [2,5].
	assert.Equal(t, int64(1), dist.ByPageViews[0].Count)
	assert.Equal(t, int64(2), dist.ByPageViews[1].Count)
	assert.Equal(t, int64(0), dist.ByPageViews[2].Count)
	assert.InDelta(t, 66.7, dist.ByPageViews[1].Percentage, 0.01)

	// the last bucket is open-ended
	assert.Nil(t, dist.ByPageViews[3].RangeMax)
	require.NotNil(t, dist.ByPageViews[0].RangeMax)
	assert.Equal(t, int64(1), *dist.ByPageViews[0].RangeMax)

	// durations 200, 20, 400: [0,30]=1, [31,120]=0, [121,300]=1, [301,..]=1.
	require.Len(t, dist.ByDurationSec, 4)
	assert.Equal(t, int64(1), dist.ByDurationSec[0].Count)
	assert.Equal(t, int64(0), dist.ByDurationSec[1].Count)
	assert.Equal(t, int64(1), dist.ByDurationSec[2].Count)
	assert.Equal(t, int64(1), dist.ByDurationSec[3].Count)
}

func TestAggregateReleaseSessionComplexity(t *testing.T) {
	store := testStorage()
	store.visits = append(store.visits, &domain.Visit{
		VisitID:          4,
		WatchIDs:         []string{"w8", "w9"},
		DateTime:         day(2, 15),
		PageViews:        12,
		VisitDurationSec: 600,
		ClientID:         "c3",
	})
	store.hits = append(store.hits,
		hit("w8", "/catalog", day(2, 15)),
		hit("w9", "/catalog", day(2, 15).Add(time.Minute)),
	)
	agg := NewAggregator(store, nil)

	release, err := agg.AggregateRelease(context.Background(), day(1, 0), day(4, 0), "1.0.0")
	require.NoError(t, err)

	cm := release.SessionComplexityMetrics
	require.NotNil(t, cm)
	assert.Equal(t, int64(1), cm.HighInteractionSessions.SessionsWith10PlusPages)
	assert.InDelta(t, 25.0, cm.HighInteractionSessions.Percentage, 0.01)
	assert.Equal(t, float64(12), cm.HighInteractionSessions.AvgPages)
	assert.Equal(t, int64(600), cm.HighInteractionSessions.AvgDurationSec)

	// visit 1 revisits /home, visit 4 revisits /catalog.
	assert.Equal(t, int64(2), cm.URLRevisitPatterns.SessionsWithURLRevisits)
	assert.Equal(t, float64(1), cm.URLRevisitPatterns.AvgRevisitsPerSession)
	assert.Equal(t, float64(1), cm.URLRevisitPatterns.AvgUniqueURLsRevisited)
}

func TestAggregateReleaseEmptyPeriod(t *testing.T) {
	agg := NewAggregator(testStorage(), nil)

	release, err := agg.AggregateRelease(context.Background(), day(10, 0), day(11, 0), "2.0.0")
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", release.ReleaseInfo.Version)
	assert.Zero(t, release.ReleaseInfo.TotalVisits)
	require.NotNil(t, release.NavigationPatterns)
	assert.Empty(t, release.NavigationPatterns.LoopPatterns)
}

func TestAggregateForPeriods(t *testing.T) {
	agg := NewAggregator(testStorage(), nil)

	payload, err := agg.AggregateForPeriods(context.Background(), AggregateRequest{
		Period1Start: day(1, 0),
		Period1End:   day(2, 0),
		Period2Start: day(2, 0),
		Period2End:   day(4, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, "Analytics Project", payload.Metadata.ProjectName)
	assert.Equal(t, "analytics_storage", payload.Metadata.DataSource)
	require.Len(t, payload.Releases, 2)
	assert.Equal(t, "v1.0.0", payload.Releases[0].ReleaseInfo.Version)
	assert.Equal(t, "v2.0.0", payload.Releases[1].ReleaseInfo.Version)
	assert.Equal(t, int64(1), payload.Releases[0].ReleaseInfo.TotalVisits)
	assert.Equal(t, int64(2), payload.Releases[1].ReleaseInfo.TotalVisits)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, int64(0), median(nil))
	assert.Equal(t, int64(5), median([]int64{5}))
	assert.Equal(t, int64(3), median([]int64{1, 3, 7}))
	assert.Equal(t, int64(4), median([]int64{1, 3, 5, 9}))
}
