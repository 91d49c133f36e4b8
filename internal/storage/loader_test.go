package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

type recordingStorage struct {
	visits []*domain.Visit
	hits   []*domain.Hit
}

func (r *recordingStorage) SaveVisits(ctx context.Context, visits []*domain.Visit) error {
	r.visits = visits
	return nil
}

func (r *recordingStorage) GetVisits(ctx context.Context, start, end time.Time) ([]*domain.Visit, error) {
	return r.visits, nil
}

func (r *recordingStorage) CountVisits(ctx context.Context) (int64, error) {
	return int64(len(r.visits)), nil
}

func (r *recordingStorage) SaveHits(ctx context.Context, hits []*domain.Hit) error {
	r.hits = hits
	return nil
}

func (r *recordingStorage) GetHitsByWatchIDs(ctx context.Context, watchIDs []string) ([]*domain.Hit, error) {
	return r.hits, nil
}

func (r *recordingStorage) CountHits(ctx context.Context) (int64, error) {
	return int64(len(r.hits)), nil
}

func (r *recordingStorage) Migrate(ctx context.Context) error { return nil }

func (r *recordingStorage) Close() error { return nil }

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadVisitsCSV(t *testing.T) {
	csvData := `visitID,watchID,dateTime,isNewUser,startURL,endURL,pageViews,visitDuration,regionCity,clientID,deviceCategory,operatingSystem,browser
100,w1,2024-03-01 10:00:00,1,/home,/checkout,3,120,Moscow,c1,desktop,windows,chrome
100,w2,2024-03-01 10:00:00,1,/home,/checkout,3,120,Moscow,c1,desktop,windows,chrome
100,w3,2024-03-01 10:00:00,1,/home,/checkout,3,120,Moscow,c1,desktop,windows,chrome
200,w4,2024-03-02 11:30:00,0,/about,/about,1.0,15,Kazan,c2,mobile,android,yandex
`

	store := &recordingStorage{}
	loader := NewLoader(store, nil)

	count, err := loader.LoadVisitsCSV(context.Background(), writeTempCSV(t, csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, store.visits, 2)

	first := store.visits[0]
	assert.Equal(t, int64(100), first.VisitID)
	assert.Equal(t, []string{"w1", "w2", "w3"}, first.WatchIDs)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), first.DateTime)
	assert.True(t, first.IsNewUser)
	assert.Equal(t, "/home", first.StartURL)
	assert.Equal(t, int64(3), first.PageViews)
	assert.Equal(t, int64(120), first.VisitDurationSec)
	assert.Equal(t, "c1", first.ClientID)

	second := store.visits[1]
	assert.Equal(t, int64(200), second.VisitID)
	assert.Equal(t, []string{"w4"}, second.WatchIDs)
	assert.False(t, second.IsNewUser)
	// float-formatted counters are accepted
	assert.Equal(t, int64(1), second.PageViews)
}

func TestLoadVisitsCSVSkipsRowsWithoutVisitID(t *testing.T) {
	csvData := `visitID,watchID,dateTime
100,w1,2024-03-01
,w2,2024-03-01
`

	store := &recordingStorage{}
	loader := NewLoader(store, nil)

	count, err := loader.LoadVisitsCSV(context.Background(), writeTempCSV(t, csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadVisitsCSVMissingFile(t *testing.T) {
	loader := NewLoader(&recordingStorage{}, nil)

	_, err := loader.LoadVisitsCSV(context.Background(), "/nonexistent/visits.csv")
	assert.Error(t, err)
}

func TestLoadHitsCSV(t *testing.T) {
	csvData := `watchID,clientID,URL,dateTime,title
w1,c1,/home,2024-03-01 10:00:00,Home
w2,c1,/cart,2024-03-01 10:01:00,Cart
,c2,/orphan,2024-03-01 10:02:00,Orphan
`

	store := &recordingStorage{}
	loader := NewLoader(store, nil)

	count, err := loader.LoadHitsCSV(context.Background(), writeTempCSV(t, csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, store.hits, 2)

	assert.Equal(t, "w1", store.hits[0].WatchID)
	assert.Equal(t, "/home", store.hits[0].URL)
	assert.Equal(t, "Home", store.hits[0].Title)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC), store.hits[1].DateTime)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, int64(42), parseInt("42"))
	assert.Equal(t, int64(3), parseInt("3.0"))
	assert.Equal(t, int64(0), parseInt("not-a-number"))

	assert.True(t, parseBool("1"))
	assert.True(t, parseBool("True"))
	assert.False(t, parseBool("0"))
	assert.False(t, parseBool("yes"))

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), parseDateTime("2024-03-01"))
	assert.True(t, parseDateTime("garbage").IsZero())
}
