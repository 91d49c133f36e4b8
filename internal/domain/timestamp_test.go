package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshalWithOffset(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-15T10:30:00+03:00"`), &ts))

	assert.True(t, ts.HasOffset)
	assert.Equal(t, 2024, ts.Year())

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-15T10:30:00Z"`), &ts))
	assert.True(t, ts.HasOffset)
}

func TestTimestampUnmarshalNaive(t *testing.T) {
	for _, raw := range []string{
		`"2024-01-15T10:30:00"`,
		`"2024-01-15 10:30:00"`,
		`"2024-01-15"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.False(t, ts.HasOffset, raw)
		assert.Equal(t, 2024, ts.Year(), raw)
	}
}

func TestTimestampUnmarshalInvalid(t *testing.T) {
	var ts Timestamp
	err := json.Unmarshal([]byte(`"yesterday"`), &ts)
	assert.Error(t, err)
}

func TestTimestampMarshal(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T10:30:00Z"`, string(data))
}

func TestDataPeriodEqual(t *testing.T) {
	start := NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end := NewTimestamp(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	a := DataPeriod{Start: start, End: end}
	b := DataPeriod{Start: start, End: end}
	assert.True(t, a.Equal(b))

	// offsets differ but the instants match
	moscow := time.FixedZone("MSK", 3*3600)
	c := DataPeriod{
		Start: NewTimestamp(start.In(moscow)),
		End:   NewTimestamp(end.In(moscow)),
	}
	assert.True(t, a.Equal(c))

	d := DataPeriod{Start: start, End: NewTimestamp(end.Add(time.Hour))}
	assert.False(t, a.Equal(d))
}

func TestPayloadRoundTrip(t *testing.T) {
	raw := `{
		"metadata": {
			"project_name": "Shop",
			"generated_at": "2024-02-01T12:00:00+03:00",
			"data_source": "analytics_storage"
		},
		"releases": [
			{
				"release_info": {
					"version": "1.0.0",
					"data_period": {"start": "2024-01-01T00:00:00Z", "end": "2024-01-15"},
					"total_visits": 1500,
					"total_hits": 5200,
					"unique_clients": 1200
				},
				"aggregate_metrics": {
					"visits": {"total_count": 1500, "avg_page_views": 3.5},
					"page_views": {"total_count": 5200, "unique_urls": 85}
				}
			},
			{
				"release_info": {
					"version": "1.1.0",
					"data_period": {"start": "2024-01-15T00:00:00Z", "end": "2024-01-29T00:00:00Z"},
					"total_visits": 1800
				},
				"aggregate_metrics": {}
			}
		]
	}`

	var payload MetricsPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, "Shop", payload.Metadata.ProjectName)
	require.Len(t, payload.Releases, 2)

	first := payload.Releases[0]
	assert.Equal(t, int64(1500), first.ReleaseInfo.TotalVisits)
	assert.True(t, first.ReleaseInfo.DataPeriod.Start.HasOffset)
	assert.False(t, first.ReleaseInfo.DataPeriod.End.HasOffset)
	assert.Nil(t, first.NavigationPatterns)
	assert.Equal(t, 3.5, first.AggregateMetrics.Visits.AvgPageViews)
}
