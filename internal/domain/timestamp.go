package domain

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp wraps time.Time and records whether the source JSON carried an
// explicit UTC offset. Naive timestamps are not silently assumed to be UTC;
// they are reported by payload validation instead.
type Timestamp struct {
	time.Time
	HasOffset bool
}

// NewTimestamp creates a timezone-aware timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, HasOffset: true}
}

// naiveLayouts are accepted on input so that validation can name the problem
// instead of the decoder rejecting the whole payload.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON parses RFC3339 timestamps, falling back to offset-less layouts
// with HasOffset left false.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ts.Time = t
		ts.HasOffset = true
		return nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			ts.HasOffset = false
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp: %q", s)
}

// MarshalJSON renders the timestamp as RFC3339.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ts.Time.Format(time.RFC3339) + `"`), nil
}

// DataPeriod is the time window a release's traffic was collected in.
type DataPeriod struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// Equal reports whether two periods cover the identical window.
func (p DataPeriod) Equal(other DataPeriod) bool {
	return p.Start.Time.Equal(other.Start.Time) && p.End.Time.Equal(other.End.Time)
}
