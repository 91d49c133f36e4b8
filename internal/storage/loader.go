package storage

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

// Loader ingests visit and hit CSV exports into storage. Field parsing is
// tolerant: unparseable numbers and timestamps become zero values instead of
// aborting the load.
type Loader struct {
	storage Storage
	log     *logrus.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(storage Storage, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{storage: storage, log: log}
}

// LoadVisitsCSV reads a visits export and saves the visits. Multiple rows
// sharing a visitID are folded into one visit carrying all their watch ids.
func (l *Loader) LoadVisitsCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	l.log.WithField("path", path).Info("Loading visits from CSV")

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, err
	}
	col := columnIndex(header)

	type visitRow struct {
		visit    *domain.Visit
		watchIDs []string
	}
	byID := make(map[string]*visitRow)
	var order []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		visitID := col.get(record, "visitID")
		if visitID == "" {
			continue
		}

		row, ok := byID[visitID]
		if !ok {
			row = &visitRow{
				visit: &domain.Visit{
					VisitID:          parseInt(visitID),
					DateTime:         parseDateTime(col.get(record, "dateTime")),
					IsNewUser:        parseBool(col.get(record, "isNewUser")),
					StartURL:         col.get(record, "startURL"),
					EndURL:           col.get(record, "endURL"),
					PageViews:        parseInt(col.get(record, "pageViews")),
					VisitDurationSec: parseInt(col.get(record, "visitDuration")),
					RegionCity:       col.get(record, "regionCity"),
					ClientID:         col.get(record, "clientID"),
					DeviceCategory:   col.get(record, "deviceCategory"),
					OperatingSystem:  col.get(record, "operatingSystem"),
					Browser:          col.get(record, "browser"),
				},
			}
			byID[visitID] = row
			order = append(order, visitID)
		}
		if watchID := col.get(record, "watchID"); watchID != "" {
			row.watchIDs = append(row.watchIDs, watchID)
		}
	}

	visits := make([]*domain.Visit, 0, len(order))
	for _, id := range order {
		row := byID[id]
		row.visit.WatchIDs = row.watchIDs
		visits = append(visits, row.visit)
	}

	if err := l.storage.SaveVisits(ctx, visits); err != nil {
		return 0, err
	}

	l.log.WithField("count", len(visits)).Info("Loaded visits")
	return len(visits), nil
}

// LoadHitsCSV reads a hits export and saves the hits.
func (l *Loader) LoadHitsCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	l.log.WithField("path", path).Info("Loading hits from CSV")

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, err
	}
	col := columnIndex(header)

	var hits []*domain.Hit
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		watchID := col.get(record, "watchID")
		if watchID == "" {
			continue
		}
		hits = append(hits, &domain.Hit{
			WatchID:  watchID,
			ClientID: col.get(record, "clientID"),
			URL:      col.get(record, "URL"),
			DateTime: parseDateTime(col.get(record, "dateTime")),
			Title:    col.get(record, "title"),
		})
	}

	if err := l.storage.SaveHits(ctx, hits); err != nil {
		return 0, err
	}

	l.log.WithField("count", len(hits)).Info("Loaded hits")
	return len(hits), nil
}

type columns map[string]int

func columnIndex(header []string) columns {
	col := make(columns, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

func (c columns) get(record []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseBool(s string) bool {
	switch s {
	case "1", "true", "True", "TRUE":
		return true
	}
	return false
}
