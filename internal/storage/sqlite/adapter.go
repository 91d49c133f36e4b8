package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		visit_id INTEGER PRIMARY KEY,
		watch_ids TEXT NOT NULL DEFAULT '',
		date_time TIMESTAMP NOT NULL,
		is_new_user INTEGER NOT NULL DEFAULT 0,
		start_url TEXT NOT NULL DEFAULT '',
		end_url TEXT NOT NULL DEFAULT '',
		page_views INTEGER NOT NULL DEFAULT 0,
		visit_duration INTEGER NOT NULL DEFAULT 0,
		region_city TEXT NOT NULL DEFAULT '',
		client_id TEXT NOT NULL DEFAULT '',
		device_category TEXT NOT NULL DEFAULT '',
		operating_system TEXT NOT NULL DEFAULT '',
		browser TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_visits_date_time ON visits(date_time);
	CREATE INDEX IF NOT EXISTS idx_visits_client_id ON visits(client_id);

	CREATE TABLE IF NOT EXISTS hits (
		watch_id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		date_time TIMESTAMP NOT NULL,
		title TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_hits_url ON hits(url);
	CREATE INDEX IF NOT EXISTS idx_hits_date_time ON hits(date_time);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveVisits inserts visits in a single transaction
func (s *sqliteStorage) SaveVisits(ctx context.Context, visits []*domain.Visit) error {
	if len(visits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO visits (
			visit_id, watch_ids, date_time, is_new_user, start_url, end_url,
			page_views, visit_duration, region_city, client_id,
			device_category, operating_system, browser
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range visits {
		_, err = stmt.ExecContext(ctx,
			v.VisitID, strings.Join(v.WatchIDs, ","), v.DateTime, v.IsNewUser,
			v.StartURL, v.EndURL, v.PageViews, v.VisitDurationSec,
			v.RegionCity, v.ClientID, v.DeviceCategory, v.OperatingSystem, v.Browser,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetVisits returns visits inside the time window
func (s *sqliteStorage) GetVisits(ctx context.Context, start, end time.Time) ([]*domain.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT visit_id, watch_ids, date_time, is_new_user, start_url, end_url,
		       page_views, visit_duration, region_city, client_id,
		       device_category, operating_system, browser
		FROM visits
		WHERE date_time BETWEEN ? AND ?
		ORDER BY date_time
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*domain.Visit
	for rows.Next() {
		v := &domain.Visit{}
		var watchIDs string
		if err := rows.Scan(
			&v.VisitID, &watchIDs, &v.DateTime, &v.IsNewUser, &v.StartURL, &v.EndURL,
			&v.PageViews, &v.VisitDurationSec, &v.RegionCity, &v.ClientID,
			&v.DeviceCategory, &v.OperatingSystem, &v.Browser,
		); err != nil {
			return nil, err
		}
		v.WatchIDs = splitWatchIDs(watchIDs)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// CountVisits returns the number of stored visits
func (s *sqliteStorage) CountVisits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&count)
	return count, err
}

// SaveHits inserts hits in a single transaction
func (s *sqliteStorage) SaveHits(ctx context.Context, hits []*domain.Hit) error {
	if len(hits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO hits (watch_id, client_id, url, date_time, title)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range hits {
		if _, err = stmt.ExecContext(ctx, h.WatchID, h.ClientID, h.URL, h.DateTime, h.Title); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetHitsByWatchIDs returns the hits identified by the given watch ids
func (s *sqliteStorage) GetHitsByWatchIDs(ctx context.Context, watchIDs []string) ([]*domain.Hit, error) {
	if len(watchIDs) == 0 {
		return nil, nil
	}

	// SQLite has no array binding, so chunk the IN clause.
	var hits []*domain.Hit
	const chunkSize = 500
	for offset := 0; offset < len(watchIDs); offset += chunkSize {
		chunkEnd := offset + chunkSize
		if chunkEnd > len(watchIDs) {
			chunkEnd = len(watchIDs)
		}
		chunk := watchIDs[offset:chunkEnd]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT watch_id, client_id, url, date_time, title
			FROM hits
			WHERE watch_id IN (`+placeholders+`)
			ORDER BY date_time
		`, args...)
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			h := &domain.Hit{}
			if err := rows.Scan(&h.WatchID, &h.ClientID, &h.URL, &h.DateTime, &h.Title); err != nil {
				rows.Close()
				return nil, err
			}
			hits = append(hits, h)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return hits, nil
}

// CountHits returns the number of stored hits
func (s *sqliteStorage) CountHits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hits`).Scan(&count)
	return count, err
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func splitWatchIDs(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
