package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		visit_id BIGINT PRIMARY KEY,
		watch_ids TEXT NOT NULL DEFAULT '',
		date_time TIMESTAMP NOT NULL,
		is_new_user BOOLEAN NOT NULL DEFAULT FALSE,
		start_url TEXT NOT NULL DEFAULT '',
		end_url TEXT NOT NULL DEFAULT '',
		page_views BIGINT NOT NULL DEFAULT 0,
		visit_duration BIGINT NOT NULL DEFAULT 0,
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
func (s *postgresStorage) SaveVisits(ctx context.Context, visits []*domain.Visit) error {
	if len(visits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO visits (
			visit_id, watch_ids, date_time, is_new_user, start_url, end_url,
			page_views, visit_duration, region_city, client_id,
			device_category, operating_system, browser
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (visit_id) DO NOTHING
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
func (s *postgresStorage) GetVisits(ctx context.Context, start, end time.Time) ([]*domain.Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT visit_id, watch_ids, date_time, is_new_user, start_url, end_url,
		       page_views, visit_duration, region_city, client_id,
		       device_category, operating_system, browser
		FROM visits
		WHERE date_time BETWEEN $1 AND $2
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
func (s *postgresStorage) CountVisits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&count)
	return count, err
}

// SaveHits inserts hits in a single transaction
func (s *postgresStorage) SaveHits(ctx context.Context, hits []*domain.Hit) error {
	if len(hits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hits (watch_id, client_id, url, date_time, title)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (watch_id) DO NOTHING
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
func (s *postgresStorage) GetHitsByWatchIDs(ctx context.Context, watchIDs []string) ([]*domain.Hit, error) {
	if len(watchIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT watch_id, client_id, url, date_time, title
		FROM hits
		WHERE watch_id = ANY($1)
		ORDER BY date_time
	`, pq.Array(watchIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*domain.Hit
	for rows.Next() {
		h := &domain.Hit{}
		if err := rows.Scan(&h.WatchID, &h.ClientID, &h.URL, &h.DateTime, &h.Title); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountHits returns the number of stored hits
func (s *postgresStorage) CountHits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hits`).Scan(&count)
	return count, err
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
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
