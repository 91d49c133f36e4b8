package storage

import (
	"context"
	"time"

	"github.com/vihorki/metrics-analyzer/internal/domain"
)

// Storage is the abstract interface for the persistence layer
type Storage interface {
	// Visit operations
	SaveVisits(ctx context.Context, visits []*domain.Visit) error
	GetVisits(ctx context.Context, start, end time.Time) ([]*domain.Visit, error)
	CountVisits(ctx context.Context) (int64, error)

	// Hit operations
	SaveHits(ctx context.Context, hits []*domain.Hit) error
	GetHitsByWatchIDs(ctx context.Context, watchIDs []string) ([]*domain.Hit, error)
	CountHits(ctx context.Context) (int64, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
