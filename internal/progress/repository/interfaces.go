package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/internal/progress/domain"
)

// HistoryCursor positions a history page after the last row served.
type HistoryCursor struct {
	LastWatchedAt time.Time
	ID            uuid.UUID
}

// Repository stores watch progress.
type Repository interface {
	// Upsert inserts or overwrites the row for the progress key and returns
	// the stored row.
	Upsert(ctx context.Context, p *domain.WatchProgress) (*domain.WatchProgress, error)
	Get(ctx context.Context, profileID, contentID uuid.UUID, episodeID *uuid.UUID) (*domain.WatchProgress, error)
	// HasContent reports whether the profile has any row for the content.
	HasContent(ctx context.Context, profileID, contentID uuid.UUID) (bool, error)
	// ListContinueWatching returns unfinished rows whose content is active and
	// satisfies specs, most recent first.
	ListContinueWatching(ctx context.Context, profileID uuid.UUID, specs []catalog.ContentSpecification, limit int) ([]*domain.WatchProgress, error)
	// ListHistory returns every row whose content satisfies specs, most recent
	// first, starting after the cursor.
	ListHistory(ctx context.Context, profileID uuid.UUID, specs []catalog.ContentSpecification, after *HistoryCursor, limit int) ([]*domain.WatchProgress, error)
	// Delete removes one episode row, or every row of the content when
	// episodeID is nil. It returns the number of rows removed.
	Delete(ctx context.Context, profileID, contentID uuid.UUID, episodeID *uuid.UUID) (int64, error)
}
