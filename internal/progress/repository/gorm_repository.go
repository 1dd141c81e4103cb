package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/internal/domain/specification"
	"github.com/narwhalmedia/ottcore/internal/progress/domain"
	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// Partial unique indexes backing the upsert. Movies store a NULL episode id,
// which a plain unique index over all three columns would not deduplicate.
const (
	IndexMovieKey   = "uq_watch_progress_movie"
	IndexEpisodeKey = "uq_watch_progress_episode"
)

// IndexStatements creates the partial unique indexes. Both PostgreSQL and
// SQLite accept them.
var IndexStatements = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS " + IndexMovieKey +
		" ON watch_progress (profile_id, content_id) WHERE episode_id IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS " + IndexEpisodeKey +
		" ON watch_progress (profile_id, content_id, episode_id) WHERE episode_id IS NOT NULL",
}

var upsertColumns = []string{
	"watched_seconds",
	"total_seconds",
	"progress_percentage",
	"is_completed",
	"device_type",
	"last_watched_at",
	"updated_at",
}

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM progress repository
func NewGormRepository(db *gorm.DB) Repository {
	return &GormRepository{db: db}
}

// Upsert relies on INSERT ... ON CONFLICT against the partial unique index
// matching the key, so concurrent writers for the same key serialize in the
// database.
func (r *GormRepository) Upsert(ctx context.Context, p *domain.WatchProgress) (*domain.WatchProgress, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	conflict := clause.OnConflict{
		Columns:     []clause.Column{{Name: "profile_id"}, {Name: "content_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "episode_id IS NULL"}}},
		DoUpdates:   clause.AssignmentColumns(upsertColumns),
	}
	if p.EpisodeID != nil {
		conflict.Columns = append(conflict.Columns, clause.Column{Name: "episode_id"})
		conflict.TargetWhere = clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "episode_id IS NOT NULL"}}}
	}

	if err := r.db.WithContext(ctx).Clauses(conflict).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert watch progress: %w", err)
	}

	// On conflict the generated id is discarded, so read back the stored row.
	return r.Get(ctx, p.ProfileID, p.ContentID, p.EpisodeID)
}

func (r *GormRepository) Get(ctx context.Context, profileID, contentID uuid.UUID, episodeID *uuid.UUID) (*domain.WatchProgress, error) {
	var p domain.WatchProgress
	err := keyScope(r.db.WithContext(ctx), profileID, contentID, episodeID).First(&p).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("watch progress not found")
		}
		return nil, fmt.Errorf("failed to get watch progress: %w", err)
	}
	return &p, nil
}

func (r *GormRepository) HasContent(ctx context.Context, profileID, contentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WatchProgress{}).
		Where("profile_id = ? AND content_id = ?", profileID, contentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check watch progress: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepository) ListContinueWatching(ctx context.Context, profileID uuid.UUID, specs []catalog.ContentSpecification, limit int) ([]*domain.WatchProgress, error) {
	var rows []*domain.WatchProgress
	err := r.joinedContent(ctx, specs).
		Where("watch_progress.profile_id = ? AND watch_progress.is_completed = ?", profileID, false).
		Order("watch_progress.last_watched_at DESC").
		Order("watch_progress.id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list continue watching: %w", err)
	}
	return rows, nil
}

func (r *GormRepository) ListHistory(ctx context.Context, profileID uuid.UUID, specs []catalog.ContentSpecification, after *HistoryCursor, limit int) ([]*domain.WatchProgress, error) {
	db := r.joinedContent(ctx, specs).
		Where("watch_progress.profile_id = ?", profileID)
	if after != nil {
		db = db.Where(
			"(watch_progress.last_watched_at < ? OR (watch_progress.last_watched_at = ? AND watch_progress.id > ?))",
			after.LastWatchedAt, after.LastWatchedAt, after.ID,
		)
	}

	var rows []*domain.WatchProgress
	err := db.
		Order("watch_progress.last_watched_at DESC").
		Order("watch_progress.id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}
	return rows, nil
}

func (r *GormRepository) Delete(ctx context.Context, profileID, contentID uuid.UUID, episodeID *uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx).Where("profile_id = ? AND content_id = ?", profileID, contentID)
	if episodeID != nil {
		db = db.Where("episode_id = ?", *episodeID)
	}

	result := db.Delete(&domain.WatchProgress{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete watch progress: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// joinedContent selects progress rows joined to content that is active and
// passes specs.
func (r *GormRepository) joinedContent(ctx context.Context, specs []catalog.ContentSpecification) *gorm.DB {
	all := append([]catalog.ContentSpecification{catalog.ActiveSpecification{}}, specs...)
	sql, params := specification.And(all...).ToSQL()

	return r.db.WithContext(ctx).
		Model(&domain.WatchProgress{}).
		Select("watch_progress.*").
		Joins("JOIN contents ON contents.id = watch_progress.content_id").
		Where(sql, params...)
}

func keyScope(db *gorm.DB, profileID, contentID uuid.UUID, episodeID *uuid.UUID) *gorm.DB {
	db = db.Where("profile_id = ? AND content_id = ?", profileID, contentID)
	if episodeID == nil {
		return db.Where("episode_id IS NULL")
	}
	return db.Where("episode_id = ?", *episodeID)
}
