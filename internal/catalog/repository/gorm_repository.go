package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// GormRepository implements ContentRepository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM content repository
func NewGormRepository(db *gorm.DB) ContentRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) filtered(ctx context.Context, q Query) *gorm.DB {
	sql, params := q.Specification().ToSQL()
	return r.db.WithContext(ctx).Model(&ContentModel{}).Where(sql, params...)
}

// FindActiveContent runs the query. The limit is always applied.
func (r *GormRepository) FindActiveContent(ctx context.Context, q Query) ([]*domain.Content, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	db := r.filtered(ctx, q).
		Preload("Genres").
		Preload("Countries").
		Limit(limit).
		Offset(q.Offset)

	switch q.Order {
	case OrderByRating:
		db = db.Order("contents.average_rating DESC").Order("contents.views DESC")
	case OrderByNewest:
		db = db.Order("contents.created_at DESC")
	default:
		db = db.Order("contents.views DESC").Order("contents.average_rating DESC")
	}
	db = db.Order("contents.id ASC")

	var models []ContentModel
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find content: %w", err)
	}

	contents := make([]*domain.Content, len(models))
	for i := range models {
		contents[i] = models[i].ToDomain()
	}
	return contents, nil
}

func (r *GormRepository) CountActiveContent(ctx context.Context, q Query) (int64, error) {
	var count int64
	if err := r.filtered(ctx, q).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return count, nil
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Content, error) {
	var model ContentModel
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Preload("Countries").
		First(&model, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ContentNotFound()
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *GormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Content, error) {
	out := make(map[uuid.UUID]*domain.Content, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []ContentModel
	if err := r.db.WithContext(ctx).
		Preload("Genres").
		Preload("Countries").
		Where("id IN ?", ids).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	for i := range models {
		out[models[i].ID] = models[i].ToDomain()
	}
	return out, nil
}

func (r *GormRepository) FindEpisode(ctx context.Context, contentID, episodeID uuid.UUID) (*domain.Episode, error) {
	var model EpisodeModel
	err := r.db.WithContext(ctx).
		Preload("Season").
		First(&model, "id = ? AND content_id = ?", episodeID, contentID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewCoded(errors.ErrorTypeNotFound, errors.CodeContentNotFound, "episode not found")
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *GormRepository) ListEpisodes(ctx context.Context, contentID uuid.UUID) ([]*domain.Episode, error) {
	var models []EpisodeModel
	err := r.db.WithContext(ctx).
		Preload("Season").
		Joins("JOIN seasons ON seasons.id = episodes.season_id").
		Where("episodes.content_id = ?", contentID).
		Order("seasons.number ASC").
		Order("episodes.number ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	episodes := make([]*domain.Episode, len(models))
	for i := range models {
		episodes[i] = models[i].ToDomain()
	}
	return episodes, nil
}

// CreateContent stores the content and its genre and country lists.
func (r *GormRepository) CreateContent(ctx context.Context, c *domain.Content) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if !c.Type.Valid() {
		return errors.BadRequest(fmt.Sprintf("unknown content type %q", c.Type))
	}
	if !c.AgeRating.Valid() {
		return errors.BadRequest(fmt.Sprintf("unknown age rating %q", c.AgeRating))
	}
	c.Normalize()

	model := NewContentModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.Conflict("content already exists")
		}
		return fmt.Errorf("failed to create content: %w", err)
	}
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormRepository) CreateSeason(ctx context.Context, s *domain.Season) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	model := &SeasonModel{ID: s.ID, ContentID: s.ContentID, Number: s.Number, Title: s.Title}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.Conflict("season already exists")
		}
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateEpisode(ctx context.Context, e *domain.Episode) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	model := &EpisodeModel{
		ID:              e.ID,
		SeasonID:        e.SeasonID,
		ContentID:       e.ContentID,
		Number:          e.Number,
		Title:           e.Title,
		DurationSeconds: e.DurationSeconds,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.Conflict("episode already exists")
		}
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

func (r *GormRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&ContentModel{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment views: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ContentNotFound()
	}
	return nil
}
