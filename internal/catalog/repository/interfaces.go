package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/internal/domain/specification"
)

// Order selects the ranking applied to a content query. Every order ends
// with id ascending so equal rows come back in a stable order.
type Order int

const (
	// OrderByViews ranks by views, then average rating.
	OrderByViews Order = iota
	// OrderByRating ranks by average rating, then views.
	OrderByRating
	// OrderByNewest ranks by creation time, newest first.
	OrderByNewest
)

// MaxQueryLimit caps any single content query. It leaves room for the
// doubled candidate pool of personalized ranking.
const MaxQueryLimit = 200

// Query describes a filtered, ordered and bounded content lookup. Only
// active content is ever returned.
type Query struct {
	Specs            []domain.ContentSpecification
	CreatedAfter     *time.Time
	Genre            string
	Type             domain.ContentType
	ExcludeID        uuid.UUID
	SharesGenresWith []string
	Order            Order
	Limit            int
	Offset           int
}

// Specification folds the query's filters into a single specification.
func (q Query) Specification() domain.ContentSpecification {
	specs := append([]domain.ContentSpecification{domain.ActiveSpecification{}}, q.Specs...)
	if q.CreatedAfter != nil {
		specs = append(specs, &domain.CreatedAfterSpecification{Since: *q.CreatedAfter})
	}
	if q.Genre != "" {
		specs = append(specs, &domain.GenreSpecification{Genres: []string{q.Genre}})
	}
	if q.Type != "" {
		specs = append(specs, &domain.TypeSpecification{Type: q.Type})
	}
	if q.ExcludeID != uuid.Nil {
		specs = append(specs, &domain.ExcludeIDSpecification{ID: q.ExcludeID})
	}
	if q.SharesGenresWith != nil {
		specs = append(specs, &domain.GenreSpecification{Genres: q.SharesGenresWith})
	}
	return specification.And(specs...)
}

// ContentRepository is the catalog store consumed by the access and ranking layers.
type ContentRepository interface {
	FindActiveContent(ctx context.Context, q Query) ([]*domain.Content, error)
	CountActiveContent(ctx context.Context, q Query) (int64, error)
	// FindByID returns the content whether or not it is active.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Content, error)
	// FindByIDs returns the content found among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Content, error)
	FindEpisode(ctx context.Context, contentID, episodeID uuid.UUID) (*domain.Episode, error)
	ListEpisodes(ctx context.Context, contentID uuid.UUID) ([]*domain.Episode, error)

	CreateContent(ctx context.Context, c *domain.Content) error
	CreateSeason(ctx context.Context, s *domain.Season) error
	CreateEpisode(ctx context.Context, e *domain.Episode) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
}
