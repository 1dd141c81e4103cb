package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
	"github.com/narwhalmedia/ottcore/pkg/pagination"
)

// Kind names a recommendation list.
type Kind string

const (
	KindTrending     Kind = "trending"
	KindPopular      Kind = "popular"
	KindPersonalized Kind = "personalized"
	KindSimilar      Kind = "similar"
)

// Default and maximum result sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100

	DefaultTrendingWindow = 30 * 24 * time.Hour
)

// Filters records which constraints shaped a result.
type Filters struct {
	ChildFilterApplied bool   `json:"child_filter_applied"`
	Country            string `json:"country"`
	// MaturityTier is the threshold of the child-safety tier in force.
	MaturityTier *int `json:"maturity_tier,omitempty"`
}

// Result is a ranked list plus the filters applied to it.
type Result struct {
	Kind    Kind               `json:"kind"`
	Items   []*catalog.Content `json:"items"`
	Filters Filters            `json:"filters"`
}

// Engine ranks catalog content for a viewer. Every list is narrowed by the
// viewer's geo filter and, for child profiles, by the child-safety filter
// before ranking, and every query is bounded.
type Engine struct {
	contents       catalogrepo.ContentRepository
	shuffler       Shuffler
	logger         interfaces.Logger
	trendingWindow time.Duration
	now            func() time.Time
}

// NewEngine creates a new recommendation engine.
func NewEngine(contents catalogrepo.ContentRepository, shuffler Shuffler, logger interfaces.Logger) *Engine {
	if shuffler == nil {
		shuffler = NewTimeSeededShuffler()
	}
	return &Engine{
		contents:       contents,
		shuffler:       shuffler,
		logger:         logger,
		trendingWindow: DefaultTrendingWindow,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithTrendingWindow overrides the trailing window trending looks at.
func (e *Engine) WithTrendingWindow(d time.Duration) *Engine {
	if d > 0 {
		e.trendingWindow = d
	}
	return e
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Trending ranks content created within the trailing window by views, then
// average rating, then id.
func (e *Engine) Trending(ctx context.Context, viewer *access.Viewer, limit int) (*Result, error) {
	since := e.now().Add(-e.trendingWindow)
	items, err := e.contents.FindActiveContent(ctx, catalogrepo.Query{
		Specs:        viewer.Specs(),
		CreatedAfter: &since,
		Order:        catalogrepo.OrderByViews,
		Limit:        normalizeLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return e.result(KindTrending, viewer, items), nil
}

// Popular ranks all content, optionally within one genre, by average rating,
// then views, then id.
func (e *Engine) Popular(ctx context.Context, viewer *access.Viewer, genre string, limit int) (*Result, error) {
	items, err := e.contents.FindActiveContent(ctx, catalogrepo.Query{
		Specs: viewer.Specs(),
		Genre: genre,
		Order: catalogrepo.OrderByRating,
		Limit: normalizeLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return e.result(KindPopular, viewer, items), nil
}

// Personalized takes the top 2*limit candidates by rating and views, shuffles
// them and keeps limit. It requires an active profile.
func (e *Engine) Personalized(ctx context.Context, viewer *access.Viewer, limit int) (*Result, error) {
	if _, err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	candidates, err := e.contents.FindActiveContent(ctx, catalogrepo.Query{
		Specs: viewer.Specs(),
		Order: catalogrepo.OrderByRating,
		Limit: 2 * limit,
	})
	if err != nil {
		return nil, err
	}

	e.shuffler.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return e.result(KindPersonalized, viewer, candidates), nil
}

// Similar ranks content of the same type sharing a genre with the reference,
// by average rating, then views, then id. A reference the viewer cannot see
// is reported as not found.
func (e *Engine) Similar(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, limit int) (*Result, error) {
	ref, err := e.contents.FindByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !viewer.Allows(ref) {
		return nil, errors.ContentNotFound()
	}
	if len(ref.Genres) == 0 {
		return e.result(KindSimilar, viewer, []*catalog.Content{}), nil
	}

	items, err := e.contents.FindActiveContent(ctx, catalogrepo.Query{
		Specs:            viewer.Specs(),
		Type:             ref.Type,
		ExcludeID:        ref.ID,
		SharesGenresWith: ref.Genres,
		Order:            catalogrepo.OrderByRating,
		Limit:            normalizeLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return e.result(KindSimilar, viewer, items), nil
}

func (e *Engine) result(kind Kind, viewer *access.Viewer, items []*catalog.Content) *Result {
	filters := Filters{
		ChildFilterApplied: viewer.ChildFilterApplied(),
		Country:            viewer.Country,
	}
	if viewer.Filter != nil {
		tier := viewer.Filter.TierMaxMaturity
		filters.MaturityTier = &tier
	}

	metrics.RecommendationRequests.WithLabelValues(string(kind), strconv.FormatBool(filters.ChildFilterApplied)).Inc()
	metrics.RecommendationResultSize.WithLabelValues(string(kind)).Observe(float64(len(items)))

	e.logger.Debug("Recommendations served",
		interfaces.String("kind", string(kind)),
		interfaces.Int("count", len(items)),
		interfaces.String("country", filters.Country),
		interfaces.Bool("child_filter", filters.ChildFilterApplied))

	return &Result{Kind: kind, Items: items, Filters: filters}
}

func normalizeLimit(limit int) int {
	return pagination.NormalizeLimit(limit, DefaultLimit, MaxLimit)
}
