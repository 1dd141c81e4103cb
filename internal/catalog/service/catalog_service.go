package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
	"github.com/narwhalmedia/ottcore/internal/catalog/repository"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/pagination"
)

// Default and maximum page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// BrowsePage is one page of the filtered catalog.
type BrowsePage struct {
	Items      []*domain.Content   `json:"items"`
	Pagination pagination.Response `json:"pagination"`
}

// ContentDetail is a single entry with its episodes when it is a series.
type ContentDetail struct {
	*domain.Content
	Episodes []*domain.Episode `json:"episodes,omitempty"`
}

// CatalogService serves catalog reads filtered by the viewer.
type CatalogService struct {
	repo   repository.ContentRepository
	logger interfaces.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ContentRepository, logger interfaces.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// Browse lists visible content, newest first. page starts at 1.
func (s *CatalogService) Browse(ctx context.Context, viewer *access.Viewer, genre string, page, limit int) (*BrowsePage, error) {
	if page < 1 {
		page = 1
	}
	limit = pagination.NormalizeLimit(limit, DefaultLimit, MaxLimit)

	q := repository.Query{
		Specs:  viewer.Specs(),
		Genre:  genre,
		Order:  repository.OrderByNewest,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	total, err := s.repo.CountActiveContent(ctx, q)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.FindActiveContent(ctx, q)
	if err != nil {
		return nil, err
	}

	return &BrowsePage{
		Items: items,
		Pagination: pagination.Response{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			HasMore:    int64(q.Offset+len(items)) < total,
		},
	}, nil
}

// Get returns content the viewer may see. Hidden content is reported as not found.
func (s *CatalogService) Get(ctx context.Context, viewer *access.Viewer, id uuid.UUID) (*ContentDetail, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.Allows(content) {
		return nil, errors.ContentNotFound()
	}

	detail := &ContentDetail{Content: content}
	if content.Type == domain.ContentTypeSeries {
		detail.Episodes, err = s.repo.ListEpisodes(ctx, content.ID)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}
