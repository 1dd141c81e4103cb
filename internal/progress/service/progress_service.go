package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/access"
	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	"github.com/narwhalmedia/ottcore/internal/progress/domain"
	"github.com/narwhalmedia/ottcore/internal/progress/repository"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/events"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
	"github.com/narwhalmedia/ottcore/pkg/pagination"
)

// Default and maximum list sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// RecordInput is one playback position report.
type RecordInput struct {
	ContentID      uuid.UUID
	EpisodeID      *uuid.UUID
	WatchedSeconds float64
	TotalSeconds   float64
	DeviceType     string
}

// Entry pairs a progress row with the content it refers to.
type Entry struct {
	Progress *domain.WatchProgress `json:"progress"`
	Content  *catalog.Content      `json:"content,omitempty"`
}

// HistoryPage is one page of watch history.
type HistoryPage struct {
	Items         []Entry `json:"items"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// ProgressService tracks playback positions per profile.
type ProgressService struct {
	repo     repository.Repository
	contents catalogrepo.ContentRepository
	eventBus interfaces.EventBus
	cursors  *pagination.CursorEncoder
	logger   interfaces.Logger
	now      func() time.Time
}

// NewProgressService creates a new progress service.
func NewProgressService(
	repo repository.Repository,
	contents catalogrepo.ContentRepository,
	eventBus interfaces.EventBus,
	cursors *pagination.CursorEncoder,
	logger interfaces.Logger,
) *ProgressService {
	return &ProgressService{
		repo:     repo,
		contents: contents,
		eventBus: eventBus,
		cursors:  cursors,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// RecordProgress upserts the position for the viewer's profile. The duration
// is checked before any store access.
func (s *ProgressService) RecordProgress(ctx context.Context, viewer *access.Viewer, in RecordInput) (*domain.WatchProgress, error) {
	if _, err := domain.Compute(in.WatchedSeconds, in.TotalSeconds); err != nil {
		return nil, err
	}
	profile, err := viewer.RequireProfile()
	if err != nil {
		return nil, err
	}

	content, err := s.contents.FindByID(ctx, in.ContentID)
	if err != nil {
		return nil, err
	}
	if !viewer.Allows(content) {
		return nil, errors.ContentNotFound()
	}

	switch {
	case in.EpisodeID != nil:
		if _, err := s.contents.FindEpisode(ctx, content.ID, *in.EpisodeID); err != nil {
			return nil, err
		}
	case content.Type == catalog.ContentTypeSeries:
		return nil, errors.BadRequest("episode_id is required for series")
	}

	seen, err := s.repo.HasContent(ctx, profile.ID, content.ID)
	if err != nil {
		return nil, err
	}

	row, err := domain.NewWatchProgress(profile.ID, content.ID, in.EpisodeID, in.WatchedSeconds, in.TotalSeconds, in.DeviceType, s.now())
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return nil, err
	}
	metrics.ProgressUpserts.WithLabelValues(strconv.FormatBool(stored.IsCompleted)).Inc()

	if !seen {
		if err := s.contents.IncrementViews(ctx, content.ID); err != nil {
			s.logger.Warn("Failed to count view",
				interfaces.String("content_id", content.ID.String()),
				interfaces.Error(err))
		}
	}

	data := map[string]interface{}{
		"profile_id":          profile.ID.String(),
		"content_id":          content.ID.String(),
		"progress_percentage": stored.ProgressPercentage,
		"is_completed":        stored.IsCompleted,
	}
	if stored.EpisodeID != nil {
		data["episode_id"] = stored.EpisodeID.String()
	}
	s.publish(ctx, events.ProgressRecorded, profile.ID.String(), data)

	return stored, nil
}

// ContinueWatching lists unfinished entries the viewer may still see, most
// recently watched first.
func (s *ProgressService) ContinueWatching(ctx context.Context, viewer *access.Viewer, limit int) ([]Entry, error) {
	profile, err := viewer.RequireProfile()
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListContinueWatching(ctx, profile.ID, viewer.Specs(), pagination.NormalizeLimit(limit, DefaultLimit, MaxLimit))
	if err != nil {
		return nil, err
	}
	return s.withContent(ctx, rows)
}

// GetProgress returns the stored position for one movie or episode.
func (s *ProgressService) GetProgress(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, episodeID *uuid.UUID) (*domain.WatchProgress, error) {
	profile, err := viewer.RequireProfile()
	if err != nil {
		return nil, err
	}

	content, err := s.contents.FindByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !viewer.Allows(content) {
		return nil, errors.ContentNotFound()
	}
	return s.repo.Get(ctx, profile.ID, contentID, episodeID)
}

// History lists every entry, completed or not, newest first.
func (s *ProgressService) History(ctx context.Context, viewer *access.Viewer, pageToken string, limit int) (*HistoryPage, error) {
	profile, err := viewer.RequireProfile()
	if err != nil {
		return nil, err
	}
	limit = pagination.NormalizeLimit(limit, DefaultLimit, MaxLimit)

	var after *repository.HistoryCursor
	cursor, err := s.cursors.DecodePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		id, err := uuid.Parse(cursor.AfterID)
		if err != nil {
			return nil, errors.BadRequest("invalid page token")
		}
		after = &repository.HistoryCursor{LastWatchedAt: cursor.AfterTime, ID: id}
	}

	rows, err := s.repo.ListHistory(ctx, profile.ID, viewer.Specs(), after, limit+1)
	if err != nil {
		return nil, err
	}

	page := &HistoryPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextPageToken, err = s.cursors.EncodeCursor(pagination.CreateKeysetCursor(last.LastWatchedAt, last.ID.String()))
		if err != nil {
			return nil, err
		}
	}

	page.Items, err = s.withContent(ctx, rows)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// RemoveProgress deletes an episode entry, or every entry of the content when
// no episode is given.
func (s *ProgressService) RemoveProgress(ctx context.Context, viewer *access.Viewer, contentID uuid.UUID, episodeID *uuid.UUID) error {
	profile, err := viewer.RequireProfile()
	if err != nil {
		return err
	}

	n, err := s.repo.Delete(ctx, profile.ID, contentID, episodeID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("watch progress not found")
	}

	s.publish(ctx, events.ProgressRemoved, profile.ID.String(), map[string]interface{}{
		"profile_id": profile.ID.String(),
		"content_id": contentID.String(),
	})
	return nil
}

func (s *ProgressService) withContent(ctx context.Context, rows []*domain.WatchProgress) ([]Entry, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ContentID)
	}

	contents, err := s.contents.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Progress: r, Content: contents[r.ContentID]}
	}
	return entries, nil
}

func (s *ProgressService) publish(ctx context.Context, eventType, aggregateID string, data map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, events.NewAggregateEvent(eventType, aggregateID, data)); err != nil {
		s.logger.Warn("Failed to publish event",
			interfaces.String("event_type", eventType),
			interfaces.Error(err))
	}
}
