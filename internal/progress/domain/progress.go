package domain

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// CompletionThreshold is the percentage at which an entry counts as watched.
const CompletionThreshold = 90.0

// completionTolerance absorbs float rounding so 0.9*total always completes.
const completionTolerance = 1e-9

// WatchProgress is the playback position of one profile on one movie or episode.
// There is at most one row per (profile, content, episode).
type WatchProgress struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_watch_progress_recent,priority:1" json:"profile_id"`
	ContentID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"content_id"`
	EpisodeID          *uuid.UUID `gorm:"type:uuid" json:"episode_id,omitempty"`
	WatchedSeconds     float64    `gorm:"not null" json:"watched_seconds"`
	TotalSeconds       float64    `gorm:"not null" json:"total_seconds"`
	ProgressPercentage float64    `gorm:"not null" json:"progress_percentage"`
	IsCompleted        bool       `gorm:"not null" json:"is_completed"`
	DeviceType         string     `gorm:"size:32" json:"device_type,omitempty"`
	LastWatchedAt      time.Time  `gorm:"not null;index:idx_watch_progress_recent,priority:2" json:"last_watched_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (WatchProgress) TableName() string { return "watch_progress" }

// Computed holds the derived fields of a progress report.
type Computed struct {
	WatchedSeconds     float64
	ProgressPercentage float64
	IsCompleted        bool
}

// Compute clamps watched into [0, total] and derives the percentage and
// completion flag. The percentage is rounded to two decimals; completion is
// decided on the unrounded value.
func Compute(watched, total float64) (Computed, error) {
	if !(total > 0) || math.IsInf(total, 0) {
		return Computed{}, errors.InvalidDuration()
	}
	if math.IsNaN(watched) || watched < 0 {
		watched = 0
	}
	if watched > total {
		watched = total
	}

	pct := watched / total * 100
	pct = math.Min(math.Max(pct, 0), 100)

	return Computed{
		WatchedSeconds:     watched,
		ProgressPercentage: math.Round(pct*100) / 100,
		IsCompleted:        pct+completionTolerance >= CompletionThreshold,
	}, nil
}

// NewWatchProgress builds the row for a progress report at time now.
func NewWatchProgress(profileID, contentID uuid.UUID, episodeID *uuid.UUID, watched, total float64, deviceType string, now time.Time) (*WatchProgress, error) {
	c, err := Compute(watched, total)
	if err != nil {
		return nil, err
	}

	return &WatchProgress{
		ID:                 uuid.New(),
		ProfileID:          profileID,
		ContentID:          contentID,
		EpisodeID:          episodeID,
		WatchedSeconds:     c.WatchedSeconds,
		TotalSeconds:       total,
		ProgressPercentage: c.ProgressPercentage,
		IsCompleted:        c.IsCompleted,
		DeviceType:         deviceType,
		LastWatchedAt:      now,
	}, nil
}

// ResumeAt is the position playback should resume from. Completed entries restart.
func (p *WatchProgress) ResumeAt() float64 {
	if p.IsCompleted {
		return 0
	}
	return p.WatchedSeconds
}
