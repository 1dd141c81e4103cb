package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
)

// ContentModel represents a catalog entry in the database
type ContentModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title               string    `gorm:"not null"`
	Type                string    `gorm:"size:20;not null;index"`
	AgeRating           string    `gorm:"size:10;not null"`
	IsGloballyAvailable bool      `gorm:"not null"`
	Views               int64     `gorm:"not null"`
	AverageRating       float64   `gorm:"not null"`
	IsActive            bool      `gorm:"not null;index"`
	CreatedAt           time.Time `gorm:"not null;index"`
	UpdatedAt           time.Time `gorm:"not null"`

	Genres    []ContentGenreModel   `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE"`
	Countries []ContentCountryModel `gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE"`
}

func (ContentModel) TableName() string { return "contents" }

// ContentGenreModel tags content with one genre.
type ContentGenreModel struct {
	ContentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Genre     string    `gorm:"size:64;primaryKey;index"`
}

func (ContentGenreModel) TableName() string { return "content_genres" }

// ContentCountryModel lists content as available or restricted in one country.
type ContentCountryModel struct {
	ContentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind      string    `gorm:"size:16;primaryKey"`
	Country   string    `gorm:"size:2;primaryKey;index"`
}

func (ContentCountryModel) TableName() string { return "content_countries" }

// SeasonModel represents a season of a series
type SeasonModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seasons_content_number"`
	Number    int       `gorm:"not null;uniqueIndex:idx_seasons_content_number"`
	Title     string
}

func (SeasonModel) TableName() string { return "seasons" }

// EpisodeModel represents a single episode in a season
type EpisodeModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SeasonID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_episodes_season_number"`
	ContentID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Number          int       `gorm:"not null;uniqueIndex:idx_episodes_season_number"`
	Title           string    `gorm:"not null"`
	DurationSeconds int       `gorm:"not null"`

	Season *SeasonModel `gorm:"foreignKey:SeasonID"`
}

func (EpisodeModel) TableName() string { return "episodes" }

// Models lists every catalog table for migrations.
func Models() []interface{} {
	return []interface{}{
		&ContentModel{},
		&ContentGenreModel{},
		&ContentCountryModel{},
		&SeasonModel{},
		&EpisodeModel{},
	}
}

// ToDomain converts a ContentModel to domain Content
func (m *ContentModel) ToDomain() *domain.Content {
	c := &domain.Content{
		ID:                  m.ID,
		Title:               m.Title,
		Type:                domain.ContentType(m.Type),
		AgeRating:           domain.AgeRating(m.AgeRating),
		IsGloballyAvailable: m.IsGloballyAvailable,
		Views:               m.Views,
		AverageRating:       m.AverageRating,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Genres:              make([]string, 0, len(m.Genres)),
	}
	for _, g := range m.Genres {
		c.Genres = append(c.Genres, g.Genre)
	}
	for _, cc := range m.Countries {
		switch cc.Kind {
		case domain.CountryAvailable:
			c.AvailableCountries = append(c.AvailableCountries, cc.Country)
		case domain.CountryRestricted:
			c.RestrictedCountries = append(c.RestrictedCountries, cc.Country)
		}
	}
	return c
}

// NewContentModel creates a ContentModel from domain Content
func NewContentModel(c *domain.Content) *ContentModel {
	m := &ContentModel{
		ID:                  c.ID,
		Title:               c.Title,
		Type:                string(c.Type),
		AgeRating:           string(c.AgeRating),
		IsGloballyAvailable: c.IsGloballyAvailable,
		Views:               c.Views,
		AverageRating:       c.AverageRating,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	for _, g := range c.Genres {
		m.Genres = append(m.Genres, ContentGenreModel{ContentID: c.ID, Genre: g})
	}
	for _, country := range c.AvailableCountries {
		m.Countries = append(m.Countries, ContentCountryModel{ContentID: c.ID, Kind: domain.CountryAvailable, Country: country})
	}
	for _, country := range c.RestrictedCountries {
		m.Countries = append(m.Countries, ContentCountryModel{ContentID: c.ID, Kind: domain.CountryRestricted, Country: country})
	}
	return m
}

// ToDomain converts an EpisodeModel to a domain Episode
func (m *EpisodeModel) ToDomain() *domain.Episode {
	e := &domain.Episode{
		ID:              m.ID,
		SeasonID:        m.SeasonID,
		ContentID:       m.ContentID,
		Number:          m.Number,
		Title:           m.Title,
		DurationSeconds: m.DurationSeconds,
	}
	if m.Season != nil {
		e.SeasonNumber = m.Season.Number
	}
	return e
}
