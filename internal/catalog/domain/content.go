package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentType is the kind of catalog entry.
type ContentType string

const (
	ContentTypeMovie       ContentType = "movie"
	ContentTypeSeries      ContentType = "series"
	ContentTypeDocumentary ContentType = "documentary"
	ContentTypeShort       ContentType = "short"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeMovie, ContentTypeSeries, ContentTypeDocumentary, ContentTypeShort:
		return true
	}
	return false
}

// AgeRating is a rating on the ordered G < PG < PG-13 < R < NC-17 scale.
type AgeRating string

const (
	RatingG    AgeRating = "G"
	RatingPG   AgeRating = "PG"
	RatingPG13 AgeRating = "PG-13"
	RatingR    AgeRating = "R"
	RatingNC17 AgeRating = "NC-17"
)

// ratingScale lists ratings from least to most restrictive audience.
var ratingScale = []AgeRating{RatingG, RatingPG, RatingPG13, RatingR, RatingNC17}

// Rank returns the position of r on the scale, or -1 for an unknown rating.
func (r AgeRating) Rank() int {
	for i, v := range ratingScale {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is on the scale.
func (r AgeRating) Valid() bool { return r.Rank() >= 0 }

// ParseAgeRating accepts ratings case-insensitively.
func ParseAgeRating(s string) (AgeRating, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, v := range ratingScale {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// RatingsUpTo returns every rating at or below ceiling, in scale order.
func RatingsUpTo(ceiling AgeRating) []AgeRating {
	rank := ceiling.Rank()
	if rank < 0 {
		return nil
	}
	out := make([]AgeRating, rank+1)
	copy(out, ratingScale[:rank+1])
	return out
}

// Content is a catalog entry as seen by the access and ranking layers.
type Content struct {
	ID                  uuid.UUID   `json:"id"`
	Title               string      `json:"title"`
	Type                ContentType `json:"type"`
	Genres              []string    `json:"genres"`
	AgeRating           AgeRating   `json:"age_rating"`
	AvailableCountries  []string    `json:"available_countries,omitempty"`
	RestrictedCountries []string    `json:"restricted_countries,omitempty"`
	IsGloballyAvailable bool        `json:"is_globally_available"`
	Views               int64       `json:"views"`
	AverageRating       float64     `json:"average_rating"`
	IsActive            bool        `json:"is_active"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// HasGenre reports whether the content is tagged with genre.
func (c *Content) HasGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// SharesGenre reports whether the content carries any of genres.
func (c *Content) SharesGenre(genres []string) bool {
	for _, g := range genres {
		if c.HasGenre(g) {
			return true
		}
	}
	return false
}

// Normalize trims genres and upper-cases country codes in place.
func (c *Content) Normalize() {
	c.Genres = normalizeSet(c.Genres, strings.TrimSpace)
	c.AvailableCountries = normalizeSet(c.AvailableCountries, NormalizeCountry)
	c.RestrictedCountries = normalizeSet(c.RestrictedCountries, NormalizeCountry)
}

func normalizeSet(values []string, norm func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = norm(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Season groups the episodes of a series.
type Season struct {
	ID        uuid.UUID `json:"id"`
	ContentID uuid.UUID `json:"content_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title,omitempty"`
}

// Episode belongs to one season and, denormalized, to its series.
type Episode struct {
	ID              uuid.UUID `json:"id"`
	SeasonID        uuid.UUID `json:"season_id"`
	ContentID       uuid.UUID `json:"content_id"`
	SeasonNumber    int       `json:"season_number"`
	Number          int       `json:"number"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
}
