package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/domain/specification"
)

// ContentSpecification is a predicate over catalog content.
type ContentSpecification = specification.Specification[*Content]

// SQL fragments assume the content table is addressed as "contents".
const (
	genreExistsSQL   = "EXISTS (SELECT 1 FROM content_genres cg WHERE cg.content_id = contents.id AND cg.genre IN ?)"
	countryExistsSQL = "EXISTS (SELECT 1 FROM content_countries cc WHERE cc.content_id = contents.id AND cc.kind = ? AND cc.country = ?)"
)

// Country list kinds stored in content_countries.
const (
	CountryAvailable  = "available"
	CountryRestricted = "restricted"
)

// ActiveSpecification matches content that is published.
type ActiveSpecification struct{}

func (ActiveSpecification) IsSatisfiedBy(c *Content) bool { return c != nil && c.IsActive }

func (ActiveSpecification) ToSQL() (string, []interface{}) {
	return "contents.is_active = ?", []interface{}{true}
}

// GeoSpecification matches content visible in Country.
type GeoSpecification struct {
	Country string
}

// NewGeoSpecification creates a new geo specification
func NewGeoSpecification(country string) *GeoSpecification {
	return &GeoSpecification{Country: NormalizeCountry(country)}
}

func (s *GeoSpecification) IsSatisfiedBy(c *Content) bool {
	return IsVisible(c, s.Country)
}

func (s *GeoSpecification) ToSQL() (string, []interface{}) {
	sql := "NOT " + countryExistsSQL +
		" AND (contents.is_globally_available = ? OR " + countryExistsSQL + ")"
	return sql, []interface{}{CountryRestricted, s.Country, true, CountryAvailable, s.Country}
}

// ChildSafetySpecification matches content a filter allows.
type ChildSafetySpecification struct {
	Filter *ContentFilter
}

// NewChildSafetySpecification returns nil for a nil filter so callers can
// pass the result straight into specification.And.
func NewChildSafetySpecification(f *ContentFilter) ContentSpecification {
	if f == nil {
		return nil
	}
	return &ChildSafetySpecification{Filter: f}
}

func (s *ChildSafetySpecification) IsSatisfiedBy(c *Content) bool {
	return s.Filter.Allows(c)
}

func (s *ChildSafetySpecification) ToSQL() (string, []interface{}) {
	ratings := make([]string, len(s.Filter.AllowedAgeRatings))
	for i, r := range s.Filter.AllowedAgeRatings {
		ratings[i] = string(r)
	}

	parts := []string{"contents.age_rating IN ?", genreExistsSQL}
	params := []interface{}{ratings, s.Filter.AllowedGenres}
	if len(s.Filter.ExcludedGenres) > 0 {
		parts = append(parts, "NOT "+genreExistsSQL)
		params = append(params, s.Filter.ExcludedGenres)
	}
	return strings.Join(parts, " AND "), params
}

// GenreSpecification matches content tagged with any of Genres.
type GenreSpecification struct {
	Genres []string
}

func (s *GenreSpecification) IsSatisfiedBy(c *Content) bool {
	return c != nil && c.SharesGenre(s.Genres)
}

func (s *GenreSpecification) ToSQL() (string, []interface{}) {
	if len(s.Genres) == 0 {
		return "1 = 0", nil
	}
	return genreExistsSQL, []interface{}{s.Genres}
}

// TypeSpecification matches content of one type.
type TypeSpecification struct {
	Type ContentType
}

func (s *TypeSpecification) IsSatisfiedBy(c *Content) bool { return c != nil && c.Type == s.Type }

func (s *TypeSpecification) ToSQL() (string, []interface{}) {
	return "contents.type = ?", []interface{}{string(s.Type)}
}

// CreatedAfterSpecification matches content created at or after Since.
type CreatedAfterSpecification struct {
	Since time.Time
}

func (s *CreatedAfterSpecification) IsSatisfiedBy(c *Content) bool {
	return c != nil && !c.CreatedAt.Before(s.Since)
}

func (s *CreatedAfterSpecification) ToSQL() (string, []interface{}) {
	return "contents.created_at >= ?", []interface{}{s.Since}
}

// ExcludeIDSpecification drops one entry.
type ExcludeIDSpecification struct {
	ID uuid.UUID
}

func (s *ExcludeIDSpecification) IsSatisfiedBy(c *Content) bool { return c != nil && c.ID != s.ID }

func (s *ExcludeIDSpecification) ToSQL() (string, []interface{}) {
	return "contents.id <> ?", []interface{}{s.ID}
}
