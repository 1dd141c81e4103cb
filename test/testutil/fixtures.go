package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	profile "github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/pkg/auth"
)

// FixedNow is the reference clock used across tests.
var FixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ContentOption customizes a fixture.
type ContentOption func(*catalog.Content)

// WithGenres sets the genres.
func WithGenres(genres ...string) ContentOption {
	return func(c *catalog.Content) { c.Genres = genres }
}

// WithRating sets the age rating.
func WithRating(r catalog.AgeRating) ContentOption {
	return func(c *catalog.Content) { c.AgeRating = r }
}

// AvailableIn limits the content to the given countries.
func AvailableIn(countries ...string) ContentOption {
	return func(c *catalog.Content) {
		c.IsGloballyAvailable = false
		c.AvailableCountries = countries
	}
}

// RestrictedIn blocks the content in the given countries.
func RestrictedIn(countries ...string) ContentOption {
	return func(c *catalog.Content) { c.RestrictedCountries = countries }
}

// WithStats sets views and average rating.
func WithStats(views int64, rating float64) ContentOption {
	return func(c *catalog.Content) {
		c.Views = views
		c.AverageRating = rating
	}
}

// CreatedAgo sets the creation time relative to FixedNow.
func CreatedAgo(d time.Duration) ContentOption {
	return func(c *catalog.Content) { c.CreatedAt = FixedNow.Add(-d) }
}

// Inactive marks the content as withdrawn.
func Inactive() ContentOption {
	return func(c *catalog.Content) { c.IsActive = false }
}

// AsSeries makes the content a series.
func AsSeries() ContentOption {
	return func(c *catalog.Content) { c.Type = catalog.ContentTypeSeries }
}

// NewMovie builds an active, globally available G-rated movie created a day
// before FixedNow.
func NewMovie(title string, opts ...ContentOption) *catalog.Content {
	c := &catalog.Content{
		ID:                  uuid.New(),
		Title:               title,
		Type:                catalog.ContentTypeMovie,
		Genres:              []string{"Family"},
		AgeRating:           catalog.RatingG,
		IsGloballyAvailable: true,
		IsActive:            true,
		CreatedAt:           FixedNow.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.UpdatedAt = c.CreatedAt
	return c
}

// SeedContent stores every entry.
func SeedContent(t *testing.T, repo catalogrepo.ContentRepository, contents ...*catalog.Content) {
	t.Helper()
	for _, c := range contents {
		require.NoError(t, repo.CreateContent(context.Background(), c))
	}
}

// SeedSeries stores a series with one season of n episodes.
func SeedSeries(t *testing.T, repo catalogrepo.ContentRepository, series *catalog.Content, n int) []*catalog.Episode {
	t.Helper()
	ctx := context.Background()
	series.Type = catalog.ContentTypeSeries
	require.NoError(t, repo.CreateContent(ctx, series))

	season := &catalog.Season{ContentID: series.ID, Number: 1}
	require.NoError(t, repo.CreateSeason(ctx, season))

	episodes := make([]*catalog.Episode, 0, n)
	for i := 1; i <= n; i++ {
		ep := &catalog.Episode{
			SeasonID:        season.ID,
			ContentID:       series.ID,
			SeasonNumber:    1,
			Number:          i,
			Title:           "Episode",
			DurationSeconds: 1800,
		}
		require.NoError(t, repo.CreateEpisode(ctx, ep))
		episodes = append(episodes, ep)
	}
	return episodes
}

// NewAccountID returns a fresh identity subject.
func NewAccountID() string {
	return "acct-" + uuid.NewString()
}

// NewPrincipal returns a principal for accountID with no profile claims.
func NewPrincipal(accountID string) *auth.Principal {
	return &auth.Principal{AccountID: accountID, ExpiresAt: FixedNow.Add(time.Hour)}
}

// NewChildProfile builds an in-memory child profile at maturity.
func NewChildProfile(accountID string, maturity int) *profile.Profile {
	p, err := profile.NewProfile(accountID, "Kid "+uuid.NewString()[:8], true, &maturity, nil)
	if err != nil {
		panic(err)
	}
	return p
}

// NewAdultProfile builds an in-memory adult profile.
func NewAdultProfile(accountID string) *profile.Profile {
	p, err := profile.NewProfile(accountID, "Adult "+uuid.NewString()[:8], false, nil, nil)
	if err != nil {
		panic(err)
	}
	return p
}
