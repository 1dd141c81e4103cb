package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/ottcore/internal/catalog/domain"
)

func tieredPolicy(t *testing.T) *domain.ChildPolicy {
	t.Helper()
	policy, err := domain.NewChildPolicy([]domain.ChildSafetyTier{
		{
			MaxMaturityLevel: 12,
			MaxAgeRating:     domain.RatingPG,
			AllowedGenres:    []string{"Family", "Animation", "Comedy"},
			ExcludedGenres:   []string{"Horror", "Crime"},
		},
		{
			MaxMaturityLevel: 7,
			MaxAgeRating:     domain.RatingG,
			AllowedGenres:    []string{"Family", "Animation"},
			ExcludedGenres:   []string{"Horror", "Crime", "Thriller"},
		},
		{
			MaxMaturityLevel: 18,
			MaxAgeRating:     domain.RatingPG13,
			AllowedGenres:    []string{"Family", "Animation", "Comedy", "Adventure"},
			ExcludedGenres:   []string{"Horror"},
		},
	})
	require.NoError(t, err)
	return policy
}

func TestChildPolicy_DeriveFilter_NonChild(t *testing.T) {
	policy := tieredPolicy(t)

	assert.Nil(t, policy.DeriveFilter(false, 5))
	assert.Nil(t, policy.DeriveFilter(false, 18))
}

func TestChildPolicy_DeriveFilter_Tiers(t *testing.T) {
	policy := tieredPolicy(t)

	tests := []struct {
		name     string
		maturity int
		ceiling  domain.AgeRating
		tier     int
	}{
		{"youngest", 0, domain.RatingG, 7},
		{"at first threshold", 7, domain.RatingG, 7},
		{"middle tier", 8, domain.RatingPG, 12},
		{"default child level", 12, domain.RatingPG, 12},
		{"top tier", 16, domain.RatingPG13, 18},
		{"above every threshold", 25, domain.RatingPG13, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := policy.DeriveFilter(true, tt.maturity)

			require.NotNil(t, filter)
			assert.Equal(t, tt.ceiling, filter.MaxAgeRating)
			assert.Equal(t, tt.tier, filter.TierMaxMaturity)
			assert.Equal(t, domain.RatingsUpTo(tt.ceiling), filter.AllowedAgeRatings)
		})
	}
}

func TestChildPolicy_Monotonic(t *testing.T) {
	policy := tieredPolicy(t)

	prev := -1
	for level := 0; level <= 18; level++ {
		rank := policy.DeriveFilter(true, level).MaxAgeRating.Rank()
		assert.GreaterOrEqual(t, rank, prev, "level %d", level)
		assert.LessOrEqual(t, rank, domain.ChildSafeCeiling.Rank())
		prev = rank
	}
}

func TestChildPolicy_Strictest(t *testing.T) {
	filter := tieredPolicy(t).Strictest()

	require.NotNil(t, filter)
	assert.Equal(t, domain.RatingG, filter.MaxAgeRating)
	assert.Equal(t, 7, filter.TierMaxMaturity)
}

func TestNewChildPolicy_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		tiers []domain.ChildSafetyTier
	}{
		{"empty", nil},
		{"rating above PG-13", []domain.ChildSafetyTier{
			{MaxMaturityLevel: 18, MaxAgeRating: domain.RatingR, AllowedGenres: []string{"Family"}},
		}},
		{"unknown rating", []domain.ChildSafetyTier{
			{MaxMaturityLevel: 18, MaxAgeRating: "X", AllowedGenres: []string{"Family"}},
		}},
		{"no allowed genres", []domain.ChildSafetyTier{
			{MaxMaturityLevel: 18, MaxAgeRating: domain.RatingG},
		}},
		{"duplicate thresholds", []domain.ChildSafetyTier{
			{MaxMaturityLevel: 10, MaxAgeRating: domain.RatingG, AllowedGenres: []string{"Family"}},
			{MaxMaturityLevel: 10, MaxAgeRating: domain.RatingPG, AllowedGenres: []string{"Family"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := domain.NewChildPolicy(tt.tiers)

			assert.Error(t, err)
			assert.Nil(t, policy)
		})
	}
}

func TestContentFilter_Allows(t *testing.T) {
	filter := domain.DefaultChildPolicy().DeriveFilter(true, 12)

	tests := []struct {
		name    string
		content *domain.Content
		want    bool
	}{
		{"family G", &domain.Content{AgeRating: domain.RatingG, Genres: []string{"Family"}}, true},
		{"PG-13 comedy", &domain.Content{AgeRating: domain.RatingPG13, Genres: []string{"Comedy"}}, true},
		{"R rated", &domain.Content{AgeRating: domain.RatingR, Genres: []string{"Family"}}, false},
		{"no allowed genre", &domain.Content{AgeRating: domain.RatingG, Genres: []string{"Documentary"}}, false},
		{"excluded genre wins", &domain.Content{AgeRating: domain.RatingG, Genres: []string{"Family", "Horror"}}, false},
		{"no genres", &domain.Content{AgeRating: domain.RatingG}, false},
		{"genres are case sensitive", &domain.Content{AgeRating: domain.RatingG, Genres: []string{"family"}}, false},
		{"nil content", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Allows(tt.content))
		})
	}

	var none *domain.ContentFilter
	assert.True(t, none.Allows(&domain.Content{AgeRating: domain.RatingNC17}))
}

func TestRatings(t *testing.T) {
	assert.Equal(t, []domain.AgeRating{domain.RatingG, domain.RatingPG, domain.RatingPG13}, domain.RatingsUpTo(domain.RatingPG13))
	assert.Nil(t, domain.RatingsUpTo("X"))

	rating, ok := domain.ParseAgeRating(" pg-13 ")
	assert.True(t, ok)
	assert.Equal(t, domain.RatingPG13, rating)

	_, ok = domain.ParseAgeRating("MA")
	assert.False(t, ok)
}
