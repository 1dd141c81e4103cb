package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/pkg/errors"
)

func TestNewProfile_DefaultMaturity(t *testing.T) {
	child, err := domain.NewProfile("acc-1", "  Kid  ", true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Kid", child.Name)
	assert.Equal(t, 12, child.MaturityLevel)
	assert.True(t, child.IsActive)
	assert.False(t, child.IsOwner)
	assert.NotEqual(t, uuid.Nil, child.ID)

	adult, err := domain.NewProfile("acc-1", "Parent", false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 18, adult.MaturityLevel)
}

func TestNewProfile_Validation(t *testing.T) {
	tooHigh := 19
	negative := -1

	tests := []struct {
		name     string
		input    string
		maturity *int
	}{
		{"blank name", "   ", nil},
		{"long name", strings.Repeat("a", 51), nil},
		{"maturity above range", "Kid", &tooHigh},
		{"maturity below range", "Kid", &negative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := domain.NewProfile("acc-1", tt.input, true, tt.maturity, nil)

			assert.Nil(t, profile)
			assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
		})
	}
}

func TestNormalizeGenres(t *testing.T) {
	got := domain.NormalizeGenres([]string{" Comedy", "", "Drama", "Comedy", "comedy"})
	assert.Equal(t, []string{"Comedy", "Drama", "comedy"}, got)
}

func TestParseProfileID(t *testing.T) {
	id := uuid.New()

	parsed, err := domain.ParseProfileID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	tests := []struct {
		name string
		raw  string
		code errors.Code
	}{
		{"too short", "abc", errors.CodeInvalidProfileIDFormat},
		{"bad characters", "profile/../../etc", errors.CodeInvalidProfileIDFormat},
		{"too long", strings.Repeat("a", 51), errors.CodeInvalidProfileIDFormat},
		{"well formed but unknown", "abcdefghij_1234", errors.CodeProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseProfileID(tt.raw)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestProfile_Apply(t *testing.T) {
	profile, err := domain.NewProfile("acc-1", "Kid", true, nil, []string{"Family"})
	require.NoError(t, err)

	name := " Junior "
	level := 7
	err = profile.Apply(domain.Patch{
		Name:            &name,
		MaturityLevel:   &level,
		PreferredGenres: []string{"Animation", "Animation"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Junior", profile.Name)
	assert.Equal(t, 7, profile.MaturityLevel)
	assert.Equal(t, []string{"Animation"}, profile.PreferredGenres)
	assert.True(t, profile.IsChildProfile)

	bad := 30
	err = profile.Apply(domain.Patch{MaturityLevel: &bad})
	assert.True(t, errors.IsBadRequest(err))
	assert.Equal(t, 7, profile.MaturityLevel)
}

func TestProfile_BelongsTo(t *testing.T) {
	profile, err := domain.NewProfile("acc-1", "Kid", true, nil, nil)
	require.NoError(t, err)

	assert.True(t, profile.BelongsTo("acc-1"))
	assert.False(t, profile.BelongsTo("acc-2"))

	profile.IsActive = false
	assert.False(t, profile.BelongsTo("acc-1"))

	var missing *domain.Profile
	assert.False(t, missing.BelongsTo("acc-1"))
}
