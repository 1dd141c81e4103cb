package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/ottcore/internal/profile/constants"
	"github.com/narwhalmedia/ottcore/pkg/errors"
)

// profileIDPattern is the opaque token shape accepted before any store lookup.
var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,50}$`)

// Account is the subscriber that owns profiles. Its ID is the identity provider subject.
type Account struct {
	ID               string     `gorm:"primaryKey;size:128"`
	DefaultProfileID *uuid.UUID `gorm:"type:uuid"`
	IsActive         bool       `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Profile is one viewer within an account.
type Profile struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID       string    `gorm:"size:128;not null;index"`
	Name            string    `gorm:"size:50;not null"`
	IsOwner         bool      `gorm:"not null"`
	IsChildProfile  bool      `gorm:"column:is_child;not null"`
	MaturityLevel   int       `gorm:"not null"`
	PreferredGenres []string  `gorm:"serializer:json;type:text"`
	AvatarKey       string
	IsActive        bool `gorm:"not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName pins the table name used by migrations.
func (Profile) TableName() string { return "profiles" }

// TableName pins the table name used by migrations.
func (Account) TableName() string { return "accounts" }

// NewProfile builds an active profile. A nil maturity level takes the default
// for the profile kind.
func NewProfile(accountID, name string, child bool, maturity *int, genres []string) (*Profile, error) {
	name = NormalizeName(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	level := DefaultMaturityLevel(child)
	if maturity != nil {
		level = *maturity
	}
	if err := ValidateMaturityLevel(level); err != nil {
		return nil, err
	}

	return &Profile{
		ID:              uuid.New(),
		AccountID:       accountID,
		Name:            name,
		IsChildProfile:  child,
		MaturityLevel:   level,
		PreferredGenres: NormalizeGenres(genres),
		IsActive:        true,
	}, nil
}

// BelongsTo reports whether the profile is an active profile of the account.
func (p *Profile) BelongsTo(accountID string) bool {
	return p != nil && p.IsActive && p.AccountID == accountID
}

// DefaultMaturityLevel is 12 for child profiles and unrestricted otherwise.
func DefaultMaturityLevel(child bool) int {
	if child {
		return constants.DefaultChildMaturityLevel
	}
	return constants.MaxMaturityLevel
}

// NormalizeName trims surrounding whitespace. Names are compared case-sensitively.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateName(name string) error {
	if name == "" {
		return errors.BadRequest("profile name is required")
	}
	if len([]rune(name)) > constants.MaxProfileNameLength {
		return errors.BadRequest("profile name is too long")
	}
	return nil
}

func ValidateMaturityLevel(level int) error {
	if level < constants.MinMaturityLevel || level > constants.MaxMaturityLevel {
		return errors.BadRequest("maturity level must be between 0 and 18")
	}
	return nil
}

// NormalizeGenres trims entries and drops blanks and duplicates, keeping order.
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// ParseProfileID validates the opaque id shape and then parses it.
// A well-formed id that is not a UUID cannot name a stored profile.
func ParseProfileID(raw string) (uuid.UUID, error) {
	if !profileIDPattern.MatchString(raw) {
		return uuid.Nil, errors.InvalidProfileIDFormat()
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.ProfileNotFound()
	}
	return id, nil
}

// Patch holds the optional fields of a profile update.
type Patch struct {
	Name            *string
	IsChildProfile  *bool
	MaturityLevel   *int
	PreferredGenres []string
	AvatarKey       *string
}

// Apply validates and applies the patch in place.
func (p *Profile) Apply(patch Patch) error {
	if patch.Name != nil {
		name := NormalizeName(*patch.Name)
		if err := ValidateName(name); err != nil {
			return err
		}
		p.Name = name
	}
	if patch.IsChildProfile != nil {
		p.IsChildProfile = *patch.IsChildProfile
	}
	if patch.MaturityLevel != nil {
		if err := ValidateMaturityLevel(*patch.MaturityLevel); err != nil {
			return err
		}
		p.MaturityLevel = *patch.MaturityLevel
	}
	if patch.PreferredGenres != nil {
		p.PreferredGenres = NormalizeGenres(patch.PreferredGenres)
	}
	if patch.AvatarKey != nil {
		p.AvatarKey = *patch.AvatarKey
	}
	return nil
}
