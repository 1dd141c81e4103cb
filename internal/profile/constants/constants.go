package constants

const (
	// MaxActiveProfiles is the per-account cap on active profiles.
	MaxActiveProfiles = 5

	// Maturity levels.
	MinMaturityLevel          = 0
	MaxMaturityLevel          = 18
	DefaultChildMaturityLevel = 12

	MaxProfileNameLength = 50
	MaxPreferredGenres   = 20
)
