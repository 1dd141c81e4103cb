package domain

import (
	"fmt"
	"sort"
)

// ChildSafeCeiling is the highest rating any child tier may admit.
const ChildSafeCeiling = RatingPG13

// ContentFilter narrows what a child profile may see.
type ContentFilter struct {
	MaxAgeRating      AgeRating   `json:"max_age_rating"`
	AllowedAgeRatings []AgeRating `json:"allowed_age_ratings"`
	AllowedGenres     []string    `json:"allowed_genres"`
	ExcludedGenres    []string    `json:"excluded_genres"`
	// TierMaxMaturity is the threshold of the tier the filter came from.
	TierMaxMaturity int `json:"tier_max_maturity"`
}

// Allows reports whether content passes the filter: an allowed rating, at
// least one allowed genre and no excluded genre. A nil filter allows everything.
func (f *ContentFilter) Allows(c *Content) bool {
	if f == nil {
		return true
	}
	if c == nil {
		return false
	}

	ratingOK := false
	for _, r := range f.AllowedAgeRatings {
		if r == c.AgeRating {
			ratingOK = true
			break
		}
	}
	if !ratingOK {
		return false
	}

	if !c.SharesGenre(f.AllowedGenres) {
		return false
	}
	return !c.SharesGenre(f.ExcludedGenres)
}

// ChildSafetyTier holds the rules for child profiles whose maturity level is
// at most MaxMaturityLevel.
type ChildSafetyTier struct {
	MaxMaturityLevel int
	MaxAgeRating     AgeRating
	AllowedGenres    []string
	ExcludedGenres   []string
}

// ChildPolicy maps child profiles onto filters through a tier table.
type ChildPolicy struct {
	tiers []ChildSafetyTier
}

// NewChildPolicy validates and sorts the tier table. Tiers must not admit
// anything above PG-13 and must allow at least one genre.
func NewChildPolicy(tiers []ChildSafetyTier) (*ChildPolicy, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("child safety policy needs at least one tier")
	}

	sorted := make([]ChildSafetyTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MaxMaturityLevel < sorted[j].MaxMaturityLevel
	})

	for i, t := range sorted {
		if !t.MaxAgeRating.Valid() || t.MaxAgeRating.Rank() > ChildSafeCeiling.Rank() {
			return nil, fmt.Errorf("tier %d: rating ceiling %q is not child safe", t.MaxMaturityLevel, t.MaxAgeRating)
		}
		if len(t.AllowedGenres) == 0 {
			return nil, fmt.Errorf("tier %d: allowed genres must not be empty", t.MaxMaturityLevel)
		}
		if i > 0 && sorted[i-1].MaxMaturityLevel == t.MaxMaturityLevel {
			return nil, fmt.Errorf("duplicate tier threshold %d", t.MaxMaturityLevel)
		}
	}

	return &ChildPolicy{tiers: sorted}, nil
}

// DefaultChildPolicy is a single tier: up to PG-13, family genres allowed,
// mature genres excluded.
func DefaultChildPolicy() *ChildPolicy {
	policy, _ := NewChildPolicy([]ChildSafetyTier{{
		MaxMaturityLevel: 18,
		MaxAgeRating:     RatingPG13,
		AllowedGenres:    []string{"Family", "Animation", "Comedy", "Adventure", "Fantasy"},
		ExcludedGenres:   []string{"Horror", "Thriller", "Crime", "Drama", "Romance"},
	}})
	return policy
}

// DeriveFilter returns nil for non-child profiles. A child profile gets the
// first tier whose threshold covers its maturity level, or the most
// permissive tier when the level is above every threshold.
func (p *ChildPolicy) DeriveFilter(isChild bool, maturityLevel int) *ContentFilter {
	if !isChild || p == nil || len(p.tiers) == 0 {
		return nil
	}

	tier := p.tiers[len(p.tiers)-1]
	for _, t := range p.tiers {
		if t.MaxMaturityLevel >= maturityLevel {
			tier = t
			break
		}
	}

	return &ContentFilter{
		MaxAgeRating:      tier.MaxAgeRating,
		AllowedAgeRatings: RatingsUpTo(tier.MaxAgeRating),
		AllowedGenres:     append([]string(nil), tier.AllowedGenres...),
		ExcludedGenres:    append([]string(nil), tier.ExcludedGenres...),
		TierMaxMaturity:   tier.MaxMaturityLevel,
	}
}

// Strictest returns the filter of the lowest tier. Used when a token marks the
// caller as a child but no profile is resolved.
func (p *ChildPolicy) Strictest() *ContentFilter {
	if p == nil || len(p.tiers) == 0 {
		return nil
	}
	return p.DeriveFilter(true, p.tiers[0].MaxMaturityLevel)
}
