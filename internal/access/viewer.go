// Package access derives the per-request viewing context: who is watching,
// from which country and under which child-safety filter.
package access

import (
	"context"

	"github.com/google/uuid"

	catalog "github.com/narwhalmedia/ottcore/internal/catalog/domain"
	profile "github.com/narwhalmedia/ottcore/internal/profile/domain"
	"github.com/narwhalmedia/ottcore/pkg/auth"
	"github.com/narwhalmedia/ottcore/pkg/errors"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Viewer is the resolved context every catalog read is filtered by.
type Viewer struct {
	AccountID string
	Profile   *profile.Profile
	Country   string
	Filter    *catalog.ContentFilter
}

// ProfileID returns the active profile id, or uuid.Nil without one.
func (v *Viewer) ProfileID() uuid.UUID {
	if v == nil || v.Profile == nil {
		return uuid.Nil
	}
	return v.Profile.ID
}

// RequireProfile returns the active profile or ProfileRequired.
func (v *Viewer) RequireProfile() (*profile.Profile, error) {
	if v == nil || v.Profile == nil {
		return nil, errors.ProfileRequired()
	}
	return v.Profile, nil
}

// ChildFilterApplied reports whether a child-safety filter narrows results.
func (v *Viewer) ChildFilterApplied() bool {
	return v != nil && v.Filter != nil
}

// Specs returns the geo specification and, when present, the child-safety one.
func (v *Viewer) Specs() []catalog.ContentSpecification {
	specs := []catalog.ContentSpecification{catalog.NewGeoSpecification(v.Country)}
	if spec := catalog.NewChildSafetySpecification(v.Filter); spec != nil {
		specs = append(specs, spec)
	}
	return specs
}

// Allows applies the same rules as Specs to a single content entry.
func (v *Viewer) Allows(c *catalog.Content) bool {
	return c != nil && c.IsActive && catalog.IsVisible(c, v.Country) && v.Filter.Allows(c)
}

// ProfileResolver picks the active profile for a principal.
type ProfileResolver interface {
	ResolveActiveProfile(ctx context.Context, principal *auth.Principal, explicitID string, required bool) (*profile.Profile, error)
}

// CountryResolver maps a client IP onto a country code.
type CountryResolver interface {
	ResolveCountry(ctx context.Context, ip string) string
}

// Request carries the raw per-request inputs.
type Request struct {
	Principal *auth.Principal
	// ProfileID is an explicit profile id from the query or a header.
	ProfileID string
	ClientIP  string
	// CountryHint is a country code supplied by a trusted edge proxy.
	CountryHint string
}

// Resolver builds viewers.
type Resolver struct {
	profiles       ProfileResolver
	countries      CountryResolver
	policy         *catalog.ChildPolicy
	defaultCountry string
	logger         interfaces.Logger
}

// NewResolver creates a viewer resolver. countries may be nil, in which case
// every request without a hint uses defaultCountry.
func NewResolver(
	profiles ProfileResolver,
	countries CountryResolver,
	policy *catalog.ChildPolicy,
	defaultCountry string,
	logger interfaces.Logger,
) *Resolver {
	if policy == nil {
		policy = catalog.DefaultChildPolicy()
	}
	return &Resolver{
		profiles:       profiles,
		countries:      countries,
		policy:         policy,
		defaultCountry: catalog.NormalizeCountry(defaultCountry),
		logger:         logger,
	}
}

// Resolve derives the viewer. Profile resolution errors propagate; country
// resolution never fails and falls back to the default.
func (r *Resolver) Resolve(ctx context.Context, req Request, requireProfile bool) (*Viewer, error) {
	if req.Principal == nil {
		return nil, errors.InvalidToken()
	}

	p, err := r.profiles.ResolveActiveProfile(ctx, req.Principal, req.ProfileID, requireProfile)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		AccountID: req.Principal.AccountID,
		Profile:   p,
		Country:   r.country(ctx, req),
	}

	switch {
	case p != nil:
		v.Filter = r.policy.DeriveFilter(p.IsChildProfile, p.MaturityLevel)
	case req.Principal.Child:
		v.Filter = r.policy.Strictest()
	}

	r.logger.Debug("Viewer resolved",
		interfaces.String("account_id", v.AccountID),
		interfaces.String("profile_id", v.ProfileID().String()),
		interfaces.String("country", v.Country),
		interfaces.Bool("child_filter", v.ChildFilterApplied()))

	return v, nil
}

func (r *Resolver) country(ctx context.Context, req Request) string {
	if hint := catalog.NormalizeCountry(req.CountryHint); isCountryCode(hint) {
		return hint
	}
	if r.countries != nil && req.ClientIP != "" {
		if c := catalog.NormalizeCountry(r.countries.ResolveCountry(ctx, req.ClientIP)); isCountryCode(c) {
			return c
		}
	}
	return r.defaultCountry
}

// isCountryCode accepts two upper-case letters. "XX" is the unknown marker
// some edge proxies send.
func isCountryCode(s string) bool {
	if len(s) != 2 || s == "XX" {
		return false
	}
	for _, ch := range s {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}
