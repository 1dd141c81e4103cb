package domain

import "strings"

// NormalizeCountry upper-cases and trims an ISO country code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsVisible decides whether content may be shown in country. A restriction
// always wins. Otherwise global availability or an explicit listing grants
// visibility, so content with neither is visible nowhere.
func IsVisible(c *Content, country string) bool {
	if c == nil {
		return false
	}
	country = NormalizeCountry(country)

	for _, r := range c.RestrictedCountries {
		if NormalizeCountry(r) == country {
			return false
		}
	}
	if c.IsGloballyAvailable {
		return true
	}
	for _, a := range c.AvailableCountries {
		if NormalizeCountry(a) == country {
			return true
		}
	}
	return false
}
