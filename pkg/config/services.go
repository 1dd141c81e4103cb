package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// childSafeRatings are the only ratings a child-safety tier ceiling may name.
var childSafeRatings = []string{"G", "PG", "PG-13"}

// OTTConfig extends BaseConfig with the profile, catalog and recommendation settings.
type OTTConfig struct {
	BaseConfig  `koanf:",squash"`
	Geo         GeoSettings         `koanf:"geo"`
	Catalog     CatalogSettings     `koanf:"catalog"`
	ChildSafety ChildSafetySettings `koanf:"child_safety"`
	Events      EventSettings       `koanf:"events"`
	Storage     StorageSettings     `koanf:"storage"`
}

// GeoSettings controls request country resolution.
type GeoSettings struct {
	DefaultCountry string        `koanf:"default_country"`
	LookupURL      string        `koanf:"lookup_url"`
	Timeout        time.Duration `koanf:"timeout"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	// TrustHeaders enables X-Country-Code / CF-IPCountry set by an edge proxy.
	TrustHeaders bool `koanf:"trust_headers"`
}

// CatalogSettings bounds catalog and recommendation queries.
type CatalogSettings struct {
	TrendingWindow time.Duration `koanf:"trending_window"`
	DefaultLimit   int           `koanf:"default_limit"`
	MaxLimit       int           `koanf:"max_limit"`
	MaxProfiles    int           `koanf:"max_profiles"`
}

// ChildSafetySettings is the maturity tier table for child profiles.
type ChildSafetySettings struct {
	Tiers []ChildSafetyTier `koanf:"tiers"`
}

// ChildSafetyTier applies to child profiles whose maturity level is at most MaxMaturityLevel.
type ChildSafetyTier struct {
	MaxMaturityLevel int      `koanf:"max_maturity_level"`
	MaxAgeRating     string   `koanf:"max_age_rating"`
	AllowedGenres    []string `koanf:"allowed_genres"`
	ExcludedGenres   []string `koanf:"excluded_genres"`
}

// EventSettings selects the domain event backend.
type EventSettings struct {
	Backend      string   `koanf:"backend"` // local, nats, kafka
	NATSURL      string   `koanf:"nats_url"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	Topic        string   `koanf:"topic"`
}

// StorageSettings configures avatar uploads.
type StorageSettings struct {
	Bucket     string        `koanf:"bucket"`
	Region     string        `koanf:"region"`
	Endpoint   string        `koanf:"endpoint"`
	PresignTTL time.Duration `koanf:"presign_ttl"`
}

// Validate validates the OTT configuration.
func (c *OTTConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if len(c.Geo.DefaultCountry) != 2 {
		return fmt.Errorf("geo default country must be a 2-letter code, got %q", c.Geo.DefaultCountry)
	}
	if c.Geo.Timeout <= 0 {
		return errors.New("geo timeout must be positive")
	}
	if c.Catalog.TrendingWindow <= 0 {
		return errors.New("trending window must be positive")
	}
	if c.Catalog.DefaultLimit < 1 || c.Catalog.DefaultLimit > c.Catalog.MaxLimit {
		return fmt.Errorf("default limit must be between 1 and max limit (%d)", c.Catalog.MaxLimit)
	}
	if c.Catalog.MaxProfiles < 1 {
		return errors.New("max profiles must be at least 1")
	}
	if err := c.ChildSafety.Validate(); err != nil {
		return err
	}
	switch c.Events.Backend {
	case "local", "":
	case "nats":
		if c.Events.NATSURL == "" {
			return errors.New("events.nats_url is required for the nats backend")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return errors.New("events.kafka_brokers is required for the kafka backend")
		}
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}
	return nil
}

// Validate checks the tier table is non-empty, has unique thresholds and
// never allows anything above PG-13.
func (c ChildSafetySettings) Validate() error {
	if len(c.Tiers) == 0 {
		return errors.New("child_safety.tiers must define at least one tier")
	}
	seen := make(map[int]bool, len(c.Tiers))
	for i, tier := range c.Tiers {
		if tier.MaxMaturityLevel < 0 || tier.MaxMaturityLevel > 18 {
			return fmt.Errorf("child_safety.tiers[%d]: max_maturity_level must be within 0..18", i)
		}
		if seen[tier.MaxMaturityLevel] {
			return fmt.Errorf("child_safety.tiers[%d]: duplicate max_maturity_level %d", i, tier.MaxMaturityLevel)
		}
		seen[tier.MaxMaturityLevel] = true
		if !isChildSafeRating(tier.MaxAgeRating) {
			return fmt.Errorf("child_safety.tiers[%d]: max_age_rating %q exceeds PG-13", i, tier.MaxAgeRating)
		}
		if len(tier.AllowedGenres) == 0 {
			return fmt.Errorf("child_safety.tiers[%d]: allowed_genres must not be empty", i)
		}
	}
	return nil
}

func isChildSafeRating(rating string) bool {
	for _, r := range childSafeRatings {
		if strings.EqualFold(r, rating) {
			return true
		}
	}
	return false
}

// GetDefaultOTTConfig returns the default OTT configuration.
func GetDefaultOTTConfig() *OTTConfig {
	base := GetDefaults()
	base.Service.Name = "ott"
	base.Database.Database = "ott"

	return &OTTConfig{
		BaseConfig: *base,
		Geo: GeoSettings{
			DefaultCountry: DefaultCountry,
			LookupURL:      DefaultGeoLookupURL,
			Timeout:        DefaultGeoTimeout,
			CacheTTL:       DefaultGeoCacheTTL,
			TrustHeaders:   true,
		},
		Catalog: CatalogSettings{
			TrendingWindow: DefaultTrendingDays * 24 * time.Hour,
			DefaultLimit:   DefaultResultLimit,
			MaxLimit:       MaxResultLimit,
			MaxProfiles:    DefaultMaxProfiles,
		},
		ChildSafety: ChildSafetySettings{
			Tiers: []ChildSafetyTier{DefaultChildSafetyTier()},
		},
		Events: EventSettings{
			Backend: "local",
			Topic:   DefaultEventsSubject,
		},
		Storage: StorageSettings{
			Bucket:     "ott-avatars",
			Region:     "us-east-1",
			PresignTTL: DefaultPresignTTL,
		},
	}
}

// DefaultChildSafetyTier is the single tier used when no table is configured.
func DefaultChildSafetyTier() ChildSafetyTier {
	return ChildSafetyTier{
		MaxMaturityLevel: 18,
		MaxAgeRating:     "PG-13",
		AllowedGenres:    []string{"Family", "Animation", "Comedy", "Adventure", "Fantasy"},
		ExcludedGenres:   []string{"Horror", "Thriller", "Crime", "Drama", "Romance"},
	}
}
