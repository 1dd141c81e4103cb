package config

import "time"

const (
	// Server ports.
	DefaultHTTPPort = 8080
	DefaultGRPCPort = 9090

	// Database defaults.
	DefaultPostgresPort = 5432

	// Connection pool defaults.
	DefaultMaxConnections = 25
	DefaultMinConnections = 5

	// Timeout defaults.
	DefaultMaxConnIdleTime = 30 * time.Minute
	DefaultShutdownTimeout = 15 * time.Second

	// Telemetry defaults.
	DefaultMetricsPath = "/metrics"

	// Auth defaults.
	DefaultAccessTokenDuration = 15 * time.Minute

	// Geo defaults.
	DefaultCountry       = "US"
	DefaultGeoTimeout    = 3 * time.Second
	DefaultGeoCacheTTL   = time.Hour
	DefaultGeoLookupURL  = "http://ip-api.com/json"
	DefaultTrendingDays  = 30
	DefaultResultLimit   = 20
	MaxResultLimit       = 100
	DefaultPresignTTL    = 15 * time.Minute
	DefaultEventsSubject = "ott.events"
	DefaultMaxProfiles   = 5
)
