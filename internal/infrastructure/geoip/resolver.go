// Package geoip maps client IPs onto ISO country codes through a remote
// lookup service, guarded by a circuit breaker and a TTL cache.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/metrics"
)

const breakerName = "geoip-lookup"

// Config controls the resolver.
type Config struct {
	// LookupURL is the base URL; the IP is appended as a path segment.
	LookupURL      string
	DefaultCountry string
	Timeout        time.Duration
	CacheTTL       time.Duration
}

// lookupResponse is the subset of the ip-api style payload we read.
type lookupResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
	Message     string `json:"message"`
}

// Resolver resolves countries for client IPs. It never fails: any problem
// yields the default country.
type Resolver struct {
	cfg    Config
	client *http.Client
	cache  interfaces.Cache
	cb     *gobreaker.CircuitBreaker[string]
	logger interfaces.Logger
}

// NewResolver creates a resolver. cache may be nil to disable caching.
func NewResolver(cfg Config, cache interfaces.Cache, logger interfaces.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	cfg.DefaultCountry = strings.ToUpper(cfg.DefaultCountry)

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				interfaces.String("name", name),
				interfaces.String("from", from.String()),
				interfaces.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Resolver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		cb:     cb,
		logger: logger,
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func (r *Resolver) WithHTTPClient(c *http.Client) *Resolver {
	r.client = c
	return r
}

// ResolveCountry returns the country for ip, or the default country when the
// address is local, unknown or the lookup fails.
func (r *Resolver) ResolveCountry(ctx context.Context, ip string) string {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return r.cfg.DefaultCountry
	}
	key := "geoip:" + addr.String()

	if r.cache != nil {
		if v, err := r.cache.Get(ctx, key); err == nil {
			if country, ok := v.(string); ok {
				metrics.GeolocationCacheHits.Inc()
				return country
			}
		}
	}

	country, err := r.cb.Execute(func() (string, error) {
		return r.lookup(ctx, addr.String())
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.GeolocationLookups.WithLabelValues(result).Inc()
		r.logger.Warn("Country lookup failed, using default",
			interfaces.String("default_country", r.cfg.DefaultCountry),
			interfaces.Error(err))
		return r.cfg.DefaultCountry
	}
	metrics.GeolocationLookups.WithLabelValues("success").Inc()

	if r.cache != nil && r.cfg.CacheTTL > 0 {
		_ = r.cache.Set(ctx, key, country, r.cfg.CacheTTL)
	}
	return country
}

func (r *Resolver) lookup(ctx context.Context, ip string) (string, error) {
	endpoint := strings.TrimRight(r.cfg.LookupURL, "/") + "/" + url.PathEscape(ip)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return "", fmt.Errorf("lookup failed: %s", body.Message)
	}

	country := strings.ToUpper(strings.TrimSpace(body.CountryCode))
	if len(country) != 2 {
		return "", fmt.Errorf("lookup returned invalid country %q", body.CountryCode)
	}
	return country, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
