package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the interface that all service configs must implement.
type Config interface {
	Validate() error
}

// BaseConfig contains common configuration for all services.
type BaseConfig struct {
	Service    ServiceConfig    `koanf:"service"`
	Database   DatabaseConfig   `koanf:"database"`
	Logger     LoggerConfig     `koanf:"logger"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Auth       AuthConfig       `koanf:"auth"`
	Pagination PaginationConfig `koanf:"pagination"`
}

// ServiceConfig contains service-specific metadata.
type ServiceConfig struct {
	Name            string        `koanf:"name"`
	Version         string        `koanf:"version"`
	Environment     string        `koanf:"environment"` // dev, staging, production
	Port            int           `koanf:"port"`
	GRPCPort        int           `koanf:"grpc_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// AuthConfig contains identity token verification settings.
type AuthConfig struct {
	JWTSecret           string        `koanf:"jwt_secret"`
	Issuer              string        `koanf:"issuer"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// PaginationConfig contains pagination configuration.
type PaginationConfig struct {
	CursorEncryptionKey string        `koanf:"cursor_encryption_key"`
	CursorExpiration    time.Duration `koanf:"cursor_expiration"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	LogSQL          bool          `koanf:"log_sql"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"` // stdout, stderr, or file path
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// Manager handles configuration loading and parsing.
type Manager struct {
	k           *koanf.Koanf
	serviceName string
	configPaths []string
}

// NewManager creates a new configuration manager.
func NewManager(serviceName string) *Manager {
	return &Manager{
		k:           koanf.New("."),
		serviceName: serviceName,
		configPaths: getDefaultConfigPaths(serviceName),
	}
}

// WithConfigPaths replaces the file search list. Later files override earlier ones.
func (m *Manager) WithConfigPaths(paths ...string) *Manager {
	m.configPaths = paths
	return m
}

// LoadConfig loads configuration from all sources.
func (m *Manager) LoadConfig(cfg Config) error {
	// 1. Defaults from the struct passed in
	if err := m.k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config files, in order of precedence
	for _, path := range m.configPaths {
		if err := m.loadFromFile(path); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	// 3. Environment
	if err := m.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// GetString returns a string value for the given key.
func (m *Manager) GetString(key string) string {
	return m.k.String(key)
}

func (m *Manager) loadFromFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return m.k.Load(file.Provider(path), yaml.Parser())
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// loadFromEnv maps OTT_GEO__DEFAULT_COUNTRY to geo.default_country. A double
// underscore separates sections so single underscores survive inside key names.
func (m *Manager) loadFromEnv() error {
	prefix := strings.ToUpper(m.serviceName) + "_"

	return m.k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, prefix), "__", "."))
	}), nil)
}

func getDefaultConfigPaths(serviceName string) []string {
	paths := []string{
		"config.yaml",
		fmt.Sprintf("%s.yaml", serviceName),
		"configs/config.yaml",
		fmt.Sprintf("configs/%s.yaml", serviceName),
		fmt.Sprintf("configs/%s.%s.yaml", serviceName, getEnvironment()),
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		paths = append(paths, configPath)
	}

	return paths
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}

// Validate validates the base configuration.
func (c *BaseConfig) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name is required")
	}
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", c.Service.Port)
	}
	if c.Database.Host == "" {
		return errors.New("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if IsProduction(&c.Service) && c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required in production (set OTT_AUTH__JWT_SECRET)")
	}
	if c.Auth.AccessTokenDuration < time.Minute {
		return errors.New("access token duration must be at least 1 minute")
	}
	if key := c.Pagination.CursorEncryptionKey; key != "" && len(key) != 32 {
		return errors.New("cursor encryption key must be 32 bytes")
	}
	return nil
}

// GetDefaults returns default configuration values.
func GetDefaults() *BaseConfig {
	return &BaseConfig{
		Service: ServiceConfig{
			Environment:     "dev",
			Port:            DefaultHTTPPort,
			GRPCPort:        DefaultGRPCPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            DefaultPostgresPort,
			User:            "ott",
			Password:        "ott_dev",
			Database:        "ott_dev",
			SSLMode:         "disable",
			MaxConnections:  DefaultMaxConnections,
			MinConnections:  DefaultMinConnections,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: DefaultMaxConnIdleTime,
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "json",
			Development: false,
			OutputPath:  "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Auth: AuthConfig{
			Issuer:              "ott-identity",
			AccessTokenDuration: DefaultAccessTokenDuration,
		},
		Pagination: PaginationConfig{
			CursorExpiration: 24 * time.Hour,
		},
	}
}
