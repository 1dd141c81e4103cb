package config

import (
	"fmt"
	"os"

	"gorm.io/gorm/logger"

	"github.com/narwhalmedia/ottcore/pkg/database"
)

// LoadServiceConfig is a generic helper to load service configuration
func LoadServiceConfig[T Config](serviceName string, cfg T) error {
	manager := NewManager(serviceName)
	return manager.LoadConfig(cfg)
}

// MustLoadServiceConfig loads config and panics on error (for main functions)
func MustLoadServiceConfig[T Config](serviceName string, cfg T) T {
	if err := LoadServiceConfig(serviceName, cfg); err != nil {
		panic(fmt.Sprintf("failed to load %s config: %v", serviceName, err))
	}
	return cfg
}

// ToDatabaseConfig converts config to database package config
func (c DatabaseConfig) ToDatabaseConfig() *database.PostgresConfig {
	logLevel := logger.Warn
	if c.LogSQL {
		logLevel = logger.Info
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}

	return &database.PostgresConfig{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxConnections:  c.MaxConnections,
		MinConnections:  c.MinConnections,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		LogLevel:        logLevel,
	}
}

// GetServiceVersion returns the service version from config or env
func GetServiceVersion(cfg *ServiceConfig) string {
	if cfg.Version != "" {
		return cfg.Version
	}
	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// IsProduction returns true if running in production environment
func IsProduction(cfg *ServiceConfig) bool {
	return cfg.Environment == "production" || cfg.Environment == "prod"
}

// GetListenAddress returns the formatted listen address for HTTP server
func GetListenAddress(cfg *ServiceConfig) string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// GetGRPCListenAddress returns the formatted listen address for gRPC server
func GetGRPCListenAddress(cfg *ServiceConfig) string {
	return fmt.Sprintf(":%d", cfg.GRPCPort)
}
