package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	LogLevel        logger.LogLevel
}

// DefaultPostgresConfig returns a default PostgreSQL configuration
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "ott",
		Password:        "ott_dev",
		Database:        "ott_dev",
		SSLMode:         "disable",
		MaxConnections:  25,
		MinConnections:  5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		LogLevel:        logger.Warn,
	}
}

// DSN renders the libpq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GormConfig returns the gorm settings shared by every connection: UTC
// timestamps and SQL logging through log.
func GormConfig(log interfaces.Logger, level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: NewGormLogger(log, level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewGormDB creates a new GORM database connection and returns a cleanup
// function closing it.
func NewGormDB(cfg *PostgresConfig, log interfaces.Logger) (*gorm.DB, func(), error) {
	gormCfg := GormConfig(log, cfg.LogLevel)
	gormCfg.PrepareStmt = true

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MinConnections)
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			log.Error("Failed to close database", interfaces.Error(err))
		}
	}

	return db, cleanup, nil
}

// Ping checks the connection, for readiness probes.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// RunMigrations runs all pending database migrations
func RunMigrations(db *gorm.DB, log interfaces.Logger) error {
	return NewMigrator(db, log).Migrate()
}

// GetPendingMigrations returns a list of migrations that haven't been applied yet
func GetPendingMigrations(db *gorm.DB, log interfaces.Logger) ([]MigrationEntry, error) {
	return NewMigrator(db, log).GetPendingMigrations()
}
