package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	catalogrepo "github.com/narwhalmedia/ottcore/internal/catalog/repository"
	profile "github.com/narwhalmedia/ottcore/internal/profile/domain"
	progress "github.com/narwhalmedia/ottcore/internal/progress/domain"
	progressrepo "github.com/narwhalmedia/ottcore/internal/progress/repository"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Migration represents a database migration
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationFunc is a function that performs a migration
type MigrationFunc func(*gorm.DB) error

// MigrationEntry represents a single migration
type MigrationEntry struct {
	Version string
	Name    string
	Up      MigrationFunc
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	logger     interfaces.Logger
	migrations []MigrationEntry
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *gorm.DB, log interfaces.Logger) *Migrator {
	return &Migrator{
		db:         db,
		logger:     log,
		migrations: getAllMigrations(),
	}
}

// Migrate runs all pending migrations, each in its own transaction.
func (m *Migrator) Migrate() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	pending, err := m.GetPendingMigrations()
	if err != nil {
		return err
	}

	for _, migration := range pending {
		m.logger.Info("Running migration",
			interfaces.String("version", migration.Version),
			interfaces.String("name", migration.Name))

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Migration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// GetPendingMigrations returns a list of pending migrations
func (m *Migrator) GetPendingMigrations() ([]MigrationEntry, error) {
	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(appliedMigrations))
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	var pending []MigrationEntry
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// getAllMigrations returns all migrations in order
func getAllMigrations() []MigrationEntry {
	return []MigrationEntry{
		{
			Version: "20260101_001",
			Name:    "Create accounts and profiles",
			Up:      migration001Profiles,
		},
		{
			Version: "20260101_002",
			Name:    "Create catalog",
			Up:      migration002Catalog,
		},
		{
			Version: "20260101_003",
			Name:    "Create watch progress",
			Up:      migration003WatchProgress,
		},
		{
			Version: "20260101_004",
			Name:    "Add listing indexes",
			Up:      migration004ListingIndexes,
		},
	}
}

func migration001Profiles(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&profile.Account{}, &profile.Profile{}); err != nil {
		return fmt.Errorf("failed to create profile tables: %w", err)
	}
	return nil
}

func migration002Catalog(tx *gorm.DB) error {
	if err := tx.AutoMigrate(catalogrepo.Models()...); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

func migration003WatchProgress(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&progress.WatchProgress{}); err != nil {
		return fmt.Errorf("failed to create watch progress table: %w", err)
	}
	// Two partial indexes give one row per movie and one per episode, since a
	// plain unique index treats NULL episode ids as distinct.
	for _, stmt := range progressrepo.IndexStatements {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create watch progress index: %w", err)
		}
	}
	return nil
}

func migration004ListingIndexes(tx *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_profiles_account_active ON profiles (account_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_contents_active_created ON contents (is_active, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_contents_active_views ON contents (is_active, views)",
		"CREATE INDEX IF NOT EXISTS idx_contents_active_rating ON contents (is_active, average_rating)",
		"CREATE INDEX IF NOT EXISTS idx_content_genres_genre ON content_genres (genre, content_id)",
		"CREATE INDEX IF NOT EXISTS idx_content_countries_lookup ON content_countries (content_id, kind, country)",
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
