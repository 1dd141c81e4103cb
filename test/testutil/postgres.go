package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/narwhalmedia/ottcore/pkg/database"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

// PostgresContainer wraps a postgres test container
type PostgresContainer struct {
	*tcpostgres.PostgresContainer
	ConnectionString string
	DB               *gorm.DB
}

// SetupPostgresContainer starts PostgreSQL and applies every migration.
func SetupPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := logger.NewNoopLogger()
	db, err := gorm.Open(postgres.Open(connStr), database.GormConfig(log, gormlogger.Silent))
	require.NoError(t, err, "failed to connect to test database")

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			_ = sqlDB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	require.NoError(t, database.RunMigrations(db, log))

	return &PostgresContainer{
		PostgresContainer: pgContainer,
		ConnectionString:  connStr,
		DB:                db,
	}
}

// TruncateTables truncates all tables to clean data between tests
func (pc *PostgresContainer) TruncateTables(tableNames ...string) error {
	for _, table := range tableNames {
		if err := pc.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
