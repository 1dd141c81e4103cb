package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/narwhalmedia/ottcore/pkg/database"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

// NewTestDB opens a private in-memory SQLite database with every migration
// applied. Each call gets its own database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	log := logger.NewNoopLogger()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(log, gormlogger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps transactions and the shared cache consistent.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db, log))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
