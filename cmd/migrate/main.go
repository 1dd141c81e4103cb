package main

import (
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/narwhalmedia/ottcore/pkg/config"
	"github.com/narwhalmedia/ottcore/pkg/database"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
	"github.com/narwhalmedia/ottcore/pkg/logger"
)

func main() {
	var (
		status = flag.Bool("status", false, "Show migration status")
		dryRun = flag.Bool("dry-run", false, "Show pending migrations without applying them")
	)
	flag.Parse()

	cfg := config.MustLoadServiceConfig("ott", config.GetDefaultOTTConfig())
	log := logger.New()

	db, cleanup, err := database.NewGormDB(cfg.Database.ToDatabaseConfig(), log)
	if err != nil {
		log.Fatal("Failed to connect to database", interfaces.Error(err))
	}
	defer cleanup()

	switch {
	case *status:
		showMigrationStatus(db, log)
	case *dryRun:
		showPendingMigrations(db, log)
	default:
		if err := database.RunMigrations(db, log); err != nil {
			log.Error("Failed to run migrations", interfaces.Error(err))
			cleanup()
			os.Exit(1)
		}
		fmt.Println("Migrations completed successfully!")
	}
}

// showMigrationStatus displays the current migration status
func showMigrationStatus(db *gorm.DB, log interfaces.Logger) {
	var migrations []database.Migration
	if err := db.Order("applied_at DESC").Find(&migrations).Error; err != nil {
		fmt.Println("No migrations have been applied yet.")
		return
	}

	fmt.Println("Applied migrations:")
	fmt.Println("==================")
	for _, m := range migrations {
		fmt.Printf("%s | %s | Applied at: %s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}

	showPendingMigrations(db, log)
}

// showPendingMigrations displays migrations that would be applied
func showPendingMigrations(db *gorm.DB, log interfaces.Logger) {
	pending, err := database.GetPendingMigrations(db, log)
	if err != nil {
		log.Fatal("Failed to get pending migrations", interfaces.Error(err))
	}

	if len(pending) == 0 {
		fmt.Println("\nAll migrations are up to date!")
		return
	}

	fmt.Println("\nPending migrations:")
	fmt.Println("==================")
	for _, m := range pending {
		fmt.Printf("%s | %s\n", m.Version, m.Name)
	}
}
