package db

import (
	"github.com/marketbytes-devops/server-monitoring-portal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	return Migrate(DB)
}

// Migrate runs auto-migration on the given connection. Split out so tests can
// migrate an in-memory database.
func Migrate(conn *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.AlertContact{},
		&models.Monitor{},
		&models.CheckRecord{},
		&models.Incident{},
		&models.ActivityLog{},
		&models.MaintenanceWindow{},
		&models.StatusPage{},
	}

	migrator := conn.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := conn.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return nil
}
