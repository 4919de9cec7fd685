package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fotomu/models"
)

// Open connects to the SQLite database at dbPath, creating its directory
// when needed, and migrates the metadata tables.
func Open(dbPath string, debug bool) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}
	conn, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := models.Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return conn, nil
}
