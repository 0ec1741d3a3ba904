package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// InitDatabase opens the SQLite database at dbPath and creates tables
func InitDatabase(dbPath string, logger *zap.Logger) (*sql.DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("database initialized", zap.String("path", dbPath))
	return database, nil
}

// createTables creates all necessary tables
func createTables(database *sql.DB) error {
	createSlidesTable := `
	CREATE TABLE IF NOT EXISTS slides (
		id TEXT PRIMARY KEY,
		showcase TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		quote TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := database.Exec(createSlidesTable); err != nil {
		return fmt.Errorf("failed to create slides table: %w", err)
	}

	createShowcaseIndex := `CREATE INDEX IF NOT EXISTS idx_slides_showcase ON slides(showcase, position);`
	if _, err := database.Exec(createShowcaseIndex); err != nil {
		return fmt.Errorf("failed to create showcase index: %w", err)
	}

	return nil
}
