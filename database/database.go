package database

import (
	"bookshelf-service/models"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB initializes the database connection
func InitDB(dbPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Verify directory is writable by attempting to create a test file
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return err
	}
	os.Remove(testFile) // Clean up test file

	// Open database connection. WAL mode lets the aggregation refresh
	// transaction commit without blocking concurrent catalog reads.
	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal_mode=WAL"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	DB = db

	// Run migrations
	if err := models.AutoMigrate(DB); err != nil {
		return err
	}

	// Explicitly ensure the view-event columns and indexes exist. We use
	// PRAGMA table_info (raw SQL) rather than GORM's HasColumn, which has
	// known reliability issues on SQLite.
	if err := ensureViewEventColumns(db); err != nil {
		return err
	}

	log.Println("Database initialized successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// ensureViewEventColumns uses PRAGMA table_info to reliably detect missing
// columns on book_view_events and adds them with ALTER TABLE. SQLite does not
// support IF NOT EXISTS in ALTER TABLE, so we check first via PRAGMA.
// Deployments that predate origin-metadata capture lack these columns.
func ensureViewEventColumns(db *gorm.DB) error {
	// Read existing columns from the actual SQLite schema
	type pragmaRow struct {
		Name string `gorm:"column:name"`
	}
	var rows []pragmaRow
	if err := db.Raw("PRAGMA table_info(book_view_events)").Scan(&rows).Error; err != nil {
		return err
	}
	existing := make(map[string]bool, len(rows))
	for _, r := range rows {
		existing[strings.ToLower(r.Name)] = true
	}

	additions := []struct {
		col string
		ddl string
	}{
		{"client_ip", "ALTER TABLE book_view_events ADD COLUMN client_ip TEXT"},
		{"user_agent", "ALTER TABLE book_view_events ADD COLUMN user_agent TEXT"},
	}

	for _, a := range additions {
		if !existing[a.col] {
			if err := db.Exec(a.ddl).Error; err != nil {
				return err
			}
			log.Printf("Migration: added missing column %q to book_view_events table", a.col)
		}
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_view_events_book_id ON book_view_events(book_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_view_events_viewed_at ON book_view_events(viewed_at)")
	return nil
}
