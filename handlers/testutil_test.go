package handlers

import (
	"fmt"
	"testing"
	"time"

	"bookshelf-service/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testTimeout = 5 * time.Second

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB opens a per-test in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedSiteAndBooks creates one site with n books and returns them
func seedSiteAndBooks(t *testing.T, db *gorm.DB, n int) (models.Site, []models.Book) {
	t.Helper()

	site := models.Site{
		PublicID:   fmt.Sprintf("site-%s", t.Name()),
		Name:       "Test Library",
		URL:        fmt.Sprintf("https://%s.example.org", t.Name()),
		APIKeyHash: "unused",
		APIKeySalt: "unused",
	}
	if err := db.Create(&site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}

	books := make([]models.Book, 0, n)
	for i := 1; i <= n; i++ {
		book := models.Book{
			SiteID:   site.ID,
			RemoteID: uint(i),
			Title:    fmt.Sprintf("Book %d", i),
			Author:   fmt.Sprintf("Author %d", i),
		}
		if err := db.Create(&book).Error; err != nil {
			t.Fatalf("seed book %d: %v", i, err)
		}
		books = append(books, book)
	}
	return site, books
}

// closeTestDB severs the underlying connection to simulate a storage outage
func closeTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
}
