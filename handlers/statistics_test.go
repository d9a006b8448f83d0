package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookshelf-service/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func getStatistics(db *gorm.DB) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/api/statistics", NewStatisticsHandler(db, testTimeout).GetBookshelfStats)
	req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetBookshelfStatsBeforeFirstRefresh(t *testing.T) {
	db := setupTestDB(t)

	w := getStatistics(db)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["total_books"].(float64) != 0 {
		t.Fatalf("total_books = %v, want 0 before any refresh", resp["total_books"])
	}
}

func TestGetBookshelfStatsStorageOutageSurfaced(t *testing.T) {
	db := setupTestDB(t)
	closeTestDB(t, db)

	w := getStatistics(db)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 on read-path outage", w.Code)
	}
}

func TestGetBookshelfStatsReadsMaterializedRow(t *testing.T) {
	db := setupTestDB(t)

	stats := models.BookshelfStats{
		TotalBooks:      12,
		TotalAuthors:    3,
		TotalGenres:     4,
		LastRefreshedAt: time.Now(),
	}
	if err := db.Create(&stats).Error; err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(getStatistics(db).Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["total_books"].(float64) != 12 || resp["total_authors"].(float64) != 3 {
		t.Fatalf("stats = %v, want the materialized values", resp)
	}
}
