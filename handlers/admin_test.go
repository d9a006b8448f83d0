package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookshelf-service/config"
	"bookshelf-service/middleware"
	"bookshelf-service/models"
	"bookshelf-service/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupAdminConfig(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		AdminJWTSecret:        "test-secret-test-secret-test-secret!",
		AdminPassword:         "correct-horse",
		AdminTokenExpireHours: 1,
	}
}

func newAdminRouter(db *gorm.DB, svc *services.AggregationService) *gin.Engine {
	handler := NewAdminHandler(db, svc)
	router := gin.New()
	router.POST("/api/admin/login", handler.Login)
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.POST("/refresh", handler.TriggerRefresh)
		admin.POST("/sites", handler.RegisterSite)
	}
	return router
}

func adminLogin(t *testing.T, router *gin.Engine, password string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
		strings.NewReader(`{"password": "`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp.Data.Token
}

func TestAdminLogin(t *testing.T) {
	setupAdminConfig(t)
	db := setupTestDB(t)
	router := newAdminRouter(db, services.NewAggregationService(db, time.Minute, time.Minute))

	if code, _ := adminLogin(t, router, "wrong"); code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", code)
	}

	code, token := adminLogin(t, router, "correct-horse")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
}

func TestTriggerRefreshRequiresAuth(t *testing.T) {
	setupAdminConfig(t)
	db := setupTestDB(t)
	router := newAdminRouter(db, services.NewAggregationService(db, time.Minute, time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without token", w.Code)
	}
}

func TestTriggerRefreshRebuildsAggregates(t *testing.T) {
	setupAdminConfig(t)
	db := setupTestDB(t)
	_, books := seedSiteAndBooks(t, db, 2)
	if err := db.Create(&models.BookViewEvent{BookID: books[0].ID, ViewedAt: time.Now()}).Error; err != nil {
		t.Fatalf("seed view: %v", err)
	}

	router := newAdminRouter(db, services.NewAggregationService(db, time.Minute, time.Minute))
	_, token := adminLogin(t, router, "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var vc models.BookViewCount
	if err := db.Where("book_id = ?", books[0].ID).First(&vc).Error; err != nil {
		t.Fatalf("read view count: %v", err)
	}
	if vc.Count != 1 {
		t.Fatalf("count = %d, want 1", vc.Count)
	}

	var stats models.BookshelfStats
	if err := db.First(&stats).Error; err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if stats.TotalBooks != 2 {
		t.Fatalf("TotalBooks = %d, want 2", stats.TotalBooks)
	}
}

func TestRegisterSiteDuplicateURL(t *testing.T) {
	setupAdminConfig(t)
	db := setupTestDB(t)
	router := newAdminRouter(db, services.NewAggregationService(db, time.Minute, time.Minute))
	_, token := adminLogin(t, router, "correct-horse")

	register := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/sites",
			strings.NewReader(`{"name": "Twin Library", "url": "https://twin.example.org"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := register(); w.Code != http.StatusOK {
		t.Fatalf("first registration: status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	w := register()
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate registration: status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "already registered") {
		t.Fatalf("duplicate registration body = %s, want the already-registered message", w.Body.String())
	}

	var count int64
	db.Model(&models.Site{}).Count(&count)
	if count != 1 {
		t.Fatalf("site rows = %d, want 1", count)
	}
}

func TestRegisterSiteReturnsKeyOnce(t *testing.T) {
	setupAdminConfig(t)
	db := setupTestDB(t)
	router := newAdminRouter(db, services.NewAggregationService(db, time.Minute, time.Minute))
	_, token := adminLogin(t, router, "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sites",
		strings.NewReader(`{"name": "New Library", "url": "https://library.example.org"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			APIKey string      `json:"api_key"`
			Site   models.Site `json:"site"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.APIKey == "" {
		t.Fatal("expected plaintext api key in the registration response")
	}
	if resp.Data.Site.PublicID == "" {
		t.Fatal("expected a public id")
	}

	// Only the hash is stored
	var site models.Site
	if err := db.First(&site).Error; err != nil {
		t.Fatalf("load site: %v", err)
	}
	if site.APIKeyHash == resp.Data.APIKey || site.APIKeyHash == "" {
		t.Fatal("stored credential must be a hash, not the key")
	}
}
