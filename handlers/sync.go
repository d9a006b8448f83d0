package handlers

import (
	"context"
	"time"

	"bookshelf-service/middleware"
	"bookshelf-service/models"
	"bookshelf-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncHandler struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewSyncHandler(db *gorm.DB, timeout time.Duration) *SyncHandler {
	return &SyncHandler{DB: db, Timeout: timeout}
}

type SyncBookPayload struct {
	RemoteID    uint       `json:"remote_id" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Author      string     `json:"author"`
	Description string     `json:"description"`
	CoverURL    string     `json:"cover_url"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"published_at"`
	Genres      []string   `json:"genres"`
}

type SyncRequest struct {
	Books []SyncBookPayload `json:"books" binding:"required"`
}

// SyncBooks upserts the authenticated site's books by their WordPress post
// ID. Free-text fields are sanitized before storage. Books missing from the
// payload are left alone; deletion stays with the origin site.
func (h *SyncHandler) SyncBooks(c *gin.Context) {
	siteID := middleware.GetSiteID(c)

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body: books array is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()
	db := h.DB.WithContext(ctx)

	batchID := uuid.NewString()
	created := 0
	updated := 0

	for _, payload := range req.Books {
		book := models.Book{
			SiteID:      siteID,
			RemoteID:    payload.RemoteID,
			Title:       utils.SanitizeText(payload.Title),
			Author:      utils.SanitizeText(payload.Author),
			Description: utils.SanitizeText(payload.Description),
			CoverURL:    utils.SanitizeURL(payload.CoverURL),
			Link:        utils.SanitizeURL(payload.Link),
			PublishedAt: payload.PublishedAt,
		}
		if book.Title == "" {
			utils.BadRequestResponse(c, "Book title must not be empty after sanitization")
			return
		}

		genres, err := h.resolveGenres(db, payload.Genres)
		if err != nil {
			utils.InternalErrorResponse(c, "Failed to resolve genres")
			return
		}

		var existing models.Book
		result := db.Where("site_id = ? AND remote_id = ?", siteID, payload.RemoteID).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			book.Genres = genres
			if err := db.Create(&book).Error; err != nil {
				utils.InternalErrorResponse(c, "Failed to create book")
				return
			}
			created++
		} else if result.Error != nil {
			utils.InternalErrorResponse(c, "Failed to look up book")
			return
		} else {
			if err := db.Model(&existing).Updates(map[string]interface{}{
				"title":        book.Title,
				"author":       book.Author,
				"description":  book.Description,
				"cover_url":    book.CoverURL,
				"link":         book.Link,
				"published_at": book.PublishedAt,
			}).Error; err != nil {
				utils.InternalErrorResponse(c, "Failed to update book")
				return
			}
			if err := db.Model(&existing).Association("Genres").Replace(genres); err != nil {
				utils.InternalErrorResponse(c, "Failed to update book genres")
				return
			}
			updated++
		}
	}

	utils.SuccessResponse(c, gin.H{
		"batch_id": batchID,
		"created":  created,
		"updated":  updated,
	})
}

// resolveGenres maps genre names to rows, creating missing ones
func (h *SyncHandler) resolveGenres(db *gorm.DB, names []string) ([]models.Genre, error) {
	genres := make([]models.Genre, 0, len(names))
	for _, name := range names {
		clean := utils.SanitizeText(name)
		if clean == "" {
			continue
		}
		var genre models.Genre
		if err := db.Where("name = ?", clean).FirstOrCreate(&genre, models.Genre{Name: clean}).Error; err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, nil
}
