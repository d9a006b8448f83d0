package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bookshelf-service/models"
	"bookshelf-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type BookHandler struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewBookHandler(db *gorm.DB, timeout time.Duration) *BookHandler {
	return &BookHandler{DB: db, Timeout: timeout}
}

// BookResponse is a catalog row enriched with its materialized view count
type BookResponse struct {
	models.Book
	ViewCount int64 `json:"view_count"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// ListBooks returns a paginated, filterable catalog listing. View counts and
// global stats come from the materialized aggregates; this handler never
// counts raw event rows.
func (h *BookHandler) ListBooks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	query := h.DB.WithContext(ctx).Model(&models.Book{})

	if genre := c.Query("genre"); genre != "" {
		query = query.Joins("JOIN book_genres ON book_genres.book_id = books.id").
			Joins("JOIN genres ON genres.id = book_genres.genre_id").
			Where("genres.name = ?", genre)
	}
	if site := c.Query("site"); site != "" {
		query = query.Joins("JOIN sites ON sites.id = books.site_id").
			Where("sites.public_id = ?", site)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("books.title LIKE ? OR books.author LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		internalError(c, err)
		return
	}

	var books []models.Book
	if err := query.Select("books.*").Preload("Genres").
		Order("books.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&books).Error; err != nil {
		internalError(c, err)
		return
	}

	// Annotate from the view-count aggregate in one batch read; books with
	// no entry yet default to 0
	bookIDs := make([]uint, 0, len(books))
	for i := range books {
		bookIDs = append(bookIDs, books[i].ID)
	}
	countByID := make(map[uint]int64, len(bookIDs))
	if len(bookIDs) > 0 {
		var counts []models.BookViewCount
		if err := h.DB.WithContext(ctx).Where("book_id IN ?", bookIDs).Find(&counts).Error; err != nil {
			internalError(c, err)
			return
		}
		for _, vc := range counts {
			countByID[vc.BookID] = vc.Count
		}
	}

	results := make([]BookResponse, 0, len(books))
	for i := range books {
		results = append(results, BookResponse{
			Book:      books[i],
			ViewCount: countByID[books[i].ID],
		})
	}

	// Stats are read wholesale from the materialized row; a missing row just
	// means no refresh has happened yet
	var stats models.BookshelfStats
	if err := h.DB.WithContext(ctx).First(&stats).Error; err != nil && err != gorm.ErrRecordNotFound {
		internalError(c, err)
		return
	}

	pages := int64(0)
	if total > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"books":   results,
		"pagination": Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
		"stats": stats,
	})
}

// internalError surfaces read-path storage failures. Diagnostic detail is
// only included outside release mode.
func internalError(c *gin.Context, err error) {
	if gin.Mode() == gin.ReleaseMode {
		utils.InternalErrorResponse(c, "Internal server error")
		return
	}
	utils.InternalErrorResponse(c, err.Error())
}
