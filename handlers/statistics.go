package handlers

import (
	"context"
	"net/http"
	"time"

	"bookshelf-service/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatisticsHandler struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewStatisticsHandler(db *gorm.DB, timeout time.Duration) *StatisticsHandler {
	return &StatisticsHandler{DB: db, Timeout: timeout}
}

// GetBookshelfStats returns the materialized global summary (public API,
// refreshed on its own schedule)
func (h *StatisticsHandler) GetBookshelfStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	var stats models.BookshelfStats
	if err := h.DB.WithContext(ctx).First(&stats).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{
				"total_books":       0,
				"total_authors":     0,
				"total_genres":      0,
				"last_refreshed_at": nil,
				"message":           "Statistics not yet available",
			})
			return
		}

		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_books":       stats.TotalBooks,
		"total_authors":     stats.TotalAuthors,
		"total_genres":      stats.TotalGenres,
		"last_refreshed_at": stats.LastRefreshedAt,
	})
}
