package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"time"

	"bookshelf-service/middleware"
	"bookshelf-service/models"
	"bookshelf-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ViewHandler struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewViewHandler(db *gorm.DB, timeout time.Duration) *ViewHandler {
	return &ViewHandler{DB: db, Timeout: timeout}
}

// TrackViewResponse is the ingestion envelope. Tracked is false when the
// event row could not be persisted; the request still succeeds.
type TrackViewResponse struct {
	Success bool `json:"success"`
	Tracked bool `json:"tracked"`
}

// TrackView records one book-view event.
//
// Caller misuse (wrong verb, over-quota, bad payload) is rejected hard with
// 4xx. Infrastructure trouble past that point is absorbed: view tracking is
// best-effort telemetry, and failing the page interaction over an analytics
// write is not acceptable. Storage errors are logged and answered with
// tracked:false; so are panics.
func (h *ViewHandler) TrackView(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while tracking view: %v", r)
			c.JSON(http.StatusOK, TrackViewResponse{Success: true, Tracked: false})
		}
	}()

	bookID, violations := parseTrackViewPayload(c)
	if len(violations) > 0 {
		utils.ValidationFailedResponse(c, violations)
		return
	}

	clientIP := middleware.GetRealIP(c)
	userAgent := c.Request.UserAgent()

	event := models.BookViewEvent{
		BookID:   bookID,
		ViewedAt: time.Now(),
	}
	// Origin metadata is best-effort
	if clientIP != "" {
		event.ClientIP = &clientIP
	}
	if userAgent != "" {
		event.UserAgent = &userAgent
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	if err := h.DB.WithContext(ctx).Create(&event).Error; err != nil {
		log.Printf("Failed to record view for book %d: %v", bookID, err)
		c.JSON(http.StatusOK, TrackViewResponse{Success: true, Tracked: false})
		return
	}

	c.JSON(http.StatusOK, TrackViewResponse{Success: true, Tracked: true})
}

// parseTrackViewPayload validates the request body and collects every
// violated rule. Generic schema checks (required, numeric) come first, then
// the business rule that identifiers are positive.
func parseTrackViewPayload(c *gin.Context) (uint, []string) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return 0, []string{"request body must be a valid JSON object"}
	}

	var violations []string

	raw, present := payload["book_id"]
	if !present || raw == nil {
		return 0, append(violations, "book_id is required")
	}

	num, ok := raw.(float64)
	if !ok {
		return 0, append(violations, "book_id must be numeric")
	}

	if num != math.Trunc(num) {
		violations = append(violations, "book_id must be an integer")
	}
	if num <= 0 {
		violations = append(violations, "book_id must be positive")
	}
	// Guard the float-to-uint conversion below; out-of-range conversions
	// have implementation-defined results
	if num > math.MaxUint32 {
		violations = append(violations, "book_id is out of range")
	}
	if len(violations) > 0 {
		return 0, violations
	}

	return uint(num), nil
}
