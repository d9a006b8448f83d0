package handlers

import (
	"crypto/subtle"
	"errors"

	"bookshelf-service/config"
	"bookshelf-service/models"
	"bookshelf-service/services"
	"bookshelf-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminHandler struct {
	DB          *gorm.DB
	Aggregation *services.AggregationService
}

func NewAdminHandler(db *gorm.DB, aggregation *services.AggregationService) *AdminHandler {
	return &AdminHandler{DB: db, Aggregation: aggregation}
}

type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type RegisterSiteRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
}

// Login exchanges the admin password for a bearer token
func (h *AdminHandler) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Password is required")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(config.AppConfig.AdminPassword)) != 1 {
		utils.UnauthorizedResponse(c, "Invalid password")
		return
	}

	token, err := utils.GenerateAdminToken()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, gin.H{"token": token})
}

// TriggerRefresh refreshes both materialized aggregates on demand.
// Idempotent and safe to call while reads are in flight.
func (h *AdminHandler) TriggerRefresh(c *gin.Context) {
	if err := h.Aggregation.RefreshNow(); err != nil {
		utils.InternalErrorResponse(c, "Aggregate refresh failed")
		return
	}
	utils.SuccessMessageResponse(c, "Aggregates refreshed", nil)
}

// RegisterSite registers a WordPress origin and returns its API key. The
// plaintext key appears in this response and nowhere else; only the hash is
// stored.
func (h *AdminHandler) RegisterSite(c *gin.Context) {
	var req RegisterSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Site name and a valid URL are required")
		return
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate API key")
		return
	}
	salt, err := utils.GenerateSalt()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate salt")
		return
	}

	site := models.Site{
		PublicID:   uuid.NewString(),
		Name:       utils.SanitizeText(req.Name),
		URL:        req.URL,
		APIKeySalt: salt,
		APIKeyHash: utils.HashAPIKey(apiKey, salt),
	}

	if err := h.DB.Create(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.BadRequestResponse(c, "Site URL already registered")
			return
		}
		utils.InternalErrorResponse(c, "Failed to register site")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"site":    site,
		"api_key": apiKey,
	})
}
