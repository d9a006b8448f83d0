package middleware

import (
	"bookshelf-service/database"
	"bookshelf-service/models"
	"bookshelf-service/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware validates the admin bearer token
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateAdminToken(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("admin_role", claims.Role)
		c.Next()
	}
}

// SiteAuthMiddleware authenticates a syncing site via its X-API-Key header.
// Registered sites number in the dozens, so a scan-and-verify is fine here.
func SiteAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			utils.UnauthorizedResponse(c, "X-API-Key header required")
			c.Abort()
			return
		}

		var sites []models.Site
		if err := database.GetDB().Find(&sites).Error; err != nil {
			utils.InternalErrorResponse(c, "Failed to look up site credentials")
			c.Abort()
			return
		}

		for i := range sites {
			if utils.VerifyAPIKey(apiKey, sites[i].APIKeySalt, sites[i].APIKeyHash) {
				c.Set("site_id", sites[i].ID)
				c.Next()
				return
			}
		}

		utils.UnauthorizedResponse(c, "Invalid API key")
		c.Abort()
	}
}

// GetSiteID retrieves the authenticated site ID from the context
func GetSiteID(c *gin.Context) uint {
	siteID, exists := c.Get("site_id")
	if !exists {
		return 0
	}
	return siteID.(uint)
}
