package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ValidationErrorResponse enumerates every violated rule, not just the first
type ValidationErrorResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error"`
	Violations []string `json:"violations"`
}

// RateLimitErrorResponse carries the retry hint for 429 responses
type RateLimitErrorResponse struct {
	Success           bool   `json:"success"`
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// SuccessResponse sends a success response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessMessageResponse sends a success response with a message
func SuccessMessageResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   message,
	})
}

// BadRequestResponse sends a 400 error response
func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// ValidationFailedResponse sends a 400 error response listing all violations
func ValidationFailedResponse(c *gin.Context, violations []string) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Success:    false,
		Error:      "validation_failed",
		Violations: violations,
	})
}

// UnauthorizedResponse sends a 401 error response
func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// NotFoundResponse sends a 404 error response
func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// MethodNotAllowedResponse sends a 405 error response
func MethodNotAllowedResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusMethodNotAllowed, "method_not_allowed")
}

// InternalErrorResponse sends a 500 error response
func InternalErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// TooManyRequestsResponse sends a 429 error response with a retry hint
func TooManyRequestsResponse(c *gin.Context, retryAfterSeconds int) {
	c.JSON(http.StatusTooManyRequests, RateLimitErrorResponse{
		Success:           false,
		Error:             "rate_limited",
		RetryAfterSeconds: retryAfterSeconds,
	})
}
