package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/middleware"
	"github.com/noah-isme/sfp-api/internal/models"
)

// currentClaims returns the authenticated parent's claims, or nil when the
// JWT middleware did not run or rejected the request.
func currentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
