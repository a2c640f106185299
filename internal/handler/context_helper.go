package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/adcar/edx-platform/internal/middleware"
	"github.com/adcar/edx-platform/internal/models"
)

func claimsFromContext(c *gin.Context) *models.LearnerClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.LearnerClaims)
	if !ok {
		return nil
	}
	return claims
}
