package handlers

import (
	"errors"
	"net/http"

	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError writes err in the error envelope, using the status of a
// ServiceError and 500 for anything else
func respondError(c *gin.Context, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Status, models.ErrorResponse{
			Success: false,
			Error:   svcErr.Message,
			Code:    svcErr.Code,
		})
		return
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled request error")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   "internal error",
		Code:    "INTERNAL_ERROR",
	})
}

func respondBadRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   "invalid request",
		Code:    "INVALID_REQUEST",
	})
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error:   "unauthorized",
		Code:    "UNAUTHORIZED",
	})
}

// getUserFromContext reads the caller identity set by the gateway
func getUserFromContext(c *gin.Context) (string, bool) {
	userID := c.GetHeader("X-User-ID")
	return userID, userID != ""
}

// getTenantFromContext reads the tenant scope set by the gateway
func getTenantFromContext(c *gin.Context) (string, bool) {
	tenantID := c.GetHeader("X-Tenant-ID")
	return tenantID, tenantID != ""
}
