package handlers

import (
	"net/http"

	"vibe-domain-service/internal/database"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InternalHandlers handles internal service-to-service requests
type InternalHandlers struct {
	resolver  *services.ResolverService
	directory *services.DirectoryService
	db        *gorm.DB
}

// NewInternalHandlers creates new internal handlers
func NewInternalHandlers(resolver *services.ResolverService, directory *services.DirectoryService, db *gorm.DB) *InternalHandlers {
	return &InternalHandlers{
		resolver:  resolver,
		directory: directory,
		db:        db,
	}
}

// ResolveSite handles GET /api/v1/internal/resolve
// @Summary Resolve a hostname
// @Description Resolve an inbound hostname to the published site that serves it (internal use only)
// @Tags internal
// @Produce json
// @Param host query string true "Hostname to resolve"
// @Success 200 {object} models.PublishedSite
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/internal/resolve [get]
func (h *InternalHandlers) ResolveSite(c *gin.Context) {
	host := c.Query("host")
	if host == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "host parameter is required",
			Code:  "MISSING_HOST",
		})
		return
	}

	site := h.resolver.GetPublishedSite(c.Request.Context(), host)
	if site == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "site not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, site)
}

// LookupTenant handles GET /api/v1/internal/tenant
// @Summary Look up a domain's tenant
// @Description Return the tenant a verified domain is mapped to (internal use only)
// @Tags internal
// @Produce json
// @Param domain query string true "Domain name"
// @Success 200 {object} models.TenantLookupResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/internal/tenant [get]
func (h *InternalHandlers) LookupTenant(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "domain parameter is required",
			Code:  "MISSING_DOMAIN",
		})
		return
	}

	tenantID := h.directory.GetTenantByDomain(c.Request.Context(), domain)
	if tenantID == "" {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "domain not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, models.TenantLookupResponse{Domain: services.NormalizeHostname(domain), TenantID: tenantID})
}

// Health handles GET /health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *InternalHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "vibe-domain-service",
	})
}

// Ready handles GET /ready
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *InternalHandlers) Ready(c *gin.Context) {
	if err := database.HealthCheck(h.db); err != nil {
		log.Warn().Err(err).Msg("Readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
