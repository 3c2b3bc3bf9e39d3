package handlers

import (
	"net/http"

	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/services"

	"github.com/gin-gonic/gin"
)

// VibeHandlers handles HTTP requests for publishing Vibe sites and their
// custom domains
type VibeHandlers struct {
	publishing *services.PublishingService
	registrar  *services.RegistrarService
}

// NewVibeHandlers creates new Vibe handlers
func NewVibeHandlers(publishing *services.PublishingService, registrar *services.RegistrarService) *VibeHandlers {
	return &VibeHandlers{
		publishing: publishing,
		registrar:  registrar,
	}
}

// CheckAvailability handles GET /api/v1/vibe/subdomains/:subdomain/availability
// @Summary Check subdomain availability
// @Tags vibe
// @Produce json
// @Param subdomain path string true "Subdomain"
// @Success 200 {object} models.AvailabilityResponse
// @Router /api/v1/vibe/subdomains/{subdomain}/availability [get]
func (h *VibeHandlers) CheckAvailability(c *gin.Context) {
	resp := h.publishing.CheckSubdomainAvailability(c.Request.Context(), c.Param("subdomain"))
	c.JSON(http.StatusOK, resp)
}

// Publish handles POST /api/v1/vibe/projects/:projectId/publish
// @Summary Publish a project
// @Tags vibe
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body models.PublishRequest true "Publish request"
// @Success 200 {object} models.PublishResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/vibe/projects/{projectId}/publish [post]
func (h *VibeHandlers) Publish(c *gin.Context) {
	userID, ok := getUserFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.publishing.PublishWebsite(c.Request.Context(), c.Param("projectId"), req.Subdomain, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Unpublish handles POST /api/v1/vibe/projects/:projectId/unpublish
func (h *VibeHandlers) Unpublish(c *gin.Context) {
	userID, ok := getUserFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	if err := h.publishing.UnpublishWebsite(c.Request.Context(), c.Param("projectId"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// GetSite handles GET /api/v1/vibe/projects/:projectId/site
// @Summary Get a project's published site
// @Tags vibe
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} models.PublishedSite
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/vibe/projects/{projectId}/site [get]
func (h *VibeHandlers) GetSite(c *gin.Context) {
	site, err := h.publishing.GetPublishedSiteByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if site == nil {
		respondError(c, services.ErrPublishedSiteNotFound)
		return
	}

	c.JSON(http.StatusOK, site)
}

// AddCustomDomain handles POST /api/v1/vibe/projects/:projectId/custom-domain
// @Summary Attach a custom domain to a published site
// @Tags vibe
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body models.AddCustomDomainRequest true "Custom domain request"
// @Success 201 {object} models.AddCustomDomainResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/vibe/projects/{projectId}/custom-domain [post]
func (h *VibeHandlers) AddCustomDomain(c *gin.Context) {
	userID, ok := getUserFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req models.AddCustomDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.registrar.AddCustomDomain(c.Request.Context(), c.Param("projectId"), req.Domain, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VerifyCustomDomain handles POST /api/v1/vibe/projects/:projectId/custom-domain/verify
func (h *VibeHandlers) VerifyCustomDomain(c *gin.Context) {
	userID, ok := getUserFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	resp, err := h.registrar.VerifyCustomDomain(c.Request.Context(), c.Param("projectId"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveCustomDomain handles DELETE /api/v1/vibe/projects/:projectId/custom-domain
func (h *VibeHandlers) RemoveCustomDomain(c *gin.Context) {
	userID, ok := getUserFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	if err := h.registrar.RemoveCustomDomain(c.Request.Context(), c.Param("projectId"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Custom domain removed"})
}
