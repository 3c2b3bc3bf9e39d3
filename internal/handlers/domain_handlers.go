package handlers

import (
	"net/http"

	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/services"

	"github.com/gin-gonic/gin"
)

// DomainHandlers handles HTTP requests for a tenant's domain collection
type DomainHandlers struct {
	directory *services.DirectoryService
}

// NewDomainHandlers creates new domain handlers
func NewDomainHandlers(directory *services.DirectoryService) *DomainHandlers {
	return &DomainHandlers{
		directory: directory,
	}
}

// ListDomains handles GET /api/v1/domains
// @Summary List domains
// @Description List the authenticated tenant's domains
// @Tags domains
// @Produce json
// @Success 200 {object} models.DomainListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/v1/domains [get]
func (h *DomainHandlers) ListDomains(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	resp, err := h.directory.ListDomains(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AddDomain handles POST /api/v1/domains
// @Summary Add a domain
// @Description Add a pending domain to the authenticated tenant
// @Tags domains
// @Accept json
// @Produce json
// @Param request body models.AddDomainRequest true "Domain request"
// @Success 201 {object} models.AddDomainResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/v1/domains [post]
func (h *DomainHandlers) AddDomain(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req models.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	resp, err := h.directory.AddDomain(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetDomainStatus handles GET /api/v1/domains/status
// @Summary Get domain status
// @Description Get the tenant's current domain configuration and DNS records
// @Tags domains
// @Produce json
// @Success 200 {object} models.DomainStatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/status [get]
func (h *DomainHandlers) GetDomainStatus(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	resp, err := h.directory.GetDomainStatus(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateDomainTarget handles PUT /api/v1/domains/:domain/target
// @Summary Change what a domain serves
// @Tags domains
// @Accept json
// @Produce json
// @Param domain path string true "Domain name"
// @Param request body models.UpdateDomainTargetRequest true "Target request"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{domain}/target [put]
func (h *DomainHandlers) UpdateDomainTarget(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req models.UpdateDomainTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	if err := h.directory.UpdateDomainTarget(c.Request.Context(), tenantID, c.Param("domain"), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Domain target updated"})
}

// VerifyDomain handles POST /api/v1/domains/:domain/verify
// @Summary Verify a domain
// @Description Check the domain's DNS records and index it once they are in place
// @Tags domains
// @Produce json
// @Param domain path string true "Domain name"
// @Success 200 {object} models.VerifyResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{domain}/verify [post]
func (h *DomainHandlers) VerifyDomain(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	resp, err := h.directory.VerifyDomain(c.Request.Context(), tenantID, c.Param("domain"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveDomain handles DELETE /api/v1/domains/:domain
// @Summary Remove a domain
// @Tags domains
// @Produce json
// @Param domain path string true "Domain name"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/domains/{domain} [delete]
func (h *DomainHandlers) RemoveDomain(c *gin.Context) {
	tenantID, ok := getTenantFromContext(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	if err := h.directory.RemoveDomain(c.Request.Context(), tenantID, c.Param("domain")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Domain removed"})
}
