package services

import (
	"net/http"
)

// ServiceError is an expected failure with the message shown to callers
type ServiceError struct {
	Code    string
	Message string
	Status  int
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(code string, status int, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message, Status: status}
}

// Validation
var (
	ErrInvalidSubdomain     = newServiceError("INVALID_SUBDOMAIN", http.StatusBadRequest, "Invalid subdomain format")
	ErrInvalidDomain        = newServiceError("INVALID_DOMAIN", http.StatusBadRequest, "Invalid domain format")
	ErrInvalidTargetType    = newServiceError("INVALID_TARGET_TYPE", http.StatusBadRequest, "Invalid target type")
	ErrVibeSiteNeedsProject = newServiceError("TARGET_ID_REQUIRED", http.StatusBadRequest, "Vibe site target requires a Vibe Builder project")
	ErrHybridNeedsProject   = newServiceError("TARGET_ID_REQUIRED", http.StatusBadRequest, "Hybrid target requires a Vibe Builder project")
)

// Conflict
var (
	ErrSubdomainNotAvailable = newServiceError("SUBDOMAIN_NOT_AVAILABLE", http.StatusConflict, "Subdomain not available")
	ErrDomainInUse           = newServiceError("DOMAIN_IN_USE", http.StatusConflict, "Domain already in use")
)

// Authorization
var (
	ErrUnauthorized = newServiceError("UNAUTHORIZED", http.StatusForbidden, "Unauthorized")
)

// Not found
var (
	ErrProjectNotFound       = newServiceError("PROJECT_NOT_FOUND", http.StatusNotFound, "Project not found")
	ErrPublishedSiteNotFound = newServiceError("SITE_NOT_FOUND", http.StatusNotFound, "Published site not found")
	ErrNoCustomDomain        = newServiceError("NO_CUSTOM_DOMAIN", http.StatusNotFound, "No custom domain configured")
	ErrTenantNotFound        = newServiceError("TENANT_NOT_FOUND", http.StatusNotFound, "Tenant not found")
	ErrDomainNotFound        = newServiceError("DOMAIN_NOT_FOUND", http.StatusNotFound, "Domain not found")
)

// Infrastructure, one per operation
var (
	ErrCheckAvailabilityFailed  = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to check availability")
	ErrPublishFailed            = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to publish website")
	ErrUnpublishFailed          = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to unpublish website")
	ErrGetSiteFailed            = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to get published site")
	ErrAddCustomDomainFailed    = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to add custom domain")
	ErrVerifyCustomDomainFailed = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to verify custom domain")
	ErrRemoveCustomDomainFailed = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to remove custom domain")
	ErrListDomainsFailed        = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to list domains")
	ErrUpdateTargetFailed       = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to update domain target")
	ErrDomainStatusFailed       = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to get domain status")
	ErrAddDomainFailed          = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to add domain")
	ErrVerifyDomainFailed       = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to verify domain")
	ErrRemoveDomainFailed       = newServiceError("INTERNAL_ERROR", http.StatusInternalServerError, "Failed to remove domain")
)
