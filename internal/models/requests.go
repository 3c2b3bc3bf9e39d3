package models

// PublishRequest represents a request to publish a Vibe project
type PublishRequest struct {
	Subdomain string `json:"subdomain" binding:"required"`
}

// AddCustomDomainRequest represents a request to attach a domain to a published site
type AddCustomDomainRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// AddDomainRequest represents a request to add a domain to a tenant's collection
type AddDomainRequest struct {
	Domain         string         `json:"domain" binding:"required"`
	ConnectionType ConnectionType `json:"connectionType" binding:"omitempty,oneof=cname nameserver"`
	TargetType     TargetType     `json:"targetType" binding:"omitempty,oneof=menu vibe_site hybrid"`
	TargetID       string         `json:"targetId"`
	TargetName     string         `json:"targetName"`
	RoutingConfig  *RoutingConfig `json:"routingConfig"`
}

// UpdateDomainTargetRequest represents a request to change what a domain serves
type UpdateDomainTargetRequest struct {
	TargetType    TargetType     `json:"targetType" binding:"required,oneof=menu vibe_site hybrid"`
	TargetID      string         `json:"targetId"`
	TargetName    string         `json:"targetName"`
	RoutingConfig *RoutingConfig `json:"routingConfig"`
}

// AvailabilityResponse is the result of a subdomain availability check
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// PublishResponse is returned after a successful publish
type PublishResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	SiteID  string `json:"siteId,omitempty"`
}

// AddCustomDomainResponse carries the DNS instructions for a newly attached domain
type AddCustomDomainResponse struct {
	Success              bool        `json:"success"`
	VerificationRequired bool        `json:"verificationRequired"`
	DNSRecords           []DNSRecord `json:"dnsRecords"`
}

// VerifyResponse reports the recorded outcome of a domain verification
type VerifyResponse struct {
	Success  bool   `json:"success"`
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// DomainListResponse represents a tenant's domains
type DomainListResponse struct {
	Success bool           `json:"success"`
	Domains []DomainRecord `json:"domains"`
}

// DomainConfig is a tenant's current domain configuration and how to connect it
type DomainConfig struct {
	DomainRecord
	DomainType DomainType  `json:"domainType"`
	DNSRecords []DNSRecord `json:"dnsRecords"`
}

// DomainStatusResponse wraps a tenant's domain configuration; Config is nil
// when the tenant has no domain.
type DomainStatusResponse struct {
	Success bool          `json:"success"`
	Config  *DomainConfig `json:"config"`
}

// AddDomainResponse is returned after a domain is added to a tenant
type AddDomainResponse struct {
	Success    bool         `json:"success"`
	Domain     DomainRecord `json:"domain"`
	DNSRecords []DNSRecord  `json:"dnsRecords"`
}

// TenantLookupResponse is returned by the internal tenant lookup
type TenantLookupResponse struct {
	Domain   string `json:"domain"`
	TenantID string `json:"tenantId"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
