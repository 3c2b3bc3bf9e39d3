package models

import (
	"time"
)

// ConnectionType represents how a customer points a domain at the platform
type ConnectionType string

const (
	ConnectionTypeCNAME      ConnectionType = "cname"
	ConnectionTypeNameserver ConnectionType = "nameserver"
)

// TargetType represents what content a domain serves
type TargetType string

const (
	TargetTypeMenu     TargetType = "menu"
	TargetTypeVibeSite TargetType = "vibe_site"
	TargetTypeHybrid   TargetType = "hybrid"
)

// RequiresTargetID returns true for targets that point at a Vibe project
func (t TargetType) RequiresTargetID() bool {
	return t == TargetTypeVibeSite || t == TargetTypeHybrid
}

// IsValid returns true for known target types
func (t TargetType) IsValid() bool {
	switch t {
	case TargetTypeMenu, TargetTypeVibeSite, TargetTypeHybrid:
		return true
	}
	return false
}

// VerificationStatus represents the DNS verification state of a domain
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
)

// SSLStatus represents SSL certificate status
type SSLStatus string

const (
	SSLStatusPending SSLStatus = "pending"
	SSLStatusActive  SSLStatus = "active"
	SSLStatusFailed  SSLStatus = "failed"
)

// DomainType represents the type of domain
type DomainType string

const (
	DomainTypeApex      DomainType = "apex"
	DomainTypeSubdomain DomainType = "subdomain"
)

// RoutingConfig splits a hybrid domain between the storefront menu and a Vibe site
type RoutingConfig struct {
	RootPath string `json:"rootPath"` // served by the Vibe site, e.g. "/"
	MenuPath string `json:"menuPath"` // served by the storefront, e.g. "/menu"
}

// TenantDomain is a customer-owned hostname in a tenant's domain collection.
// A hostname belongs to at most one tenant.
type TenantDomain struct {
	TenantID string `json:"tenantId" gorm:"primaryKey;size:100"`
	Domain   string `json:"domain" gorm:"primaryKey;size:255;uniqueIndex:idx_tenant_domains_domain_unique"`

	ConnectionType ConnectionType `json:"connectionType" gorm:"size:20;default:'cname'"`
	TargetType     TargetType     `json:"targetType" gorm:"size:20;default:'menu'"`
	TargetID       string         `json:"targetId,omitempty" gorm:"size:100"`
	TargetName     string         `json:"targetName,omitempty" gorm:"size:255"`
	RoutingConfig  *RoutingConfig `json:"routingConfig,omitempty" gorm:"type:text;serializer:json"`

	VerificationStatus VerificationStatus `json:"verificationStatus" gorm:"size:20;default:'pending';index"`
	SSLStatus          SSLStatus          `json:"sslStatus" gorm:"size:20;default:'pending'"`
	DNSLastCheckedAt   *time.Time         `json:"dnsLastCheckedAt,omitempty"`
	DNSCheckAttempts   int                `json:"dnsCheckAttempts" gorm:"default:0"`

	CreatedAt  time.Time  `json:"createdAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (TenantDomain) TableName() string {
	return "tenant_domains"
}

// IsVerified returns true if DNS verification has been recorded
func (d *TenantDomain) IsVerified() bool {
	return d.VerificationStatus == VerificationStatusVerified
}

// DomainMapping is the flat global index consulted at request time to map a
// hostname to its tenant and target. Written only when a domain is verified
// and when the target of an already indexed domain changes.
type DomainMapping struct {
	Domain     string     `json:"domain" gorm:"primaryKey;size:255"`
	TargetType TargetType `json:"targetType" gorm:"size:20;not null"`
	TargetID   string     `json:"targetId,omitempty" gorm:"size:100"`
	TenantID   string     `json:"tenantId" gorm:"size:100;not null;index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (DomainMapping) TableName() string {
	return "domain_mappings"
}

// Tenant is a brand or dispensary account. Owned by the tenant service; read
// here for existence and for the legacy single-domain field.
type Tenant struct {
	ID   string `json:"id" gorm:"primaryKey;size:100"`
	Name string `json:"name" gorm:"size:255"`

	// CustomDomain is the pre-collection embedded domain object. Its shape is
	// loose: timestamps can be strings, numbers or provider timestamp objects.
	CustomDomain map[string]any `json:"customDomain,omitempty" gorm:"type:text;serializer:json"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// DomainRecord is the normalized read shape of a tenant domain, whichever
// source it came from.
type DomainRecord struct {
	Domain             string             `json:"domain"`
	ConnectionType     ConnectionType     `json:"connectionType"`
	TargetType         TargetType         `json:"targetType"`
	TargetID           string             `json:"targetId,omitempty"`
	TargetName         string             `json:"targetName,omitempty"`
	RoutingConfig      *RoutingConfig     `json:"routingConfig,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	SSLStatus          SSLStatus          `json:"sslStatus,omitempty"`
	CreatedAt          string             `json:"createdAt,omitempty"`
	VerifiedAt         string             `json:"verifiedAt,omitempty"`
	Legacy             bool               `json:"legacy,omitempty"`
}

// DNSRecord is a DNS instruction shown to the customer as copy-paste configuration
type DNSRecord struct {
	Type  string `json:"type"` // CNAME, NS
	Host  string `json:"host"`
	Value string `json:"value"`
}
