package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SiteStatus represents the publish state of a published site record
type SiteStatus string

const (
	SiteStatusPublished   SiteStatus = "published"
	SiteStatusUnpublished SiteStatus = "unpublished"
)

// ProjectStatus represents the summary status written back onto a Vibe project
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusPublished ProjectStatus = "published"
)

// PublishedSite is a deployed snapshot of a Vibe project, reachable by
// subdomain and optionally by a customer-owned domain.
type PublishedSite struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	ProjectID string `json:"projectId" gorm:"size:100;not null;index"`
	UserID    string `json:"userId" gorm:"size:100;index"`
	TenantID  string `json:"tenantId,omitempty" gorm:"size:100;index"`

	// Unique among published records, see idx_published_sites_active_subdomain
	Subdomain string `json:"subdomain" gorm:"size:63;not null;index"`

	CustomDomain           *string    `json:"customDomain" gorm:"size:255;index"`
	CustomDomainVerified   bool       `json:"customDomainVerified" gorm:"default:false"`
	CustomDomainVerifiedAt *time.Time `json:"customDomainVerifiedAt,omitempty"`
	CustomDomainRemovedAt  *time.Time `json:"customDomainRemovedAt,omitempty"`
	DNSLastCheckedAt       *time.Time `json:"dnsLastCheckedAt,omitempty"`
	DNSCheckAttempts       int        `json:"dnsCheckAttempts" gorm:"default:0"`

	// Content snapshot at publish time
	HTML        string `json:"html" gorm:"type:text"`
	CSS         string `json:"css" gorm:"type:text"`
	Components  string `json:"components" gorm:"type:text"`
	Styles      string `json:"styles" gorm:"type:text"`
	Description string `json:"description" gorm:"type:text"`

	Status         SiteStatus `json:"status" gorm:"size:20;not null;index"`
	Views          int64      `json:"views" gorm:"default:0"`
	UniqueVisitors int64      `json:"uniqueVisitors" gorm:"default:0"`

	PublishedAt   time.Time  `json:"publishedAt"`
	UnpublishedAt *time.Time `json:"unpublishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (PublishedSite) TableName() string {
	return "published_sites"
}

// BeforeCreate hook to generate an ID if not set
func (s *PublishedSite) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// HasCustomDomain returns true if a customer domain is attached
func (s *PublishedSite) HasCustomDomain() bool {
	return s.CustomDomain != nil && *s.CustomDomain != ""
}

// VibeProject is the editable source of a micro-site. It belongs to the
// builder; this service reads ownership and content and writes back the
// publish summary.
type VibeProject struct {
	ID          string `json:"id" gorm:"primaryKey;size:100"`
	UserID      string `json:"userId" gorm:"size:100;index"`
	TenantID    string `json:"tenantId,omitempty" gorm:"size:100;index"`
	Name        string `json:"name" gorm:"size:255"`
	HTML        string `json:"html" gorm:"type:text"`
	CSS         string `json:"css" gorm:"type:text"`
	Components  string `json:"components" gorm:"type:text"`
	Styles      string `json:"styles" gorm:"type:text"`
	Description string `json:"description" gorm:"type:text"`

	Status          ProjectStatus `json:"status" gorm:"size:20;default:'draft'"`
	PublishedURL    string        `json:"publishedUrl,omitempty" gorm:"size:500"`
	LastPublishedAt *time.Time    `json:"lastPublishedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (VibeProject) TableName() string {
	return "vibe_projects"
}
