package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamDomains holds every event this service emits
const StreamDomains = "VIBE_DOMAINS"

// StreamSubjects are the subjects captured by StreamDomains
var StreamSubjects = []string{"vibe.>", "domain.>"}

// Published site events
const (
	SitePublished        = "vibe.site.published"
	SiteUnpublished      = "vibe.site.unpublished"
	CustomDomainAdded    = "vibe.custom_domain.added"
	CustomDomainVerified = "vibe.custom_domain.verified"
	CustomDomainRemoved  = "vibe.custom_domain.removed"
)

// Tenant domain events
const (
	DomainAdded         = "domain.added"
	DomainVerified      = "domain.verified"
	DomainTargetUpdated = "domain.target_updated"
	DomainRemoved       = "domain.removed"
)

// Event is the payload published for every site or domain change. The event
// type doubles as the subject.
type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	OccurredAt string `json:"occurredAt"`

	TenantID   string `json:"tenantId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	ProjectID  string `json:"projectId,omitempty"`
	SiteID     string `json:"siteId,omitempty"`
	Subdomain  string `json:"subdomain,omitempty"`
	Domain     string `json:"domain,omitempty"`
	URL        string `json:"url,omitempty"`
	TargetType string `json:"targetType,omitempty"`
	TargetID   string `json:"targetId,omitempty"`
	Verified   bool   `json:"verified,omitempty"`
}

// NewEvent creates an event of the given type stamped with an ID and time
func NewEvent(eventType string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
