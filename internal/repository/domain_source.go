package repository

import (
	"strings"

	"vibe-domain-service/internal/models"
)

// SourceKind tags where a tenant's domains were read from
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceCollection
	SourceLegacy
)

// DomainSource is a tenant's domain data as stored: either collection
// entries or the single legacy object on the tenant record. Records turns
// either into the normalized read shape.
type DomainSource struct {
	Kind    SourceKind
	Entries []models.TenantDomain
	Legacy  map[string]any
}

// Records returns the normalized domain records of the source
func (s DomainSource) Records() []models.DomainRecord {
	switch s.Kind {
	case SourceCollection:
		records := make([]models.DomainRecord, 0, len(s.Entries))
		for i := range s.Entries {
			records = append(records, recordFromEntry(&s.Entries[i]))
		}
		return records
	case SourceLegacy:
		if record, ok := recordFromLegacy(s.Legacy); ok {
			return []models.DomainRecord{record}
		}
	}
	return []models.DomainRecord{}
}

func recordFromEntry(d *models.TenantDomain) models.DomainRecord {
	record := models.DomainRecord{
		Domain:             strings.ToLower(d.Domain),
		ConnectionType:     d.ConnectionType,
		TargetType:         d.TargetType,
		TargetID:           d.TargetID,
		TargetName:         d.TargetName,
		RoutingConfig:      d.RoutingConfig,
		VerificationStatus: d.VerificationStatus,
		SSLStatus:          d.SSLStatus,
		CreatedAt:          NormalizeTimestamp(d.CreatedAt),
		VerifiedAt:         NormalizeTimestamp(d.VerifiedAt),
	}
	applyDefaults(&record)
	return record
}

func recordFromLegacy(field map[string]any) (models.DomainRecord, bool) {
	domain := legacyDomain(field)
	if domain == "" {
		return models.DomainRecord{}, false
	}

	record := models.DomainRecord{
		Domain:             domain,
		ConnectionType:     models.ConnectionType(stringField(field, "connectionType")),
		TargetType:         models.TargetTypeMenu,
		TargetID:           stringField(field, "targetId"),
		TargetName:         stringField(field, "targetName"),
		VerificationStatus: models.VerificationStatus(stringField(field, "verificationStatus")),
		SSLStatus:          models.SSLStatus(stringField(field, "sslStatus")),
		CreatedAt:          NormalizeTimestamp(field["createdAt"]),
		VerifiedAt:         NormalizeTimestamp(field["verifiedAt"]),
		Legacy:             true,
	}
	if record.VerificationStatus == "" {
		if verified, ok := field["verified"].(bool); ok && verified {
			record.VerificationStatus = models.VerificationStatusVerified
		}
	}
	applyDefaults(&record)
	return record, true
}

func applyDefaults(record *models.DomainRecord) {
	if record.ConnectionType == "" {
		record.ConnectionType = models.ConnectionTypeCNAME
	}
	if record.TargetType == "" {
		record.TargetType = models.TargetTypeMenu
	}
	if record.VerificationStatus == "" {
		record.VerificationStatus = models.VerificationStatusPending
	}
}

func legacyDomain(field map[string]any) string {
	return strings.ToLower(strings.TrimSpace(stringField(field, "domain")))
}

func stringField(field map[string]any, key string) string {
	if field == nil {
		return ""
	}
	s, _ := field[key].(string)
	return s
}
