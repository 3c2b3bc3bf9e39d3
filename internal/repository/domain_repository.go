package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vibe-domain-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxDNSCheckAttempts is how many lookups a pending domain gets before the
// verification worker stops picking it up. Manual verification still works.
const MaxDNSCheckAttempts = 100

var (
	ErrDomainNotFound      = errors.New("domain not found")
	ErrDomainAlreadyExists = errors.New("domain already exists")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrMappingNotFound     = errors.New("domain mapping not found")
)

// DomainRepository handles database operations for tenant domains, the
// global domain mapping index and the tenant records they hang off
type DomainRepository struct {
	db *gorm.DB
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// GetTenant retrieves a tenant by ID
func (r *DomainRepository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", tenantID).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SaveTenant creates or replaces a tenant. Tenants are owned by the tenant
// service; this exists for seeding and tests.
func (r *DomainRepository) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

// CreateTenantDomain adds a domain to a tenant's collection. A domain some
// tenant already holds returns ErrDomainAlreadyExists.
func (r *DomainRepository) CreateTenantDomain(ctx context.Context, domain *models.TenantDomain) error {
	err := r.db.WithContext(ctx).Create(domain).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDomainAlreadyExists
	}
	// drivers without error translation
	if claimed, checkErr := r.DomainClaimed(ctx, domain.Domain); checkErr == nil && claimed {
		return ErrDomainAlreadyExists
	}
	return err
}

// GetTenantDomain retrieves one domain from a tenant's collection
func (r *DomainRepository) GetTenantDomain(ctx context.Context, tenantID, domain string) (*models.TenantDomain, error) {
	var record models.TenantDomain
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND domain = ?", tenantID, domain).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListTenantDomains retrieves a tenant's domain collection, newest first
func (r *DomainRepository) ListTenantDomains(ctx context.Context, tenantID string) ([]models.TenantDomain, error) {
	var domains []models.TenantDomain
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&domains).Error
	return domains, err
}

// DomainClaimed checks whether any tenant holds the domain in its collection
func (r *DomainRepository) DomainClaimed(ctx context.Context, domain string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TenantDomain{}).Where("domain = ?", domain).Count(&count).Error
	return count > 0, err
}

// UpdateTenantDomainTarget updates what a tenant domain serves
func (r *DomainRepository) UpdateTenantDomainTarget(ctx context.Context, tenantID, domain string, updates map[string]interface{}) error {
	// map updates bypass the column serializer
	if rc, ok := updates["routing_config"].(*models.RoutingConfig); ok {
		if rc == nil {
			updates["routing_config"] = nil
		} else {
			data, err := json.Marshal(rc)
			if err != nil {
				return fmt.Errorf("failed to encode routing config: %w", err)
			}
			updates["routing_config"] = string(data)
		}
	}
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.TenantDomain{}).
		Where("tenant_id = ? AND domain = ?", tenantID, domain).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}

// MarkTenantDomainVerified records a successful DNS verification
func (r *DomainRepository) MarkTenantDomainVerified(ctx context.Context, tenantID, domain string, verifiedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.TenantDomain{}).
		Where("tenant_id = ? AND domain = ?", tenantID, domain).
		Updates(map[string]interface{}{
			"verification_status": models.VerificationStatusVerified,
			"verified_at":         &verifiedAt,
			"updated_at":          time.Now(),
		}).Error
}

// DeleteTenantDomain removes a domain from a tenant's collection
func (r *DomainRepository) DeleteTenantDomain(ctx context.Context, tenantID, domain string) error {
	result := r.db.WithContext(ctx).Delete(&models.TenantDomain{}, "tenant_id = ? AND domain = ?", tenantID, domain)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}

// RecordDNSCheck stamps a DNS lookup against a tenant domain, whatever its outcome
func (r *DomainRepository) RecordDNSCheck(ctx context.Context, tenantID, domain string, checkedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.TenantDomain{}).
		Where("tenant_id = ? AND domain = ?", tenantID, domain).
		UpdateColumns(map[string]interface{}{
			"dns_last_checked_at": &checkedAt,
			"dns_check_attempts":  gorm.Expr("COALESCE(dns_check_attempts, 0) + ?", 1),
		}).Error
}

// GetPendingTenantDomains retrieves tenant domains awaiting DNS
// verification, least recently checked first
func (r *DomainRepository) GetPendingTenantDomains(ctx context.Context, limit int) ([]models.TenantDomain, error) {
	var domains []models.TenantDomain
	err := r.db.WithContext(ctx).
		Where("verification_status = ?", models.VerificationStatusPending).
		Where("COALESCE(dns_check_attempts, 0) < ?", MaxDNSCheckAttempts).
		Order("dns_last_checked_at ASC NULLS FIRST").
		Limit(limit).
		Find(&domains).Error
	return domains, err
}

// GetMapping retrieves the global mapping entry for a domain
func (r *DomainRepository) GetMapping(ctx context.Context, domain string) (*models.DomainMapping, error) {
	var mapping models.DomainMapping
	err := r.db.WithContext(ctx).Where("domain = ?", domain).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// UpsertMapping writes the global mapping entry for a verified domain
func (r *DomainRepository) UpsertMapping(ctx context.Context, mapping *models.DomainMapping) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_type", "target_id", "tenant_id", "updated_at"}),
	}).Create(mapping).Error
}

// UpdateMappingTarget retargets an existing mapping owned by tenantID.
// Reports false when no such mapping exists.
func (r *DomainRepository) UpdateMappingTarget(ctx context.Context, tenantID, domain string, targetType models.TargetType, targetID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.DomainMapping{}).
		Where("domain = ? AND tenant_id = ?", domain, tenantID).
		Updates(map[string]interface{}{
			"target_type": targetType,
			"target_id":   targetID,
			"updated_at":  time.Now(),
		})
	return result.RowsAffected > 0, result.Error
}

// DeleteMapping removes the mapping entry for a domain owned by tenantID
func (r *DomainRepository) DeleteMapping(ctx context.Context, tenantID, domain string) error {
	return r.db.WithContext(ctx).Delete(&models.DomainMapping{}, "domain = ? AND tenant_id = ?", domain, tenantID).Error
}

// LoadDomainSource reads where a tenant's domains currently live: the
// collection when it has entries, else the legacy field on the tenant.
func (r *DomainRepository) LoadDomainSource(ctx context.Context, tenantID string) (DomainSource, error) {
	entries, err := r.ListTenantDomains(ctx, tenantID)
	if err != nil {
		return DomainSource{}, err
	}
	if len(entries) > 0 {
		return DomainSource{Kind: SourceCollection, Entries: entries}, nil
	}

	tenant, err := r.GetTenant(ctx, tenantID)
	if errors.Is(err, ErrTenantNotFound) {
		return DomainSource{Kind: SourceNone}, nil
	}
	if err != nil {
		return DomainSource{}, err
	}
	if legacyDomain(tenant.CustomDomain) == "" {
		return DomainSource{Kind: SourceNone}, nil
	}
	return DomainSource{Kind: SourceLegacy, Legacy: tenant.CustomDomain}, nil
}

// ListDomainRecords returns a tenant's domains in normalized form
func (r *DomainRepository) ListDomainRecords(ctx context.Context, tenantID string) ([]models.DomainRecord, error) {
	source, err := r.LoadDomainSource(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return source.Records(), nil
}
