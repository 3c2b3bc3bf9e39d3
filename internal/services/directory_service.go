package services

import (
	"context"
	"errors"
	"time"

	"vibe-domain-service/internal/cache"
	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/events"
	"vibe-domain-service/internal/metrics"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"

	"github.com/rs/zerolog/log"
)

// DirectoryService manages a tenant's domains and keeps the global domain
// mapping index in step with them.
//
// The mapping index has a single writer rule: an entry is written when a
// domain is verified, and rewritten when the target of an already indexed
// domain changes. Pending domains never get an entry.
type DirectoryService struct {
	cfg       *config.Config
	validator *DomainValidator
	domains   *repository.DomainRepository
	cache     *cache.MappingCache
	checker   RecordChecker
	publisher EventPublisher
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	cfg *config.Config,
	validator *DomainValidator,
	domains *repository.DomainRepository,
	mappingCache *cache.MappingCache,
	checker RecordChecker,
	publisher EventPublisher,
) *DirectoryService {
	if mappingCache == nil {
		mappingCache = cache.NewMappingCache(nil, 0)
	}
	return &DirectoryService{
		cfg:       cfg,
		validator: validator,
		domains:   domains,
		cache:     mappingCache,
		checker:   checker,
		publisher: publisher,
	}
}

// ListDomains returns a tenant's domains, falling back to the legacy
// single-domain field when the collection is empty
func (s *DirectoryService) ListDomains(ctx context.Context, tenantID string) (*models.DomainListResponse, error) {
	records, err := s.domains.ListDomainRecords(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list domains")
		return nil, ErrListDomainsFailed
	}
	return &models.DomainListResponse{Success: true, Domains: records}, nil
}

// UpdateDomainTarget changes what a tenant domain serves
func (s *DirectoryService) UpdateDomainTarget(ctx context.Context, tenantID, domain string, req *models.UpdateDomainTargetRequest) error {
	err := s.updateDomainTarget(ctx, tenantID, domain, req)
	metrics.Operation("update_domain_target", err)
	return err
}

func (s *DirectoryService) updateDomainTarget(ctx context.Context, tenantID, domain string, req *models.UpdateDomainTargetRequest) error {
	if err := validateTarget(req.TargetType, req.TargetID); err != nil {
		return err
	}
	domain = NormalizeHostname(domain)

	updates := map[string]interface{}{
		"target_type": req.TargetType,
		"target_id":   req.TargetID,
		"target_name": req.TargetName,
	}
	switch {
	case req.TargetType != models.TargetTypeHybrid:
		updates["routing_config"] = (*models.RoutingConfig)(nil)
	case req.RoutingConfig != nil:
		updates["routing_config"] = req.RoutingConfig
	}

	err := s.domains.UpdateTenantDomainTarget(ctx, tenantID, domain, updates)
	if errors.Is(err, repository.ErrDomainNotFound) {
		return ErrDomainNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Str("domain", domain).Msg("Failed to update domain target")
		return ErrUpdateTargetFailed
	}

	// Mapping write (b): only an already indexed domain is retargeted
	indexed, err := s.domains.UpdateMappingTarget(ctx, tenantID, domain, req.TargetType, req.TargetID)
	if err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to update domain mapping")
		return ErrUpdateTargetFailed
	}
	if indexed {
		s.cache.Invalidate(ctx, domain)
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("domain", domain).
		Str("target_type", string(req.TargetType)).
		Bool("mapping_updated", indexed).
		Msg("Domain target updated")

	evt := events.NewEvent(events.DomainTargetUpdated)
	evt.TenantID = tenantID
	evt.Domain = domain
	evt.TargetType = string(req.TargetType)
	evt.TargetID = req.TargetID
	publishEvent(s.publisher, evt)

	return nil
}

// GetDomainStatus returns the tenant's current domain configuration, or a
// nil config when the tenant has no domain
func (s *DirectoryService) GetDomainStatus(ctx context.Context, tenantID string) (*models.DomainStatusResponse, error) {
	if _, err := s.domains.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load tenant")
		return nil, ErrDomainStatusFailed
	}

	records, err := s.domains.ListDomainRecords(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load domains")
		return nil, ErrDomainStatusFailed
	}
	if len(records) == 0 {
		return &models.DomainStatusResponse{Success: true, Config: nil}, nil
	}

	// records are newest first
	record := records[0]
	return &models.DomainStatusResponse{
		Success: true,
		Config: &models.DomainConfig{
			DomainRecord: record,
			DomainType:   DetectDomainType(record.Domain),
			DNSRecords:   s.DNSRecordsFor(record.Domain, record.ConnectionType),
		},
	}, nil
}

// GetTenantByDomain returns the tenant a domain is mapped to, or "" on a
// miss or any lookup failure
func (s *DirectoryService) GetTenantByDomain(ctx context.Context, domain string) string {
	mapping, err := s.LookupMapping(ctx, domain)
	if err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("Domain mapping lookup failed")
		return ""
	}
	if mapping == nil {
		return ""
	}
	return mapping.TenantID
}

// LookupMapping returns the mapping entry for domain through the cache, or
// nil when the domain is not indexed
func (s *DirectoryService) LookupMapping(ctx context.Context, domain string) (*models.DomainMapping, error) {
	domain = NormalizeHostname(domain)
	if domain == "" {
		return nil, nil
	}

	if mapping, ok := s.cache.Get(ctx, domain); ok {
		return mapping, nil
	}

	mapping, err := s.domains.GetMapping(ctx, domain)
	if errors.Is(err, repository.ErrMappingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, mapping)
	return mapping, nil
}

// AddDomain adds a pending domain to a tenant and returns the DNS records
// the customer must create
func (s *DirectoryService) AddDomain(ctx context.Context, tenantID string, req *models.AddDomainRequest) (*models.AddDomainResponse, error) {
	resp, err := s.addDomain(ctx, tenantID, req)
	metrics.Operation("add_domain", err)
	return resp, err
}

func (s *DirectoryService) addDomain(ctx context.Context, tenantID string, req *models.AddDomainRequest) (*models.AddDomainResponse, error) {
	domain, ok := s.validator.CanonicalDomain(req.Domain)
	if !ok {
		return nil, ErrInvalidDomain
	}
	targetType := req.TargetType
	if targetType == "" {
		targetType = models.TargetTypeMenu
	}
	if err := validateTarget(targetType, req.TargetID); err != nil {
		return nil, err
	}
	connectionType := req.ConnectionType
	if connectionType == "" {
		connectionType = models.ConnectionTypeCNAME
	}

	if _, err := s.domains.GetTenant(ctx, tenantID); err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to load tenant")
		return nil, ErrAddDomainFailed
	}

	claimed, err := s.domains.DomainClaimed(ctx, domain)
	if err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to check domain uniqueness")
		return nil, ErrAddDomainFailed
	}
	if claimed {
		return nil, ErrDomainInUse
	}

	record := &models.TenantDomain{
		TenantID:           tenantID,
		Domain:             domain,
		ConnectionType:     connectionType,
		TargetType:         targetType,
		TargetID:           req.TargetID,
		TargetName:         req.TargetName,
		VerificationStatus: models.VerificationStatusPending,
		SSLStatus:          models.SSLStatusPending,
	}
	if targetType == models.TargetTypeHybrid {
		record.RoutingConfig = req.RoutingConfig
	}

	err = s.domains.CreateTenantDomain(ctx, record)
	if errors.Is(err, repository.ErrDomainAlreadyExists) {
		return nil, ErrDomainInUse
	}
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Str("domain", domain).Msg("Failed to create tenant domain")
		return nil, ErrAddDomainFailed
	}

	log.Info().Str("tenant_id", tenantID).Str("domain", domain).Str("connection_type", string(connectionType)).Msg("Domain added")

	evt := events.NewEvent(events.DomainAdded)
	evt.TenantID = tenantID
	evt.Domain = domain
	evt.TargetType = string(targetType)
	evt.TargetID = req.TargetID
	publishEvent(s.publisher, evt)

	source := repository.DomainSource{Kind: repository.SourceCollection, Entries: []models.TenantDomain{*record}}
	return &models.AddDomainResponse{
		Success:    true,
		Domain:     source.Records()[0],
		DNSRecords: s.DNSRecordsFor(domain, connectionType),
	}, nil
}

// VerifyDomain checks a tenant domain's DNS and, once it is in place,
// marks it verified and indexes it
func (s *DirectoryService) VerifyDomain(ctx context.Context, tenantID, domain string) (*models.VerifyResponse, error) {
	resp, err := s.verifyDomain(ctx, tenantID, domain)
	metrics.Operation("verify_domain", err)
	return resp, err
}

func (s *DirectoryService) verifyDomain(ctx context.Context, tenantID, domain string) (*models.VerifyResponse, error) {
	domain = NormalizeHostname(domain)

	record, err := s.domains.GetTenantDomain(ctx, tenantID, domain)
	if errors.Is(err, repository.ErrDomainNotFound) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Str("domain", domain).Msg("Failed to load tenant domain")
		return nil, ErrVerifyDomainFailed
	}

	if s.checker != nil {
		var result *DNSCheckResult
		if record.ConnectionType == models.ConnectionTypeNameserver {
			result, err = s.checker.CheckNameservers(ctx, domain, s.cfg.Platform.Nameservers)
		} else {
			result, err = s.checker.CheckCNAME(ctx, domain, s.cfg.Platform.HostingEndpoint)
		}
		if recErr := s.domains.RecordDNSCheck(ctx, tenantID, domain, time.Now()); recErr != nil {
			log.Warn().Err(recErr).Str("domain", domain).Msg("Failed to record DNS check")
		}
		if err != nil {
			log.Warn().Err(err).Str("domain", domain).Msg("DNS lookup failed")
			return nil, ErrVerifyDomainFailed
		}
		if !result.Verified {
			return &models.VerifyResponse{Success: true, Verified: false, Message: result.Message}, nil
		}
	}

	if err := s.domains.MarkTenantDomainVerified(ctx, tenantID, domain, time.Now()); err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to record domain verification")
		return nil, ErrVerifyDomainFailed
	}

	// Mapping write (a): a verified domain is indexed
	if err := s.domains.UpsertMapping(ctx, &models.DomainMapping{
		Domain:     domain,
		TargetType: record.TargetType,
		TargetID:   record.TargetID,
		TenantID:   tenantID,
	}); err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to write domain mapping")
		return nil, ErrVerifyDomainFailed
	}
	s.cache.Invalidate(ctx, domain)

	log.Info().Str("tenant_id", tenantID).Str("domain", domain).Msg("Domain verified")

	evt := events.NewEvent(events.DomainVerified)
	evt.TenantID = tenantID
	evt.Domain = domain
	evt.TargetType = string(record.TargetType)
	evt.TargetID = record.TargetID
	evt.Verified = true
	publishEvent(s.publisher, evt)

	return &models.VerifyResponse{Success: true, Verified: true}, nil
}

// RemoveDomain deletes a tenant domain and its mapping entry
func (s *DirectoryService) RemoveDomain(ctx context.Context, tenantID, domain string) error {
	err := s.removeDomain(ctx, tenantID, domain)
	metrics.Operation("remove_domain", err)
	return err
}

func (s *DirectoryService) removeDomain(ctx context.Context, tenantID, domain string) error {
	domain = NormalizeHostname(domain)

	err := s.domains.DeleteTenantDomain(ctx, tenantID, domain)
	if errors.Is(err, repository.ErrDomainNotFound) {
		return ErrDomainNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Str("domain", domain).Msg("Failed to delete tenant domain")
		return ErrRemoveDomainFailed
	}

	if err := s.domains.DeleteMapping(ctx, tenantID, domain); err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to delete domain mapping")
		return ErrRemoveDomainFailed
	}
	s.cache.Invalidate(ctx, domain)

	log.Info().Str("tenant_id", tenantID).Str("domain", domain).Msg("Domain removed")

	evt := events.NewEvent(events.DomainRemoved)
	evt.TenantID = tenantID
	evt.Domain = domain
	publishEvent(s.publisher, evt)

	return nil
}

// VerifyPendingDomain rechecks a domain picked up by the verification worker
func (s *DirectoryService) VerifyPendingDomain(ctx context.Context, record *models.TenantDomain) (*models.VerifyResponse, error) {
	return s.VerifyDomain(ctx, record.TenantID, record.Domain)
}

// DNSRecordsFor returns the records a customer creates to connect domain
func (s *DirectoryService) DNSRecordsFor(domain string, connectionType models.ConnectionType) []models.DNSRecord {
	if connectionType == models.ConnectionTypeNameserver {
		records := make([]models.DNSRecord, 0, len(s.cfg.Platform.Nameservers))
		for _, ns := range s.cfg.Platform.Nameservers {
			records = append(records, models.DNSRecord{Type: "NS", Host: domain, Value: ns})
		}
		return records
	}
	return []models.DNSRecord{{Type: "CNAME", Host: domain, Value: s.cfg.Platform.HostingEndpoint}}
}

// validateTarget runs before any store access
func validateTarget(targetType models.TargetType, targetID string) error {
	if !targetType.IsValid() {
		return ErrInvalidTargetType
	}
	if targetID != "" || !targetType.RequiresTargetID() {
		return nil
	}
	if targetType == models.TargetTypeHybrid {
		return ErrHybridNeedsProject
	}
	return ErrVibeSiteNeedsProject
}
