package services

import (
	"context"
	"errors"
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/events"
	"vibe-domain-service/internal/metrics"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"

	"github.com/rs/zerolog/log"
)

// RegistrarService attaches customer-owned domains to published sites
type RegistrarService struct {
	cfg       *config.Config
	validator *DomainValidator
	sites     *repository.SiteRepository
	checker   RecordChecker
	publisher EventPublisher
}

// NewRegistrarService creates a new registrar service. A nil checker
// records verification without looking at DNS.
func NewRegistrarService(
	cfg *config.Config,
	validator *DomainValidator,
	sites *repository.SiteRepository,
	checker RecordChecker,
	publisher EventPublisher,
) *RegistrarService {
	return &RegistrarService{
		cfg:       cfg,
		validator: validator,
		sites:     sites,
		checker:   checker,
		publisher: publisher,
	}
}

// AddCustomDomain attaches an unverified domain to the project's published
// site and returns the CNAME the customer has to create.
func (s *RegistrarService) AddCustomDomain(ctx context.Context, projectID, domain, userID string) (*models.AddCustomDomainResponse, error) {
	resp, err := s.addCustomDomain(ctx, projectID, domain, userID)
	metrics.Operation("add_custom_domain", err)
	return resp, err
}

func (s *RegistrarService) addCustomDomain(ctx context.Context, projectID, domain, userID string) (*models.AddCustomDomainResponse, error) {
	domain, ok := s.validator.CanonicalDomain(domain)
	if !ok {
		return nil, ErrInvalidDomain
	}

	inUse, err := s.sites.CustomDomainInUse(ctx, domain)
	if err != nil {
		log.Error().Err(err).Str("domain", domain).Msg("Failed to check custom domain uniqueness")
		return nil, ErrAddCustomDomainFailed
	}
	if inUse {
		return nil, ErrDomainInUse
	}

	site, err := s.findSite(ctx, projectID, userID, ErrAddCustomDomainFailed)
	if err != nil {
		return nil, err
	}

	if err := s.sites.SetCustomDomain(ctx, site.ID, domain); err != nil {
		log.Error().Err(err).Str("site_id", site.ID).Str("domain", domain).Msg("Failed to attach custom domain")
		return nil, ErrAddCustomDomainFailed
	}

	log.Info().Str("project_id", projectID).Str("domain", domain).Msg("Custom domain added")
	s.publishSiteEvent(events.CustomDomainAdded, site, domain, false)

	return &models.AddCustomDomainResponse{
		Success:              true,
		VerificationRequired: true,
		DNSRecords: []models.DNSRecord{
			{Type: "CNAME", Host: domain, Value: s.cfg.Platform.HostingEndpoint},
		},
	}, nil
}

// VerifyCustomDomain records the verification outcome of the site's custom domain
func (s *RegistrarService) VerifyCustomDomain(ctx context.Context, projectID, userID string) (*models.VerifyResponse, error) {
	resp, err := s.verifyCustomDomain(ctx, projectID, userID)
	metrics.Operation("verify_custom_domain", err)
	return resp, err
}

func (s *RegistrarService) verifyCustomDomain(ctx context.Context, projectID, userID string) (*models.VerifyResponse, error) {
	site, err := s.findSite(ctx, projectID, userID, ErrVerifyCustomDomainFailed)
	if err != nil {
		return nil, err
	}
	if !site.HasCustomDomain() {
		return nil, ErrNoCustomDomain
	}
	return s.verifySite(ctx, site)
}

// verifySite checks DNS for an already loaded site and records success
func (s *RegistrarService) verifySite(ctx context.Context, site *models.PublishedSite) (*models.VerifyResponse, error) {
	domain := *site.CustomDomain

	if s.checker != nil {
		result, err := s.checker.CheckCNAME(ctx, domain, s.cfg.Platform.HostingEndpoint)
		if recErr := s.sites.RecordDNSCheck(ctx, site.ID, time.Now()); recErr != nil {
			log.Warn().Err(recErr).Str("site_id", site.ID).Msg("Failed to record DNS check")
		}
		if err != nil {
			log.Warn().Err(err).Str("domain", domain).Msg("CNAME lookup failed")
			return nil, ErrVerifyCustomDomainFailed
		}
		if !result.Verified {
			return &models.VerifyResponse{Success: true, Verified: false, Message: result.Message}, nil
		}
	}

	if err := s.sites.MarkCustomDomainVerified(ctx, site.ID); err != nil {
		log.Error().Err(err).Str("site_id", site.ID).Msg("Failed to record custom domain verification")
		return nil, ErrVerifyCustomDomainFailed
	}

	log.Info().Str("project_id", site.ProjectID).Str("domain", domain).Msg("Custom domain verified")
	s.publishSiteEvent(events.CustomDomainVerified, site, domain, true)

	return &models.VerifyResponse{Success: true, Verified: true}, nil
}

// VerifyPendingSite rechecks a site picked up by the verification worker
func (s *RegistrarService) VerifyPendingSite(ctx context.Context, site *models.PublishedSite) (*models.VerifyResponse, error) {
	if !site.HasCustomDomain() {
		return nil, ErrNoCustomDomain
	}
	return s.verifySite(ctx, site)
}

// RemoveCustomDomain detaches the custom domain from the project's published site
func (s *RegistrarService) RemoveCustomDomain(ctx context.Context, projectID, userID string) error {
	err := s.removeCustomDomain(ctx, projectID, userID)
	metrics.Operation("remove_custom_domain", err)
	return err
}

func (s *RegistrarService) removeCustomDomain(ctx context.Context, projectID, userID string) error {
	site, err := s.findSite(ctx, projectID, userID, ErrRemoveCustomDomainFailed)
	if err != nil {
		return err
	}

	var previous string
	if site.HasCustomDomain() {
		previous = *site.CustomDomain
	}

	if err := s.sites.ClearCustomDomain(ctx, site.ID); err != nil {
		log.Error().Err(err).Str("site_id", site.ID).Msg("Failed to remove custom domain")
		return ErrRemoveCustomDomainFailed
	}

	log.Info().Str("project_id", projectID).Str("domain", previous).Msg("Custom domain removed")
	s.publishSiteEvent(events.CustomDomainRemoved, site, previous, false)

	return nil
}

// findSite loads the caller's published site for a project; the owner
// scoping is the ownership check.
func (s *RegistrarService) findSite(ctx context.Context, projectID, userID string, infraErr *ServiceError) (*models.PublishedSite, error) {
	site, err := s.sites.GetActiveByProjectForUser(ctx, projectID, userID)
	if errors.Is(err, repository.ErrSiteNotFound) {
		return nil, ErrPublishedSiteNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to load published site")
		return nil, infraErr
	}
	return site, nil
}

func (s *RegistrarService) publishSiteEvent(eventType string, site *models.PublishedSite, domain string, verified bool) {
	evt := events.NewEvent(eventType)
	evt.TenantID = site.TenantID
	evt.UserID = site.UserID
	evt.ProjectID = site.ProjectID
	evt.SiteID = site.ID
	evt.Subdomain = site.Subdomain
	evt.Domain = domain
	evt.Verified = verified
	publishEvent(s.publisher, evt)
}
