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

// PublishingService publishes Vibe projects as sites under the platform zone
type PublishingService struct {
	cfg       *config.Config
	validator *DomainValidator
	sites     *repository.SiteRepository
	publisher EventPublisher
}

// NewPublishingService creates a new publishing service
func NewPublishingService(
	cfg *config.Config,
	validator *DomainValidator,
	sites *repository.SiteRepository,
	publisher EventPublisher,
) *PublishingService {
	return &PublishingService{
		cfg:       cfg,
		validator: validator,
		sites:     sites,
		publisher: publisher,
	}
}

// CheckSubdomainAvailability reports whether candidate can be claimed. It
// fails closed: a lookup error reports the name as unavailable.
func (s *PublishingService) CheckSubdomainAvailability(ctx context.Context, candidate string) *models.AvailabilityResponse {
	if !s.validator.IsValidSubdomainFormat(candidate) {
		return &models.AvailabilityResponse{Available: false, Error: ErrInvalidSubdomain.Message}
	}

	taken, err := s.sites.SubdomainTaken(ctx, candidate, "")
	if err != nil {
		log.Error().Err(err).Str("subdomain", candidate).Msg("Failed to check subdomain availability")
		return &models.AvailabilityResponse{Available: false, Error: ErrCheckAvailabilityFailed.Message}
	}

	return &models.AvailabilityResponse{Available: !taken}
}

// PublishWebsite publishes the project's current content under subdomain.
// A project that is already published is republished in place.
func (s *PublishingService) PublishWebsite(ctx context.Context, projectID, subdomain, userID string) (*models.PublishResponse, error) {
	resp, err := s.publishWebsite(ctx, projectID, subdomain, userID)
	metrics.Operation("publish_website", err)
	return resp, err
}

func (s *PublishingService) publishWebsite(ctx context.Context, projectID, subdomain, userID string) (*models.PublishResponse, error) {
	if !s.validator.IsValidSubdomainFormat(subdomain) {
		return nil, ErrInvalidSubdomain
	}

	project, err := s.sites.GetProject(ctx, projectID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to load project")
		return nil, ErrPublishFailed
	}
	if project.UserID != userID {
		return nil, ErrUnauthorized
	}

	// Each publish re-checks; the partial unique index settles a race
	taken, err := s.sites.SubdomainTaken(ctx, subdomain, projectID)
	if err != nil {
		log.Error().Err(err).Str("subdomain", subdomain).Msg("Failed to check subdomain availability")
		return nil, ErrPublishFailed
	}
	if taken {
		return nil, ErrSubdomainNotAvailable
	}

	existing, err := s.sites.GetActiveByProject(ctx, projectID)
	if err != nil && !errors.Is(err, repository.ErrSiteNotFound) {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to load published site")
		return nil, ErrPublishFailed
	}

	now := time.Now()
	site := &models.PublishedSite{
		ProjectID:   projectID,
		UserID:      userID,
		TenantID:    project.TenantID,
		Subdomain:   subdomain,
		HTML:        project.HTML,
		CSS:         project.CSS,
		Components:  project.Components,
		Styles:      project.Styles,
		Description: project.Description,
		Status:      models.SiteStatusPublished,
		PublishedAt: now,
	}

	if existing != nil {
		site.ID = existing.ID
		err = s.sites.ReplaceSnapshot(ctx, site)
	} else {
		err = s.sites.Create(ctx, site)
	}
	if errors.Is(err, repository.ErrSubdomainTaken) {
		return nil, ErrSubdomainNotAvailable
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Str("subdomain", subdomain).Msg("Failed to save published site")
		return nil, ErrPublishFailed
	}

	url := s.cfg.Platform.SiteURL(subdomain)
	if err := s.sites.MarkProjectPublished(ctx, projectID, url, now); err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to update project publish summary")
		return nil, ErrPublishFailed
	}

	log.Info().
		Str("project_id", projectID).
		Str("site_id", site.ID).
		Str("subdomain", subdomain).
		Bool("republished", existing != nil).
		Msg("Website published")

	evt := events.NewEvent(events.SitePublished)
	evt.TenantID = project.TenantID
	evt.UserID = userID
	evt.ProjectID = projectID
	evt.SiteID = site.ID
	evt.Subdomain = subdomain
	evt.URL = url
	publishEvent(s.publisher, evt)

	return &models.PublishResponse{Success: true, URL: url, SiteID: site.ID}, nil
}

// UnpublishWebsite takes the caller's published site offline. The record
// is kept; the project goes back to draft.
func (s *PublishingService) UnpublishWebsite(ctx context.Context, projectID, userID string) error {
	err := s.unpublishWebsite(ctx, projectID, userID)
	metrics.Operation("unpublish_website", err)
	return err
}

func (s *PublishingService) unpublishWebsite(ctx context.Context, projectID, userID string) error {
	// scoping by owner doubles as the ownership check
	site, err := s.sites.GetActiveByProjectForUser(ctx, projectID, userID)
	if errors.Is(err, repository.ErrSiteNotFound) {
		return ErrPublishedSiteNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to load published site")
		return ErrUnpublishFailed
	}

	if err := s.sites.Unpublish(ctx, site.ID); err != nil {
		log.Error().Err(err).Str("site_id", site.ID).Msg("Failed to unpublish site")
		return ErrUnpublishFailed
	}
	if err := s.sites.MarkProjectDraft(ctx, projectID); err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to set project back to draft")
		return ErrUnpublishFailed
	}

	log.Info().Str("project_id", projectID).Str("site_id", site.ID).Msg("Website unpublished")

	evt := events.NewEvent(events.SiteUnpublished)
	evt.TenantID = site.TenantID
	evt.UserID = userID
	evt.ProjectID = projectID
	evt.SiteID = site.ID
	evt.Subdomain = site.Subdomain
	publishEvent(s.publisher, evt)

	return nil
}

// GetPublishedSiteByProject returns the project's published site, or nil
// when it has none.
func (s *PublishingService) GetPublishedSiteByProject(ctx context.Context, projectID string) (*models.PublishedSite, error) {
	site, err := s.sites.GetActiveByProject(ctx, projectID)
	if errors.Is(err, repository.ErrSiteNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID).Msg("Failed to load published site")
		return nil, ErrGetSiteFailed
	}
	return site, nil
}
