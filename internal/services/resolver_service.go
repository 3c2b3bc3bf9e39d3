package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"vibe-domain-service/internal/metrics"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"

	"github.com/rs/zerolog/log"
)

const viewIncrementTimeout = 5 * time.Second

// Resolution tiers, in priority order
const (
	tierSubdomain    = "subdomain"
	tierCustomDomain = "custom_domain"
	tierMapping      = "mapping"
)

// ResolverService maps an inbound hostname to the published site that
// serves it. Lookups try the subdomain tier, then the custom domain tier,
// then the domain mapping index, and stop at the first hit.
type ResolverService struct {
	validator  *DomainValidator
	sites      *repository.SiteRepository
	publishing *PublishingService
	directory  *DirectoryService

	views sync.WaitGroup
}

// NewResolverService creates a new resolver service
func NewResolverService(
	validator *DomainValidator,
	sites *repository.SiteRepository,
	publishing *PublishingService,
	directory *DirectoryService,
) *ResolverService {
	return &ResolverService{
		validator:  validator,
		sites:      sites,
		publishing: publishing,
		directory:  directory,
	}
}

// GetPublishedSite returns the site serving hostname, or nil. A lookup
// failure at any tier is logged and ends the lookup with nil.
func (s *ResolverService) GetPublishedSite(ctx context.Context, hostname string) *models.PublishedSite {
	host := NormalizeHostname(hostname)
	if host == "" {
		return nil
	}

	site, matched, err := s.resolve(ctx, host)
	if err == nil && !matched {
		// www.example.com and example.com serve the same site
		if alias := AliasFor(host); alias != "" {
			site, matched, err = s.resolve(ctx, alias)
			if site != nil {
				metrics.ResolutionTotal.WithLabelValues("alias").Inc()
			}
		}
	}
	if err != nil {
		return nil
	}
	if !matched {
		metrics.ResolutionTotal.WithLabelValues("miss").Inc()
	}
	if site == nil {
		return nil
	}

	s.recordView(site.ID)
	return site
}

// resolve runs the three tiers for host. matched is true once a tier
// claims the host, even when that claim serves no site here.
func (s *ResolverService) resolve(ctx context.Context, host string) (*models.PublishedSite, bool, error) {
	subdomain := host
	if name, ok := s.validator.PlatformSubdomain(host); ok {
		subdomain = name
	}

	site, err := s.sites.GetActiveBySubdomain(ctx, subdomain)
	if found, err := s.tierResult(tierSubdomain, host, err); found || err != nil {
		return site, found, err
	}

	site, err = s.sites.GetActiveByCustomDomain(ctx, host)
	if found, err := s.tierResult(tierCustomDomain, host, err); found || err != nil {
		return site, found, err
	}

	mapping, err := s.directory.LookupMapping(ctx, host)
	if err != nil {
		s.tierFailed(tierMapping, host, err)
		return nil, false, err
	}
	if mapping == nil {
		return nil, false, nil
	}
	metrics.ResolutionTotal.WithLabelValues(tierMapping).Inc()

	// menu and hybrid mappings are served by the storefront router
	if mapping.TargetType != models.TargetTypeVibeSite {
		return nil, true, nil
	}

	site, err = s.publishing.GetPublishedSiteByProject(ctx, mapping.TargetID)
	if err != nil {
		s.tierFailed(tierMapping, host, err)
		return nil, true, err
	}
	if site == nil {
		log.Warn().Str("host", host).Str("project_id", mapping.TargetID).Msg("Domain mapped to a project with no published site")
	}
	return site, true, nil
}

// tierResult reads a tier lookup: a hit, a plain miss, or a failure
func (s *ResolverService) tierResult(tier, host string, err error) (bool, error) {
	if err == nil {
		metrics.ResolutionTotal.WithLabelValues(tier).Inc()
		return true, nil
	}
	if errors.Is(err, repository.ErrSiteNotFound) {
		return false, nil
	}
	s.tierFailed(tier, host, err)
	return false, err
}

func (s *ResolverService) tierFailed(tier, host string, err error) {
	metrics.ResolutionErrors.WithLabelValues(tier).Inc()
	log.Warn().Err(err).Str("tier", tier).Str("host", host).Msg("Hostname lookup failed")
}

// recordView bumps the site's view counter without holding up the caller
func (s *ResolverService) recordView(siteID string) {
	s.views.Add(1)
	go func() {
		defer s.views.Done()

		ctx, cancel := context.WithTimeout(context.Background(), viewIncrementTimeout)
		defer cancel()

		if err := s.sites.IncrementViews(ctx, siteID); err != nil {
			metrics.ViewIncrements.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("site_id", siteID).Msg("Failed to increment site views")
			return
		}
		metrics.ViewIncrements.WithLabelValues("ok").Inc()
	}()
}

// Wait blocks until every scheduled view increment has been written
func (s *ResolverService) Wait() {
	s.views.Wait()
}
