package workers

import (
	"context"
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"
	"vibe-domain-service/internal/services"

	"github.com/rs/zerolog/log"
)

const defaultVerificationPause = 2 * time.Second

// DNSVerificationWorker rechecks DNS for custom domains and tenant domains
// that are still pending, so customers do not have to press verify again
// once their records propagate
type DNSVerificationWorker struct {
	cfg       *config.Config
	sites     *repository.SiteRepository
	domains   *repository.DomainRepository
	registrar *services.RegistrarService
	directory *services.DirectoryService
	pause     time.Duration
	stopCh    chan struct{}
}

// NewDNSVerificationWorker creates a new DNS verification worker
func NewDNSVerificationWorker(
	cfg *config.Config,
	sites *repository.SiteRepository,
	domains *repository.DomainRepository,
	registrar *services.RegistrarService,
	directory *services.DirectoryService,
) *DNSVerificationWorker {
	return &DNSVerificationWorker{
		cfg:       cfg,
		sites:     sites,
		domains:   domains,
		registrar: registrar,
		directory: directory,
		pause:     defaultVerificationPause,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the DNS verification worker
func (w *DNSVerificationWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Workers.DNSVerificationInterval).Msg("Starting DNS verification worker")

	ticker := time.NewTicker(w.cfg.Workers.DNSVerificationInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("DNS verification worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("DNS verification worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop stops the worker
func (w *DNSVerificationWorker) Stop() {
	close(w.stopCh)
}

func (w *DNSVerificationWorker) run(ctx context.Context) {
	log.Debug().Msg("Running DNS verification check")

	w.verifySites(ctx)
	w.verifyTenantDomains(ctx)
}

func (w *DNSVerificationWorker) verifySites(ctx context.Context) {
	sites, err := w.sites.GetPendingCustomDomains(ctx, w.cfg.Workers.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get custom domains pending verification")
		return
	}
	if len(sites) == 0 {
		return
	}

	log.Info().Int("count", len(sites)).Msg("Processing custom domains for DNS verification")

	for i := range sites {
		if !w.wait(ctx, i) {
			return
		}

		site := &sites[i]
		resp, err := w.registrar.VerifyPendingSite(ctx, site)
		if err != nil {
			log.Error().Err(err).Str("site_id", site.ID).Msg("Custom domain verification error")
			continue
		}
		if !resp.Verified {
			log.Debug().Str("domain", *site.CustomDomain).Str("message", resp.Message).Msg("Custom domain DNS not yet verified")
		}
	}
}

func (w *DNSVerificationWorker) verifyTenantDomains(ctx context.Context) {
	domains, err := w.domains.GetPendingTenantDomains(ctx, w.cfg.Workers.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get tenant domains pending verification")
		return
	}
	if len(domains) == 0 {
		return
	}

	log.Info().Int("count", len(domains)).Msg("Processing tenant domains for DNS verification")

	for i := range domains {
		if !w.wait(ctx, i) {
			return
		}
		w.verifyTenantDomain(ctx, &domains[i])
	}
}

func (w *DNSVerificationWorker) verifyTenantDomain(ctx context.Context, domain *models.TenantDomain) {
	resp, err := w.directory.VerifyPendingDomain(ctx, domain)
	if err != nil {
		log.Error().Err(err).Str("domain", domain.Domain).Msg("Domain verification error")
		return
	}
	if !resp.Verified {
		log.Debug().Str("domain", domain.Domain).Str("message", resp.Message).Msg("Domain DNS not yet verified")
	}
}

// wait spaces out lookups to stay under resolver rate limits. Reports
// false once ctx is done.
func (w *DNSVerificationWorker) wait(ctx context.Context, i int) bool {
	if i == 0 || w.pause <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.pause):
		return true
	}
}
