package workers

import (
	"context"
	"testing"
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"
	"vibe-domain-service/internal/services"
	"vibe-domain-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostChecker verifies only the hosts it knows about
type hostChecker struct {
	live map[string]bool
}

func (c *hostChecker) CheckCNAME(_ context.Context, host, expected string) (*services.DNSCheckResult, error) {
	return c.check(host, expected), nil
}

func (c *hostChecker) CheckNameservers(_ context.Context, host string, expected []string) (*services.DNSCheckResult, error) {
	return c.check(host, expected[0]), nil
}

func (c *hostChecker) check(host, expected string) *services.DNSCheckResult {
	if c.live[host] {
		return &services.DNSCheckResult{Verified: true, Found: expected, Expected: expected}
	}
	return &services.DNSCheckResult{Expected: expected, Message: "not yet"}
}

func testConfig() *config.Config {
	return &config.Config{
		Platform: config.PlatformConfig{
			Zone:            "bakedbot.site",
			RootDomains:     []string{"bakedbot.site"},
			BrandName:       "bakedbot",
			HostingEndpoint: "hosting.bakedbot.site",
			Nameservers:     []string{"ns1.bakedbot.site"},
		},
		Workers: config.WorkersConfig{
			Enabled:                 true,
			DNSVerificationInterval: time.Hour,
			CleanupInterval:         time.Hour,
			BatchSize:               10,
		},
	}
}

func TestDNSVerificationWorker_Run(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	db := testutil.NewDB(t)
	sites := repository.NewSiteRepository(db)
	domains := repository.NewDomainRepository(db)
	checker := &hostChecker{live: map[string]bool{"live.example.com": true, "menu.example.com": true}}

	validator := services.NewDomainValidator(cfg.Platform)
	publishing := services.NewPublishingService(cfg, validator, sites, nil)
	registrar := services.NewRegistrarService(cfg, validator, sites, checker, nil)
	directory := services.NewDirectoryService(cfg, validator, domains, nil, checker, nil)

	for _, p := range []struct{ project, subdomain, domain string }{
		{"proj_1", "live-site", "live.example.com"},
		{"proj_2", "slow-site", "slow.example.com"},
	} {
		require.NoError(t, sites.CreateProject(ctx, &models.VibeProject{ID: p.project, UserID: "user_1"}))
		_, err := publishing.PublishWebsite(ctx, p.project, p.subdomain, "user_1")
		require.NoError(t, err)
		_, err = registrar.AddCustomDomain(ctx, p.project, p.domain, "user_1")
		require.NoError(t, err)
	}

	require.NoError(t, domains.SaveTenant(ctx, &models.Tenant{ID: "tenant_1"}))
	for _, d := range []string{"menu.example.com", "later.example.com"} {
		_, err := directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: d})
		require.NoError(t, err)
	}

	worker := NewDNSVerificationWorker(cfg, sites, domains, registrar, directory)
	worker.pause = 0
	worker.run(ctx)

	pendingSites, err := sites.GetPendingCustomDomains(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pendingSites, 1)
	assert.Equal(t, "slow.example.com", *pendingSites[0].CustomDomain)

	pendingDomains, err := domains.GetPendingTenantDomains(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pendingDomains, 1)
	assert.Equal(t, "later.example.com", pendingDomains[0].Domain)

	mapping, err := domains.GetMapping(ctx, "menu.example.com")
	require.NoError(t, err)
	assert.Equal(t, "tenant_1", mapping.TenantID)
}

func TestDNSVerificationWorker_RotatesBacklog(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Workers.BatchSize = 2
	db := testutil.NewDB(t)
	sites := repository.NewSiteRepository(db)
	domains := repository.NewDomainRepository(db)
	checker := &hostChecker{}

	validator := services.NewDomainValidator(cfg.Platform)
	publishing := services.NewPublishingService(cfg, validator, sites, nil)
	registrar := services.NewRegistrarService(cfg, validator, sites, checker, nil)
	directory := services.NewDirectoryService(cfg, validator, domains, nil, checker, nil)

	projects := []string{"proj_1", "proj_2", "proj_3"}
	for _, project := range projects {
		require.NoError(t, sites.CreateProject(ctx, &models.VibeProject{ID: project, UserID: "user_1"}))
		_, err := publishing.PublishWebsite(ctx, project, "site-"+project[5:], "user_1")
		require.NoError(t, err)
		_, err = registrar.AddCustomDomain(ctx, project, "shop"+project[5:]+".example.com", "user_1")
		require.NoError(t, err)
	}

	require.NoError(t, domains.SaveTenant(ctx, &models.Tenant{ID: "tenant_1"}))
	tenantDomains := []string{"a.example.com", "b.example.com", "c.example.com"}
	for _, d := range tenantDomains {
		_, err := directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: d})
		require.NoError(t, err)
	}

	worker := NewDNSVerificationWorker(cfg, sites, domains, registrar, directory)
	worker.pause = 0
	worker.run(ctx)
	worker.run(ctx)

	var siteChecks int
	for _, project := range projects {
		site, err := publishing.GetPublishedSiteByProject(ctx, project)
		require.NoError(t, err)
		require.NotNil(t, site)
		assert.GreaterOrEqual(t, site.DNSCheckAttempts, 1, project)
		assert.False(t, site.CustomDomainVerified)
		siteChecks += site.DNSCheckAttempts
	}
	assert.Equal(t, 4, siteChecks)

	var domainChecks int
	for _, d := range tenantDomains {
		record, err := domains.GetTenantDomain(ctx, "tenant_1", d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, record.DNSCheckAttempts, 1, d)
		assert.NotNil(t, record.DNSLastCheckedAt)
		domainChecks += record.DNSCheckAttempts
	}
	assert.Equal(t, 4, domainChecks)
}

func TestDNSVerificationWorker_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	db := testutil.NewDB(t)
	sites := repository.NewSiteRepository(db)
	domains := repository.NewDomainRepository(db)
	validator := services.NewDomainValidator(cfg.Platform)

	worker := NewDNSVerificationWorker(cfg, sites, domains,
		services.NewRegistrarService(cfg, validator, sites, nil, nil),
		services.NewDirectoryService(cfg, validator, domains, nil, nil, nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestCleanupWorker_Run(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	sites := repository.NewSiteRepository(testutil.NewDB(t))

	older := &models.PublishedSite{ProjectID: "proj_1", Subdomain: "old-name", Status: models.SiteStatusPublished, PublishedAt: time.Now().Add(-time.Hour)}
	newer := &models.PublishedSite{ProjectID: "proj_1", Subdomain: "new-name", Status: models.SiteStatusPublished, PublishedAt: time.Now()}
	single := &models.PublishedSite{ProjectID: "proj_2", Subdomain: "single", Status: models.SiteStatusPublished, PublishedAt: time.Now()}
	for _, site := range []*models.PublishedSite{older, newer, single} {
		require.NoError(t, sites.Create(ctx, site))
	}

	worker := NewCleanupWorker(cfg, sites)
	worker.run(ctx)

	projects, err := sites.GetProjectsWithDuplicatePublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	active, err := sites.GetActiveByProject(ctx, "proj_1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID)

	demoted, err := sites.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SiteStatusUnpublished, demoted.Status)

	_, err = sites.GetActiveByProject(ctx, "proj_2")
	assert.NoError(t, err)
}

func TestCleanupWorker_Stop(t *testing.T) {
	worker := NewCleanupWorker(testConfig(), repository.NewSiteRepository(testutil.NewDB(t)))

	done := make(chan struct{})
	go func() {
		worker.Start(context.Background())
		close(done)
	}()

	worker.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
