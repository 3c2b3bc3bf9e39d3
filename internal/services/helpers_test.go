package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"vibe-domain-service/internal/cache"
	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/events"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"
	"vibe-domain-service/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) has(eventType string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, evt := range p.events {
		if evt.Type == eventType {
			return true
		}
	}
	return false
}

// fakeChecker answers DNS checks with a fixed outcome
type fakeChecker struct {
	mu         sync.Mutex
	verified   bool
	err        error
	cnameCalls int
	nsCalls    int
}

func (f *fakeChecker) CheckCNAME(_ context.Context, host, expected string) (*DNSCheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cnameCalls++
	return f.result(host, expected)
}

func (f *fakeChecker) CheckNameservers(_ context.Context, host string, expected []string) (*DNSCheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nsCalls++
	return f.result(host, expected[0])
}

func (f *fakeChecker) result(host, expected string) (*DNSCheckResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := &DNSCheckResult{Verified: f.verified, Expected: expected}
	if f.verified {
		result.Found = expected
		result.Message = "verified"
	} else {
		result.Message = "No CNAME record found for " + host
	}
	return result, nil
}

type envOptions struct {
	checker RecordChecker
	cache   *cache.MappingCache
}

type testEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	sites      *repository.SiteRepository
	domains    *repository.DomainRepository
	publisher  *recordingPublisher
	publishing *PublishingService
	registrar  *RegistrarService
	directory  *DirectoryService
	resolver   *ResolverService
	statements *atomic.Int64
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := &config.Config{Platform: testPlatformConfig()}
	validator := NewDomainValidator(cfg.Platform)
	sites := repository.NewSiteRepository(db)
	domains := repository.NewDomainRepository(db)
	publisher := &recordingPublisher{}

	publishing := NewPublishingService(cfg, validator, sites, publisher)
	registrar := NewRegistrarService(cfg, validator, sites, opts.checker, publisher)
	directory := NewDirectoryService(cfg, validator, domains, opts.cache, opts.checker, publisher)
	resolver := NewResolverService(validator, sites, publishing, directory)
	t.Cleanup(resolver.Wait)

	return &testEnv{
		db:         db,
		cfg:        cfg,
		sites:      sites,
		domains:    domains,
		publisher:  publisher,
		publishing: publishing,
		registrar:  registrar,
		directory:  directory,
		resolver:   resolver,
		statements: countStatements(t, db),
	}
}

// countStatements counts every statement gorm runs against db
func countStatements(t *testing.T, db *gorm.DB) *atomic.Int64 {
	t.Helper()

	var n atomic.Int64
	inc := func(*gorm.DB) { n.Add(1) }

	cb := db.Callback()
	require.NoError(t, cb.Query().Before("gorm:query").Register("test:count_query", inc))
	require.NoError(t, cb.Row().Before("gorm:row").Register("test:count_row", inc))
	require.NoError(t, cb.Create().Before("gorm:create").Register("test:count_create", inc))
	require.NoError(t, cb.Update().Before("gorm:update").Register("test:count_update", inc))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("test:count_delete", inc))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("test:count_raw", inc))

	return &n
}

// closeDB makes every following store call fail
func (e *testEnv) closeDB(t *testing.T) {
	t.Helper()
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func (e *testEnv) seedProject(t *testing.T, projectID, userID string) {
	t.Helper()
	require.NoError(t, e.sites.CreateProject(context.Background(), &models.VibeProject{
		ID:     projectID,
		UserID: userID,
		Name:   "Project " + projectID,
		HTML:   "<h1>" + projectID + "</h1>",
		CSS:    "h1 { color: green; }",
	}))
}

func (e *testEnv) publish(t *testing.T, projectID, subdomain, userID string) *models.PublishResponse {
	t.Helper()
	resp, err := e.publishing.PublishWebsite(context.Background(), projectID, subdomain, userID)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) seedTenant(t *testing.T, tenantID string, legacy map[string]any) {
	t.Helper()
	require.NoError(t, e.domains.SaveTenant(context.Background(), &models.Tenant{
		ID:           tenantID,
		Name:         "Tenant " + tenantID,
		CustomDomain: legacy,
	}))
}
