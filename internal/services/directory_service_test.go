package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibe-domain-service/internal/cache"
	"vibe-domain-service/internal/events"
	"vibe-domain-service/internal/models"
	"vibe-domain-service/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*cache.MappingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewMappingCache(rdb, time.Minute), mr
}

func TestDirectoryService_ListDomains(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy field only", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", map[string]any{
			"domain":             "shop.example.com",
			"targetType":         "vibe_site",
			"verificationStatus": "verified",
			"createdAt":          "2024-03-05T10:30:00Z",
		})

		resp, err := env.directory.ListDomains(ctx, "tenant_1")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		require.Len(t, resp.Domains, 1)
		assert.Equal(t, "shop.example.com", resp.Domains[0].Domain)
		assert.Equal(t, models.TargetTypeMenu, resp.Domains[0].TargetType)
		assert.Equal(t, "2024-03-05T10:30:00.000Z", resp.Domains[0].CreatedAt)
		assert.True(t, resp.Domains[0].Legacy)
	})

	t.Run("collection", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "one.example.com"})
		require.NoError(t, err)
		_, err = env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "two.example.com"})
		require.NoError(t, err)

		resp, err := env.directory.ListDomains(ctx, "tenant_1")
		require.NoError(t, err)
		assert.Len(t, resp.Domains, 2)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})

		resp, err := env.directory.ListDomains(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, resp.Domains)
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.closeDB(t)

		_, err := env.directory.ListDomains(ctx, "tenant_1")
		assert.ErrorIs(t, err, ErrListDomainsFailed)
	})
}

func TestDirectoryService_UpdateDomainTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected targets touch nothing", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.statements.Store(0)

		err := env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: models.TargetTypeVibeSite,
		})
		assert.ErrorIs(t, err, ErrVibeSiteNeedsProject)

		err = env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: models.TargetTypeHybrid,
		})
		assert.ErrorIs(t, err, ErrHybridNeedsProject)

		err = env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: "storefront",
		})
		assert.ErrorIs(t, err, ErrInvalidTargetType)

		assert.Zero(t, env.statements.Load())
	})

	t.Run("pending domain gets no mapping", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)

		err = env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType:    models.TargetTypeHybrid,
			TargetID:      "proj_1",
			RoutingConfig: &models.RoutingConfig{RootPath: "/", MenuPath: "/menu"},
		})
		require.NoError(t, err)

		record, err := env.domains.GetTenantDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, models.TargetTypeHybrid, record.TargetType)
		require.NotNil(t, record.RoutingConfig)
		assert.Equal(t, "/menu", record.RoutingConfig.MenuPath)

		_, err = env.domains.GetMapping(ctx, "shop.example.com")
		assert.ErrorIs(t, err, repository.ErrMappingNotFound)

		assert.Eventually(t, func() bool { return env.publisher.has(events.DomainTargetUpdated) }, time.Second, 10*time.Millisecond)
	})

	t.Run("indexed domain is retargeted", func(t *testing.T) {
		mappingCache, mr := newTestCache(t)
		env := newTestEnv(t, envOptions{cache: mappingCache})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)
		_, err = env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)

		mapping, err := env.directory.LookupMapping(ctx, "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, models.TargetTypeMenu, mapping.TargetType)
		assert.True(t, mr.Exists("domain:mapping:shop.example.com"))

		err = env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: models.TargetTypeVibeSite,
			TargetID:   "proj_1",
		})
		require.NoError(t, err)
		assert.False(t, mr.Exists("domain:mapping:shop.example.com"))

		mapping, err = env.directory.LookupMapping(ctx, "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, models.TargetTypeVibeSite, mapping.TargetType)
		assert.Equal(t, "proj_1", mapping.TargetID)

		record, err := env.domains.GetTenantDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.Nil(t, record.RoutingConfig)
	})

	t.Run("mapping owned by another tenant is untouched", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		require.NoError(t, env.domains.UpsertMapping(ctx, &models.DomainMapping{
			Domain:     "shop.example.com",
			TargetType: models.TargetTypeMenu,
			TenantID:   "tenant_2",
		}))
		env.seedTenant(t, "tenant_1", nil)
		require.NoError(t, env.domains.CreateTenantDomain(ctx, &models.TenantDomain{
			TenantID: "tenant_1",
			Domain:   "shop.example.com",
		}))

		err := env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: models.TargetTypeVibeSite,
			TargetID:   "proj_1",
		})
		require.NoError(t, err)

		mapping, err := env.domains.GetMapping(ctx, "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tenant_2", mapping.TenantID)
		assert.Equal(t, models.TargetTypeMenu, mapping.TargetType)
	})

	t.Run("unknown domain", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})

		err := env.directory.UpdateDomainTarget(ctx, "tenant_1", "shop.example.com", &models.UpdateDomainTargetRequest{
			TargetType: models.TargetTypeMenu,
		})
		assert.ErrorIs(t, err, ErrDomainNotFound)
	})
}

func TestDirectoryService_GetDomainStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown tenant", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})

		_, err := env.directory.GetDomainStatus(ctx, "missing")
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})

	t.Run("tenant without a domain", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)

		resp, err := env.directory.GetDomainStatus(ctx, "tenant_1")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Config)
	})

	t.Run("subdomain over CNAME", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)

		resp, err := env.directory.GetDomainStatus(ctx, "tenant_1")
		require.NoError(t, err)
		require.NotNil(t, resp.Config)
		assert.Equal(t, "shop.example.com", resp.Config.Domain)
		assert.Equal(t, models.DomainTypeSubdomain, resp.Config.DomainType)
		assert.Equal(t, []models.DNSRecord{
			{Type: "CNAME", Host: "shop.example.com", Value: "hosting.bakedbot.site"},
		}, resp.Config.DNSRecords)
	})

	t.Run("legacy apex", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", map[string]any{"domain": "example.com"})

		resp, err := env.directory.GetDomainStatus(ctx, "tenant_1")
		require.NoError(t, err)
		require.NotNil(t, resp.Config)
		assert.Equal(t, models.DomainTypeApex, resp.Config.DomainType)
		assert.True(t, resp.Config.Legacy)
	})
}

func TestDirectoryService_GetTenantByDomain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	require.NoError(t, env.domains.UpsertMapping(ctx, &models.DomainMapping{
		Domain:     "shop.example.com",
		TargetType: models.TargetTypeMenu,
		TenantID:   "tenant_1",
	}))

	assert.Equal(t, "tenant_1", env.directory.GetTenantByDomain(ctx, "Shop.Example.com"))
	assert.Equal(t, "tenant_1", env.directory.GetTenantByDomain(ctx, "shop.example.com:443"))
	assert.Empty(t, env.directory.GetTenantByDomain(ctx, "other.example.com"))
	assert.Empty(t, env.directory.GetTenantByDomain(ctx, ""))

	env.closeDB(t)
	assert.Empty(t, env.directory.GetTenantByDomain(ctx, "shop.example.com"))
}

func TestDirectoryService_AddDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("pending record with CNAME instructions", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)

		resp, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:     "Shop.Example.com",
			TargetType: models.TargetTypeVibeSite,
			TargetID:   "proj_1",
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "shop.example.com", resp.Domain.Domain)
		assert.Equal(t, models.VerificationStatusPending, resp.Domain.VerificationStatus)
		assert.Equal(t, models.ConnectionTypeCNAME, resp.Domain.ConnectionType)
		assert.Len(t, resp.DNSRecords, 1)

		_, err = env.domains.GetMapping(ctx, "shop.example.com")
		assert.ErrorIs(t, err, repository.ErrMappingNotFound)

		assert.Eventually(t, func() bool { return env.publisher.has(events.DomainAdded) }, time.Second, 10*time.Millisecond)
	})

	t.Run("nameserver connection", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)

		resp, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:         "example.com",
			ConnectionType: models.ConnectionTypeNameserver,
		})
		require.NoError(t, err)
		assert.Equal(t, []models.DNSRecord{
			{Type: "NS", Host: "example.com", Value: "ns1.bakedbot.site"},
			{Type: "NS", Host: "example.com", Value: "ns2.bakedbot.site"},
		}, resp.DNSRecords)
	})

	t.Run("internationalized domain is stored in ASCII form", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)

		resp, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "Bücher.example.com"})
		require.NoError(t, err)
		assert.Equal(t, "xn--bcher-kva.example.com", resp.Domain.Domain)
		assert.Equal(t, "xn--bcher-kva.example.com", resp.DNSRecords[0].Host)

		_, err = env.directory.VerifyDomain(ctx, "tenant_1", "bücher.example.com")
		require.NoError(t, err)

		mapping, err := env.domains.GetMapping(ctx, "xn--bcher-kva.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tenant_1", mapping.TenantID)
	})

	t.Run("claimed by another tenant", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)
		env.seedTenant(t, "tenant_2", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)

		_, err = env.directory.AddDomain(ctx, "tenant_2", &models.AddDomainRequest{Domain: "shop.example.com"})
		assert.ErrorIs(t, err, ErrDomainInUse)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		env.seedTenant(t, "tenant_1", nil)

		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "not a domain"})
		assert.ErrorIs(t, err, ErrInvalidDomain)

		_, err = env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:     "shop.example.com",
			TargetType: models.TargetTypeHybrid,
		})
		assert.ErrorIs(t, err, ErrHybridNeedsProject)

		_, err = env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:     "shop.example.com",
			TargetType: models.TargetTypeVibeSite,
		})
		assert.ErrorIs(t, err, ErrVibeSiteNeedsProject)

		_, err = env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:     "shop.example.com",
			TargetType: "storefront",
		})
		assert.ErrorIs(t, err, ErrInvalidTargetType)

		_, err = env.directory.AddDomain(ctx, "missing", &models.AddDomainRequest{Domain: "shop.example.com"})
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}

func TestDirectoryService_VerifyDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("verified domain is indexed", func(t *testing.T) {
		checker := &fakeChecker{verified: true}
		env := newTestEnv(t, envOptions{checker: checker})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:     "shop.example.com",
			TargetType: models.TargetTypeVibeSite,
			TargetID:   "proj_1",
		})
		require.NoError(t, err)

		resp, err := env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.True(t, resp.Verified)
		assert.Equal(t, 1, checker.cnameCalls)

		mapping, err := env.domains.GetMapping(ctx, "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tenant_1", mapping.TenantID)
		assert.Equal(t, models.TargetTypeVibeSite, mapping.TargetType)
		assert.Equal(t, "proj_1", mapping.TargetID)

		record, err := env.domains.GetTenantDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.True(t, record.IsVerified())
		assert.NotNil(t, record.VerifiedAt)

		assert.Eventually(t, func() bool { return env.publisher.has(events.DomainVerified) }, time.Second, 10*time.Millisecond)
	})

	t.Run("nameserver domains check NS records", func(t *testing.T) {
		checker := &fakeChecker{verified: true}
		env := newTestEnv(t, envOptions{checker: checker})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{
			Domain:         "example.com",
			ConnectionType: models.ConnectionTypeNameserver,
		})
		require.NoError(t, err)

		_, err = env.directory.VerifyDomain(ctx, "tenant_1", "example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, checker.nsCalls)
		assert.Zero(t, checker.cnameCalls)
	})

	t.Run("records missing", func(t *testing.T) {
		env := newTestEnv(t, envOptions{checker: &fakeChecker{verified: false}})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)

		resp, err := env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.False(t, resp.Verified)
		assert.NotEmpty(t, resp.Message)

		_, err = env.domains.GetMapping(ctx, "shop.example.com")
		assert.ErrorIs(t, err, repository.ErrMappingNotFound)

		record, err := env.domains.GetTenantDomain(ctx, "tenant_1", "shop.example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, record.DNSCheckAttempts)
		assert.NotNil(t, record.DNSLastCheckedAt)
	})

	t.Run("lookup failure", func(t *testing.T) {
		env := newTestEnv(t, envOptions{checker: &fakeChecker{err: errors.New("SERVFAIL")}})
		env.seedTenant(t, "tenant_1", nil)
		_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
		require.NoError(t, err)

		_, err = env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
		assert.ErrorIs(t, err, ErrVerifyDomainFailed)
	})

	t.Run("unknown domain", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})

		_, err := env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
		assert.ErrorIs(t, err, ErrDomainNotFound)
	})
}

func TestDirectoryService_RemoveDomain(t *testing.T) {
	ctx := context.Background()
	mappingCache, mr := newTestCache(t)
	env := newTestEnv(t, envOptions{cache: mappingCache})
	env.seedTenant(t, "tenant_1", nil)
	_, err := env.directory.AddDomain(ctx, "tenant_1", &models.AddDomainRequest{Domain: "shop.example.com"})
	require.NoError(t, err)
	_, err = env.directory.VerifyDomain(ctx, "tenant_1", "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, "tenant_1", env.directory.GetTenantByDomain(ctx, "shop.example.com"))
	require.True(t, mr.Exists("domain:mapping:shop.example.com"))

	require.NoError(t, env.directory.RemoveDomain(ctx, "tenant_1", "shop.example.com"))

	assert.False(t, mr.Exists("domain:mapping:shop.example.com"))
	assert.Empty(t, env.directory.GetTenantByDomain(ctx, "shop.example.com"))
	_, err = env.domains.GetTenantDomain(ctx, "tenant_1", "shop.example.com")
	assert.ErrorIs(t, err, repository.ErrDomainNotFound)

	err = env.directory.RemoveDomain(ctx, "tenant_1", "shop.example.com")
	assert.ErrorIs(t, err, ErrDomainNotFound)

	assert.Eventually(t, func() bool { return env.publisher.has(events.DomainRemoved) }, time.Second, 10*time.Millisecond)
}
