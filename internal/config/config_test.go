package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("PLATFORM_ZONE", "")
	t.Setenv("PLATFORM_HOSTING_ENDPOINT", "")
	t.Setenv("PLATFORM_ROOT_DOMAINS", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DNS_VERIFY_RECORDS", "")

	cfg := NewConfig()

	assert.Equal(t, "8095", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "bakedbot.site", cfg.Platform.Zone)
	assert.Equal(t, "hosting.bakedbot.site", cfg.Platform.HostingEndpoint)
	assert.Equal(t, []string{"bakedbot.site", "bakedbot.ai"}, cfg.Platform.RootDomains)
	assert.Equal(t, []string{"ns1.bakedbot.site", "ns2.bakedbot.site"}, cfg.Platform.Nameservers)
	assert.True(t, cfg.DNS.VerifyRecords)
	assert.Equal(t, 5*time.Minute, cfg.Cache.MappingTTL)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PLATFORM_ZONE", "example.site")
	t.Setenv("PLATFORM_RESERVED_SUBDOMAINS", " shop , ,checkout")
	t.Setenv("DNS_VERIFY_RECORDS", "false")
	t.Setenv("WORKER_BATCH_SIZE", "10")
	t.Setenv("CLEANUP_INTERVAL", "1h")
	t.Setenv("PLATFORM_HOSTING_ENDPOINT", "")

	cfg := NewConfig()

	assert.Equal(t, "example.site", cfg.Platform.Zone)
	assert.Equal(t, "hosting.example.site", cfg.Platform.HostingEndpoint)
	assert.Equal(t, []string{"shop", "checkout"}, cfg.Platform.ReservedSubdomains)
	assert.False(t, cfg.DNS.VerifyRecords)
	assert.Equal(t, 10, cfg.Workers.BatchSize)
	assert.Equal(t, time.Hour, cfg.Workers.CleanupInterval)
}

func TestNewConfig_RedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_PASSWORD", "secret")

	cfg := NewConfig()
	assert.Equal(t, "redis://:secret@cache:6380/0", cfg.Redis.URL)
}

func TestPlatformConfig_SiteURL(t *testing.T) {
	p := PlatformConfig{Zone: "bakedbot.site"}
	assert.Equal(t, "https://mysite.bakedbot.site", p.SiteURL("mysite"))
}
