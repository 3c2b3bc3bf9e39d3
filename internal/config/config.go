package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	NATS     NATSConfig     `json:"nats"`
	Platform PlatformConfig `json:"platform"`
	DNS      DNSConfig      `json:"dns"`
	Cache    CacheConfig    `json:"cache"`
	Workers  WorkersConfig  `json:"workers"`
}

type ServerConfig struct {
	Port           string   `json:"port"`
	Host           string   `json:"host"`
	Mode           string   `json:"mode"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"` // "postgres" or "sqlite"
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	Path     string `json:"path"` // sqlite file, used when Driver is "sqlite"
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       string `json:"db"`
	URL      string `json:"url"`
}

type NATSConfig struct {
	URL string `json:"url"`
}

// PlatformConfig holds the values owned by the wider platform that this
// service reads: the zone subdomains are published under, the edge
// endpoint customers point their CNAMEs at, and the names nobody may claim.
type PlatformConfig struct {
	Zone               string   `json:"zone"`                // e.g. bakedbot.site
	RootDomains        []string `json:"root_domains"`        // platform-owned roots, never a custom domain
	BrandName          string   `json:"brand_name"`          // reserved as a subdomain
	HostingEndpoint    string   `json:"hosting_endpoint"`    // CNAME target shown to customers
	Nameservers        []string `json:"nameservers"`         // NS targets for nameserver delegation
	ReservedSubdomains []string `json:"reserved_subdomains"` // extra reserved names on top of the built-in list
}

type DNSConfig struct {
	VerifyRecords bool          `json:"verify_records"` // look up DNS before recording verification
	ResolverAddr  string        `json:"resolver_addr"`  // host:port of the resolver used for checks
	Timeout       time.Duration `json:"timeout"`
}

type CacheConfig struct {
	MappingTTL time.Duration `json:"mapping_ttl"`
}

type WorkersConfig struct {
	Enabled                 bool          `json:"enabled"`
	DNSVerificationInterval time.Duration `json:"dns_verification_interval"`
	CleanupInterval         time.Duration `json:"cleanup_interval"`
	BatchSize               int           `json:"batch_size"`
}

func NewConfig() *Config {
	zone := getEnv("PLATFORM_ZONE", "bakedbot.site")
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8095"),
			Host: getEnv("HOST", "0.0.0.0"),
			Mode: getEnv("GIN_MODE", "debug"),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{
				"https://bakedbot.ai",
				"https://app.bakedbot.ai",
			}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "vibe_domains_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "vibe-domains.db"),
		},
		Redis: buildRedisConfig(),
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Platform: PlatformConfig{
			Zone:               zone,
			RootDomains:        getListEnv("PLATFORM_ROOT_DOMAINS", []string{zone, "bakedbot.ai"}),
			BrandName:          getEnv("PLATFORM_BRAND_NAME", "bakedbot"),
			HostingEndpoint:    getEnv("PLATFORM_HOSTING_ENDPOINT", "hosting."+zone),
			Nameservers:        getListEnv("PLATFORM_NAMESERVERS", []string{"ns1." + zone, "ns2." + zone}),
			ReservedSubdomains: getListEnv("PLATFORM_RESERVED_SUBDOMAINS", nil),
		},
		DNS: DNSConfig{
			VerifyRecords: getBoolEnv("DNS_VERIFY_RECORDS", true),
			ResolverAddr:  getEnv("DNS_RESOLVER_ADDR", "8.8.8.8:53"),
			Timeout:       getDurationEnv("DNS_TIMEOUT", 3*time.Second),
		},
		Cache: CacheConfig{
			MappingTTL: getDurationEnv("MAPPING_CACHE_TTL", 5*time.Minute),
		},
		Workers: WorkersConfig{
			Enabled:                 getBoolEnv("WORKERS_ENABLED", true),
			DNSVerificationInterval: getDurationEnv("DNS_VERIFICATION_INTERVAL", 5*time.Minute),
			CleanupInterval:         getDurationEnv("CLEANUP_INTERVAL", 24*time.Hour),
			BatchSize:               getIntEnv("WORKER_BATCH_SIZE", 50),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// SiteURL returns the canonical URL of a site published under the platform zone.
func (c *PlatformConfig) SiteURL(subdomain string) string {
	return "https://" + subdomain + "." + c.Zone
}

func buildRedisConfig() RedisConfig {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return RedisConfig{URL: url}
	}

	host := getEnv("REDIS_HOST", "localhost")
	port := getEnv("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := getEnv("REDIS_DB", "0")

	var url string
	if password != "" {
		url = "redis://:" + password + "@" + host + ":" + port + "/" + db
	} else {
		url = "redis://" + host + ":" + port + "/" + db
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       db,
		URL:      url,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return fallback
}

// getListEnv reads a comma-separated list, dropping empty entries
func getListEnv(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
