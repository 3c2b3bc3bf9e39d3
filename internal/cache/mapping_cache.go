package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vibe-domain-service/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const mappingKeyPrefix = "domain:mapping:"

// DefaultMappingTTL is used when no TTL is configured
const DefaultMappingTTL = 5 * time.Minute

// MappingCache is a Redis read-through cache in front of the domain mapping
// index. A cache built on a nil client is disabled and every call is a miss.
type MappingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMappingCache creates a new mapping cache
func NewMappingCache(rdb *redis.Client, ttl time.Duration) *MappingCache {
	if ttl <= 0 {
		ttl = DefaultMappingTTL
	}
	return &MappingCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client backs the cache
func (c *MappingCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func mappingKey(domain string) string {
	return fmt.Sprintf("%s%s", mappingKeyPrefix, domain)
}

// Get returns the cached mapping for domain
func (c *MappingCache) Get(ctx context.Context, domain string) (*models.DomainMapping, bool) {
	if !c.Enabled() {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, mappingKey(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("Failed to read domain mapping from cache")
		return nil, false
	}

	var mapping models.DomainMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("Discarding malformed cached domain mapping")
		c.Invalidate(ctx, domain)
		return nil, false
	}
	return &mapping, true
}

// Set caches a mapping for the configured TTL
func (c *MappingCache) Set(ctx context.Context, mapping *models.DomainMapping) {
	if !c.Enabled() || mapping == nil {
		return
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, mappingKey(mapping.Domain), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("domain", mapping.Domain).Msg("Failed to cache domain mapping")
	}
}

// Invalidate drops the cached mapping for domain
func (c *MappingCache) Invalidate(ctx context.Context, domain string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, mappingKey(domain)).Err(); err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("Failed to invalidate cached domain mapping")
	}
}
