package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smart-dostup/marketsync/internal/builder"
	"github.com/smart-dostup/marketsync/pkg/assistant"
)

// EnrichmentCache memoizes assistant responses keyed by the product
// description. Supplier price lists repeat the same rows day after day, so
// most enrichment calls can be answered without touching the API.
type EnrichmentCache struct {
	redis    *RedisClient
	enricher builder.Enricher
	ttl      time.Duration
}

// NewEnrichmentCache wraps an enricher with a Redis-backed cache.
func NewEnrichmentCache(redis *RedisClient, enricher builder.Enricher, ttl time.Duration) *EnrichmentCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &EnrichmentCache{
		redis:    redis,
		enricher: enricher,
		ttl:      ttl,
	}
}

func (c *EnrichmentCache) key(description string) string {
	sum := sha256.Sum256([]byte(description))
	return "enrich:" + hex.EncodeToString(sum[:])
}

// Enrich returns the cached attributes for the description, calling the
// underlying enricher on a miss. Cache failures degrade to a direct call.
func (c *EnrichmentCache) Enrich(ctx context.Context, description string) (*assistant.ProductDetails, error) {
	key := c.key(description)

	cached, err := c.redis.Get(ctx, key)
	switch {
	case err == nil:
		var details assistant.ProductDetails
		if err := json.Unmarshal([]byte(cached), &details); err == nil {
			return &details, nil
		}
		// Corrupt entry, fall through and refresh it.
	case !errors.Is(err, ErrCacheMiss):
		log.Warn().Err(err).Msg("enrichment cache read failed")
	}

	details, err := c.enricher.Enrich(ctx, description)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment result: %w", err)
	}
	if err := c.redis.Set(ctx, key, string(payload), c.ttl); err != nil {
		log.Warn().Err(err).Msg("enrichment cache write failed")
	}
	return details, nil
}
