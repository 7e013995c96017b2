// Package storage caches completed predictions in Redis. The pipeline
// is deterministic, so identical payloads always map to identical
// results and a byte-level digest is a safe cache key.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/neuroscreen-ai/inference/pkg/common/logger"
	"github.com/neuroscreen-ai/inference/pkg/common/models"
	"github.com/neuroscreen-ai/inference/pkg/observability/metrics"
	"github.com/redis/go-redis/v9"
)

type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Key derives the cache key from the input modality and raw payload.
func Key(inputType string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(inputType))
	h.Write([]byte{0})
	h.Write(payload)
	return "prediction:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result, or false on miss. Redis errors degrade
// to a miss so the cache never blocks a prediction.
func (c *ResultCache) Get(ctx context.Context, key string) (*models.PredictionResult, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	if err != nil {
		logger.Log.WithError(err).Warn("Result cache read failed")
		metrics.CacheMisses.Inc()
		return nil, false
	}

	var result models.PredictionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		logger.Log.WithError(err).Warn("Discarding unreadable cached result")
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return &result, true
}

// Set stores the result under key for the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, result *models.PredictionResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to marshal result for cache")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("Result cache write failed")
	}
}
