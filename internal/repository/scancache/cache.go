// Package scancache keeps finished term scans in a key-value store.
//
// Keys embed the dataset release URL, so a corpus swap makes every older
// entry unreachable; the TTL removes them eventually.
package scancache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/db"
	"github.com/kailas-cloud/tosarchive/internal/domain"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

var cacheKeyPrefix = domain.KeyPrefix + "scan:"

// store is the consumer interface for the scan cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Release reports the dataset on disk. ok is false while no complete
// release is recorded, which disables the cache.
type Release interface {
	Version() (url string, ok bool)
}

// Cache stores scan results as JSON.
type Cache struct {
	store      store
	release    Release
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a scan cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"bypass"), passed explicitly.
func New(
	s store,
	release Release,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		release:    release,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Load decodes a cached result into dst and reports whether it did.
func (c *Cache) Load(ctx context.Context, mode termindex.Mode, terms string, dst any) bool {
	key, ok := c.key(mode, terms)
	if !ok {
		c.inc("bypass")
		return false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached scan", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to decode cached scan", zap.String("key", key), zap.Error(err))
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to evict cached scan", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return false
	}

	c.inc("hit")
	return true
}

// Store saves v under the current release. Failures are logged only.
func (c *Cache) Store(ctx context.Context, mode termindex.Mode, terms string, v any) {
	key, ok := c.key(mode, terms)
	if !ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode scan result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache scan", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) key(mode termindex.Mode, terms string) (string, bool) {
	release, ok := c.release.Version()
	if !ok {
		return "", false
	}
	h := sha256.Sum256([]byte(release + "\x00" + string(mode) + "\x00" + terms))
	return cacheKeyPrefix + hex.EncodeToString(h[:]), true
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
