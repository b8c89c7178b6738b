package tosarchive

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	root           string
	layout         string
	readme         string
	indexCache     bool
	workers        int
	maxLineBytes   int
	skipUnreadable bool

	markerPath string
	cacheAddrs []string
	cachePass  string
	cacheTTL   time.Duration

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithCorpus sets the corpus root directory. Required.
func WithCorpus(root string) Option {
	return optionFunc(func(c *clientConfig) {
		c.root = root
	})
}

// WithLayout sets the Go reference layout of snapshot file names.
// Defaults to "2006-01-02--15-04-05".
func WithLayout(layout string) Option {
	return optionFunc(func(c *clientConfig) {
		c.layout = layout
	})
}

// WithReadme names the file allowed at the corpus root next to service
// directories. Defaults to README.md.
func WithReadme(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.readme = name
	})
}

// WithIndexCache keeps the sorted versions of each pair in memory between
// lookups, invalidated when the pair directory changes.
func WithIndexCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.indexCache = true
	})
}

// WithWorkers bounds the snapshots matched concurrently by a scan.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithMaxLineBytes bounds a single snapshot line. Defaults to 16 MiB.
func WithMaxLineBytes(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxLineBytes = n
	})
}

// WithSkipUnreadable makes scans treat unreadable snapshots as non-matching
// instead of failing.
func WithSkipUnreadable() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipUnreadable = true
	})
}

// WithMarker sets the file holding the current dataset release URL.
// Scan results are only cached while it names a complete release.
func WithMarker(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.markerPath = path
	})
}

// WithRedisCache keeps finished scans in Redis for ttl.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePass = password
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZapLogger sets the logger of the underlying components (skipped
// snapshots, cache failures). Pass nil to disable (default).
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
