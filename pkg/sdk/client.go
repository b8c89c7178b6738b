package tosarchive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/corpus"
	"github.com/kailas-cloud/tosarchive/internal/dataset"
	"github.com/kailas-cloud/tosarchive/internal/db"
	dbRedis "github.com/kailas-cloud/tosarchive/internal/db/redis"
	"github.com/kailas-cloud/tosarchive/internal/domain/activity"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
	"github.com/kailas-cloud/tosarchive/internal/domain/timeline"
	"github.com/kailas-cloud/tosarchive/internal/repository/scancache"
	cataloguc "github.com/kailas-cloud/tosarchive/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
	resolveruc "github.com/kailas-cloud/tosarchive/internal/usecase/resolver"
	scanneruc "github.com/kailas-cloud/tosarchive/internal/usecase/scanner"
	statsuc "github.com/kailas-cloud/tosarchive/internal/usecase/stats"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 24 * time.Hour
)

// Internal interfaces, swapped for mocks in tests.
type resolverUseCase interface {
	ResolveDate(ctx context.Context, service, documentType, date string) (timeline.VersionAtDate, error)
	Resolve(ctx context.Context, service, documentType string, at time.Time) (timeline.VersionAtDate, error)
}

type scannerUseCase interface {
	FirstOccurrence(ctx context.Context, terms string) (termindex.FirstOccurrence, error)
	AllOccurrences(ctx context.Context, terms string) (termindex.AllOccurrences, error)
}

type catalogUseCase interface {
	ListServices(ctx context.Context, multipleVersionsOnly bool) (map[string][]string, error)
}

type statsUseCase interface {
	Snapshots(ctx context.Context) ([]activity.Row, error)
	Monthly(ctx context.Context) ([]activity.Month, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the tosarchive SDK entry point.
type Client struct {
	store       db.Store
	resolverSvc resolverUseCase
	scannerSvc  scannerUseCase
	catalogSvc  catalogUseCase
	statsSvc    statsUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New opens the corpus and, when configured, connects the scan cache.
// The provided context is used for the cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{cacheTTL: defaultCacheTTL}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.root == "" {
		return nil, errors.New("tosarchive: corpus root required (use WithCorpus)")
	}
	if cfg.zapLogger == nil {
		cfg.zapLogger = zap.NewNop()
	}

	layout := snapshot.MustLayout(snapshot.DefaultLayout)
	if cfg.layout != "" {
		var err error
		if layout, err = snapshot.NewLayout(cfg.layout); err != nil {
			return nil, fmt.Errorf("tosarchive: %w", err)
		}
	}
	ix, err := corpus.Open(corpus.Config{Root: cfg.root, Layout: layout, ReadmeFilename: cfg.readme})
	if err != nil {
		return nil, fmt.Errorf("tosarchive: %w", err)
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		store, err = createStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return wireClient(ix, store, cfg, obs)
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePass,
	})
	if err != nil {
		return nil, fmt.Errorf("tosarchive: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("tosarchive: cache not ready: %w", err)
	}
	return s, nil
}

func wireClient(ix *corpus.Index, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	resolverSvc := resolveruc.New(ix)
	if cfg.indexCache {
		resolverSvc = resolverSvc.WithIndexCache(ix)
	}

	scannerSvc := scanneruc.New(ix, scanneruc.Config{
		Workers:        cfg.workers,
		MaxLineBytes:   cfg.maxLineBytes,
		SkipUnreadable: cfg.skipUnreadable,
	}, cfg.zapLogger)

	marker := dataset.NewMarker(cfg.markerPath, cfg.zapLogger)
	if err := marker.Load(); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("tosarchive: read dataset marker: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var pinger healthuc.CachePinger
	if store != nil {
		scannerSvc = scannerSvc.WithCache(scancache.New(store, marker, cfg.cacheTTL, nil, cfg.zapLogger))
		pinger = store
	}

	return &Client{
		store:       store,
		resolverSvc: resolverSvc,
		scannerSvc:  scannerSvc,
		catalogSvc:  cataloguc.New(ix, nil, marker),
		statsSvc:    statsuc.New(ix),
		healthSvc:   healthuc.New(ix, pinger),
		obs:         obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
