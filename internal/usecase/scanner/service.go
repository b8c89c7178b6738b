package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tosarchive/internal/corpus"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

// Config tunes a scan.
type Config struct {
	// Workers bounds concurrently matched files. Zero means GOMAXPROCS.
	Workers int
	// MaxLineBytes bounds a single line. Zero means DefaultMaxLineBytes.
	MaxLineBytes int
	// SkipUnreadable treats unreadable files as non-matching instead of
	// failing the scan.
	SkipUnreadable bool
}

// Service searches every snapshot of the corpus for a set of terms.
type Service struct {
	corpus Corpus
	cfg    Config
	cache  ResultCache
	rec    Recorder
	logger *zap.Logger
}

// New creates a scanner service.
func New(c Corpus, cfg Config, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{corpus: c, cfg: cfg, logger: logger}
}

// WithCache serves repeated scans from c.
func (s *Service) WithCache(c ResultCache) *Service {
	s.cache = c
	return s
}

// WithRecorder reports scan measurements to r.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.rec = r
	return s
}

// FirstOccurrence returns, for every (service, document type), the earliest
// capture containing any of the terms.
func (s *Service) FirstOccurrence(ctx context.Context, terms string) (termindex.FirstOccurrence, error) {
	q, err := ParseTerms(terms)
	if err != nil {
		return nil, err
	}

	idx := termindex.NewFirstOccurrence()
	if s.cache != nil && s.cache.Load(ctx, termindex.First, q.Raw(), &idx) {
		return idx, nil
	}
	if err := s.scan(ctx, termindex.First, q, idx.Observe); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Store(ctx, termindex.First, q.Raw(), idx)
	}
	return idx, nil
}

// AllOccurrences returns, for every snapshot, whether it contains any of the terms.
func (s *Service) AllOccurrences(ctx context.Context, terms string) (termindex.AllOccurrences, error) {
	q, err := ParseTerms(terms)
	if err != nil {
		return nil, err
	}

	idx := termindex.NewAllOccurrences()
	if s.cache != nil && s.cache.Load(ctx, termindex.All, q.Raw(), &idx) {
		return idx, nil
	}
	if err := s.scan(ctx, termindex.All, q, idx.Observe); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Store(ctx, termindex.All, q.Raw(), idx)
	}
	return idx, nil
}

// scan matches every canonical snapshot concurrently and folds each result
// into observe, which is called under a lock.
func (s *Service) scan(
	ctx context.Context, mode termindex.Mode, q Query, observe func(snapshot.Ref, bool),
) error {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	var (
		mu      sync.Mutex
		files   int
		walkErr error
	)
	for ref, err := range s.corpus.Enumerate(corpus.ScopeCanonical) {
		if err != nil {
			walkErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		files++
		g.Go(func() error {
			matched, err := s.match(gctx, ref, q)
			if err != nil {
				return err
			}
			mu.Lock()
			observe(ref, matched)
			mu.Unlock()
			return nil
		})
	}
	matchErr := g.Wait()

	switch {
	case walkErr != nil:
		return fmt.Errorf("enumerate corpus: %w", walkErr)
	case matchErr != nil:
		return fmt.Errorf("match snapshots: %w", matchErr)
	case ctx.Err() != nil:
		return ctx.Err() //nolint:wrapcheck // propagate cancellation as is
	}

	d := time.Since(start)
	if s.rec != nil {
		s.rec.ObserveScan(mode, files, d)
	}
	s.logger.Debug("Scan finished",
		zap.String("mode", string(mode)),
		zap.Strings("terms", q.Terms()),
		zap.Int("files", files),
		zap.Duration("duration", d),
	)
	return nil
}

func (s *Service) match(ctx context.Context, ref snapshot.Ref, q Query) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err //nolint:wrapcheck // cancellation
	}
	rc, err := s.corpus.Open(ref)
	if err != nil {
		return s.unreadable(ref, err)
	}
	defer rc.Close()

	matched, err := q.MatchReader(rc, s.cfg.MaxLineBytes)
	if err != nil {
		return s.unreadable(ref, &corpus.ReadError{Path: ref.Path(), Err: err})
	}
	return matched, nil
}

// unreadable either fails the scan or, when configured, logs and counts the
// snapshot as not matching.
func (s *Service) unreadable(ref snapshot.Ref, err error) (bool, error) {
	var re *corpus.ReadError
	if !errors.As(err, &re) {
		err = &corpus.ReadError{Path: ref.Path(), Err: err}
	}
	if !s.cfg.SkipUnreadable {
		return false, err
	}
	s.logger.Warn("Skipping unreadable snapshot",
		zap.String("service", ref.Service()),
		zap.String("document_type", ref.DocumentType()),
		zap.String("path", ref.Path()),
		zap.Error(err),
	)
	return false, nil
}
