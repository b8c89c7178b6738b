package tosarchive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/tosarchive/internal/domain"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

// Outcomes recorded on every SDK call.
const (
	outcomeOK          = "ok"
	outcomeCanceled    = "canceled"
	outcomeClientError = "client_error"
	outcomeCorpusError = "corpus_error"
	outcomeError       = "error"
)

// outcome sorts an error into the caller's fault, a broken corpus, or anything else.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	case errors.Is(err, domain.ErrMalformedUserDate),
		errors.Is(err, domain.ErrUnknownServiceOrDocumentType),
		errors.Is(err, domain.ErrInvalidTerms):
		return outcomeClientError
	case errors.Is(err, domain.ErrInvalidCorpusRoot),
		errors.Is(err, domain.ErrMalformedSnapshotName),
		errors.Is(err, domain.ErrCorpusRead):
		return outcomeCorpusError
	default:
		return outcomeError
	}
}

type sdkMetrics struct {
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	scans          *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	scanTerms      *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tosarchive",
			Subsystem: "sdk",
			Name:      "lookups_total",
			Help:      "Resolver, catalog and stats calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tosarchive",
			Subsystem: "sdk",
			Name:      "lookup_duration_seconds",
			Help:      "Resolver, catalog and stats call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tosarchive",
			Subsystem: "sdk",
			Name:      "scans_total",
			Help:      "Term scans by mode and outcome.",
		}, []string{"mode", "outcome"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tosarchive",
			Subsystem: "sdk",
			Name:      "scan_duration_seconds",
			Help:      "Term scan duration in seconds, cache hits included.",
			Buckets:   []float64{.005, .05, .25, 1, 5, 15, 60, 180},
		}, []string{"mode"}),
		scanTerms: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tosarchive",
			Subsystem: "sdk",
			Name:      "scan_terms",
			Help:      "Number of comma-separated terms per scan.",
			Buckets:   []float64{1, 2, 4, 8, 16},
		}, []string{"mode"}),
	}
	if err := registerOrReuse(reg, &m.lookups); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.lookupDuration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.scans); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.scanDuration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.scanTerms); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or takes over the one already
// registered under the same name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("tosarchive: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("tosarchive: register metric: %w", err)
	}
	return nil
}

// observer records SDK calls. A nil observer records nothing.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// lookup records a resolver, catalog or stats call.
func (o *observer) lookup(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	res := outcome(err)
	if o.metrics != nil {
		o.metrics.lookups.WithLabelValues(op, res).Inc()
		o.metrics.lookupDuration.WithLabelValues(op).Observe(dur.Seconds())
	}
	o.log(res, err, append([]any{"op", op, "duration", dur}, attrs...))
}

// scan records a term scan. terms is the raw comma-separated input.
func (o *observer) scan(mode termindex.Mode, terms string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	res := outcome(err)
	if o.metrics != nil {
		o.metrics.scans.WithLabelValues(string(mode), res).Inc()
		o.metrics.scanDuration.WithLabelValues(string(mode)).Observe(dur.Seconds())
		if res == outcomeOK {
			o.metrics.scanTerms.WithLabelValues(string(mode)).Observe(float64(strings.Count(terms, ",") + 1))
		}
	}
	o.log(res, err, []any{"op", "scan", "mode", string(mode), "terms", terms, "duration", dur})
}

// log writes caller mistakes and cancellations at debug level; only
// corpus and unexpected failures reach warn.
func (o *observer) log(res string, err error, attrs []any) {
	if o.logger == nil {
		return
	}
	switch res {
	case outcomeOK:
		o.logger.Debug("call completed", attrs...)
	case outcomeClientError, outcomeCanceled:
		o.logger.Debug("call rejected", append(attrs, "outcome", res, "error", err)...)
	default:
		o.logger.Warn("call failed", append(attrs, "outcome", res, "error", err)...)
	}
}
