package scanner

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/corpus"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

// Corpus enumerates snapshots and opens them for streaming reads.
type Corpus interface {
	Enumerate(scope corpus.Scope) iter.Seq2[snapshot.Ref, error]
	Open(ref snapshot.Ref) (io.ReadCloser, error)
}

// ResultCache stores finished indexes keyed by mode and raw terms.
// Implementations decide when caching is safe and report misses as false.
type ResultCache interface {
	Load(ctx context.Context, mode termindex.Mode, terms string, dst any) bool
	Store(ctx context.Context, mode termindex.Mode, terms string, v any)
}

// Recorder receives per-scan measurements.
type Recorder interface {
	ObserveScan(mode termindex.Mode, files int, d time.Duration)
}
