package resolver

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/tosarchive/internal/domain"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/timeline"
)

// Service answers "which version was in effect at time t".
type Service struct {
	corpus Corpus

	// Optional sorted-index cache, enabled by WithIndexCache.
	stat  StatCorpus
	mu    sync.Mutex
	cache map[snapshot.Pair]cachedIndex
	group singleflight.Group
}

type cachedIndex struct {
	dir  os.FileInfo
	refs []snapshot.Ref
}

// New creates a resolver service.
func New(corpus Corpus) *Service {
	return &Service{corpus: corpus}
}

// WithIndexCache keeps the sorted version list of each pair in memory and
// reuses it while the pair directory is the same inode with the same mtime.
func (s *Service) WithIndexCache(c StatCorpus) *Service {
	s.stat = c
	s.cache = make(map[snapshot.Pair]cachedIndex)
	return s
}

// ResolveDate parses a YYYY-MM-DD date (as the end of that day) and resolves it.
func (s *Service) ResolveDate(
	ctx context.Context, service, documentType, date string,
) (timeline.VersionAtDate, error) {
	// An unknown pair is reported ahead of a bad date.
	if _, err := s.corpus.PairDir(service, documentType); err != nil {
		return timeline.VersionAtDate{}, err
	}
	at, err := timeline.ParseUserDate(date)
	if err != nil {
		return timeline.VersionAtDate{}, err
	}
	return s.Resolve(ctx, service, documentType, at)
}

// Resolve returns the latest snapshot captured at or before at, the snapshot
// that follows it, and the text of the former.
func (s *Service) Resolve(
	ctx context.Context, service, documentType string, at time.Time,
) (timeline.VersionAtDate, error) {
	if err := ctx.Err(); err != nil {
		return timeline.VersionAtDate{}, err
	}
	refs, err := s.sortedVersions(service, documentType)
	if err != nil {
		return timeline.VersionAtDate{}, err
	}
	if len(refs) == 0 {
		return timeline.VersionAtDate{}, fmt.Errorf("%w: %s/%s has no snapshots",
			domain.ErrUnknownServiceOrDocumentType, service, documentType)
	}

	floor, ceiling := around(refs, at)

	version, next, data := snapshot.Absent, snapshot.Absent, ""
	if floor >= 0 {
		version = snapshot.At(refs[floor].CapturedAt())
		data, err = s.corpus.ReadContent(refs[floor])
		if err != nil {
			return timeline.VersionAtDate{}, fmt.Errorf("read version: %w", err)
		}
	}
	if ceiling < len(refs) {
		next = snapshot.At(refs[ceiling].CapturedAt())
	}

	return timeline.New(service, documentType, at, version, data, next), nil
}

// around returns the index of the floor (latest <= at, or -1) and of its
// immediate successor (len(refs) when none). refs must be sorted and unique.
func around(refs []snapshot.Ref, at time.Time) (floor, ceiling int) {
	ceiling = sort.Search(len(refs), func(i int) bool {
		return refs[i].CapturedAt().After(at)
	})
	return ceiling - 1, ceiling
}

func (s *Service) sortedVersions(service, documentType string) ([]snapshot.Ref, error) {
	if s.cache == nil {
		return s.load(service, documentType)
	}

	pair := snapshot.Pair{Service: service, DocumentType: documentType}
	dir, err := s.stat.PairStat(service, documentType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry, ok := s.cache[pair]
	s.mu.Unlock()
	if ok && os.SameFile(entry.dir, dir) && entry.dir.ModTime().Equal(dir.ModTime()) {
		return entry.refs, nil
	}

	v, err, _ := s.group.Do(service+"\x00"+documentType, func() (any, error) {
		refs, err := s.load(service, documentType)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[pair] = cachedIndex{dir: dir, refs: refs}
		s.mu.Unlock()
		return refs, nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by load
	}
	return v.([]snapshot.Ref), nil
}

// load reads and sorts the versions of a pair. Identical capture times
// collapse to the one discovered last.
func (s *Service) load(service, documentType string) ([]snapshot.Ref, error) {
	refs, err := s.corpus.Versions(service, documentType)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	refs = slices.Clone(refs)
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].CapturedAt().Before(refs[j].CapturedAt())
	})
	out := refs[:0]
	for _, r := range refs {
		if n := len(out); n > 0 && out[n-1].CapturedAt().Equal(r.CapturedAt()) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
