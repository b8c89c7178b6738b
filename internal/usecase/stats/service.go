package stats

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/tosarchive/internal/domain/activity"
)

const monthLayout = "2006-01"

// Service computes tabular statistics over the corpus.
type Service struct {
	corpus Corpus
}

// New creates a stats service.
func New(corpus Corpus) *Service {
	return &Service{corpus: corpus}
}

// Snapshots returns one row per snapshot ordered by service, document type
// and capture time.
func (s *Service) Snapshots(ctx context.Context) ([]activity.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs, err := s.corpus.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	rows := make([]activity.Row, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, activity.Row{
			Service:      r.Service(),
			DocumentType: r.DocumentType(),
			CapturedAt:   r.CapturedAt(),
		})
	}
	slices.SortFunc(rows, func(a, b activity.Row) int {
		return cmp.Or(
			cmp.Compare(a.Service, b.Service),
			cmp.Compare(a.DocumentType, b.DocumentType),
			a.CapturedAt.Compare(b.CapturedAt),
		)
	})
	return rows, nil
}

// Monthly groups snapshots by calendar month (UTC). Months without any
// snapshot are omitted.
func (s *Service) Monthly(ctx context.Context) ([]activity.Month, error) {
	rows, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	active := make(map[string]map[string]struct{})
	for _, r := range rows {
		m := r.CapturedAt.UTC().Format(monthLayout)
		if active[m] == nil {
			active[m] = make(map[string]struct{})
		}
		active[m][r.Service] = struct{}{}
	}

	months := make([]string, 0, len(active))
	for m := range active {
		months = append(months, m)
	}
	slices.Sort(months)

	seen := make(map[string]struct{})
	out := make([]activity.Month, 0, len(months))
	for _, m := range months {
		for svc := range active[m] {
			seen[svc] = struct{}{}
		}
		out = append(out, activity.Month{
			YearMonth:       m,
			ServicesActive:  len(active[m]),
			ServicesTracked: len(seen),
		})
	}
	return out, nil
}
