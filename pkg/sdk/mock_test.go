package tosarchive

import (
	"context"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/activity"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
	"github.com/kailas-cloud/tosarchive/internal/domain/timeline"
	healthuc "github.com/kailas-cloud/tosarchive/internal/usecase/health"
)

// --- resolverUseCase mock ---

type mockResolverUC struct {
	resolveDateFn func(ctx context.Context, service, documentType, date string) (timeline.VersionAtDate, error)
	resolveFn     func(ctx context.Context, service, documentType string, at time.Time) (timeline.VersionAtDate, error)
}

func (m *mockResolverUC) ResolveDate(
	ctx context.Context, service, documentType, date string,
) (timeline.VersionAtDate, error) {
	return m.resolveDateFn(ctx, service, documentType, date)
}

func (m *mockResolverUC) Resolve(
	ctx context.Context, service, documentType string, at time.Time,
) (timeline.VersionAtDate, error) {
	return m.resolveFn(ctx, service, documentType, at)
}

// --- scannerUseCase mock ---

type mockScannerUC struct {
	firstFn func(ctx context.Context, terms string) (termindex.FirstOccurrence, error)
	allFn   func(ctx context.Context, terms string) (termindex.AllOccurrences, error)
}

func (m *mockScannerUC) FirstOccurrence(ctx context.Context, terms string) (termindex.FirstOccurrence, error) {
	return m.firstFn(ctx, terms)
}

func (m *mockScannerUC) AllOccurrences(ctx context.Context, terms string) (termindex.AllOccurrences, error) {
	return m.allFn(ctx, terms)
}

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	listFn func(ctx context.Context, multipleVersionsOnly bool) (map[string][]string, error)
}

func (m *mockCatalogUC) ListServices(ctx context.Context, multipleVersionsOnly bool) (map[string][]string, error) {
	return m.listFn(ctx, multipleVersionsOnly)
}

// --- statsUseCase mock ---

type mockStatsUC struct {
	snapshotsFn func(ctx context.Context) ([]activity.Row, error)
	monthlyFn   func(ctx context.Context) ([]activity.Month, error)
}

func (m *mockStatsUC) Snapshots(ctx context.Context) ([]activity.Row, error) {
	return m.snapshotsFn(ctx)
}

func (m *mockStatsUC) Monthly(ctx context.Context) ([]activity.Month, error) {
	return m.monthlyFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct{ report healthuc.Report }

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
