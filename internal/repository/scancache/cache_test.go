package scancache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
	"github.com/kailas-cloud/tosarchive/internal/domain/termindex"
)

var captured = time.Date(2020, 11, 9, 17, 30, 22, 0, time.UTC)

func firstIndex() termindex.FirstOccurrence {
	idx := termindex.NewFirstOccurrence()
	idx.Observe(snapshot.New("FakeService", "Community Guidelines", captured, ""), true)
	idx.Observe(snapshot.New("OtherService", "Privacy Policy", captured, ""), false)
	return idx
}

func TestStoreThenLoad_First(t *testing.T) {
	c, ms, _ := newTestCache(t)
	ctx := context.Background()

	c.Store(ctx, termindex.First, "California", firstIndex())
	if len(ms.data) != 1 {
		t.Fatalf("expected 1 stored key, got %d", len(ms.data))
	}
	for k, ttl := range ms.ttls {
		if !strings.HasPrefix(k, "tosarchive:scan:") {
			t.Errorf("unexpected key %q", k)
		}
		if ttl != time.Hour {
			t.Errorf("expected ttl 1h, got %v", ttl)
		}
	}

	got := termindex.NewFirstOccurrence()
	if !c.Load(ctx, termindex.First, "California", &got) {
		t.Fatal("expected hit")
	}
	if m, _ := got.Lookup("FakeService", "Community Guidelines"); m != snapshot.At(captured) {
		t.Errorf("expected %v, got %v", captured, m)
	}
	if m, ok := got.Lookup("OtherService", "Privacy Policy"); !ok || m.Present() {
		t.Errorf("expected absent mark for OtherService, got %v (ok=%v)", m, ok)
	}
}

func TestStoreThenLoad_All(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	idx := termindex.NewAllOccurrences()
	idx.Observe(snapshot.New("FakeService", "Community Guidelines", captured, ""), true)
	c.Store(ctx, termindex.All, "California", idx)

	got := termindex.NewAllOccurrences()
	if !c.Load(ctx, termindex.All, "California", &got) {
		t.Fatal("expected hit")
	}
	if matched, ok := got.Lookup("FakeService", "Community Guidelines", captured); !ok || !matched {
		t.Errorf("expected matched entry, got matched=%v ok=%v", matched, ok)
	}
}

func TestKeySeparatesModeTermsAndRelease(t *testing.T) {
	c, _, rel := newTestCache(t)
	ctx := context.Background()
	c.Store(ctx, termindex.First, "California", firstIndex())

	var dst termindex.FirstOccurrence
	if c.Load(ctx, termindex.All, "California", &dst) {
		t.Error("mode must be part of the key")
	}
	if c.Load(ctx, termindex.First, "california", &dst) {
		t.Error("terms must be part of the key")
	}
	rel.url = "https://example.org/dataset-2022-01-01-bbb.zip"
	if c.Load(ctx, termindex.First, "California", &dst) {
		t.Error("release must be part of the key")
	}
}

func TestBypassWithoutRelease(t *testing.T) {
	ms := &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_scan_cache_total"}, []string{"result"})
	c := New(ms, &mockRelease{url: "updating"}, time.Hour, counter, zap.NewNop())
	ctx := context.Background()

	c.Store(ctx, termindex.First, "x", firstIndex())
	if len(ms.data) != 0 {
		t.Error("nothing must be stored without a release")
	}
	var dst termindex.FirstOccurrence
	if c.Load(ctx, termindex.First, "x", &dst) {
		t.Error("expected bypass")
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("bypass")); got != 1 {
		t.Errorf("expected bypass=1, got %v", got)
	}
}

func TestLoad_StoreErrorIsMiss(t *testing.T) {
	c, ms, _ := newTestCache(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("conn refused")
	}
	var dst termindex.FirstOccurrence
	if c.Load(context.Background(), termindex.First, "x", &dst) {
		t.Error("expected miss on store error")
	}
}

func TestLoad_CorruptEntryIsMiss(t *testing.T) {
	c, ms, _ := newTestCache(t)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("{not json"), nil
	}
	var dst termindex.FirstOccurrence
	if c.Load(context.Background(), termindex.First, "x", &dst) {
		t.Error("expected miss on corrupt entry")
	}
	if len(ms.deleted) != 1 {
		t.Errorf("expected corrupt entry evicted, got %v", ms.deleted)
	}
}

func TestStore_ErrorIsSwallowed(t *testing.T) {
	c, ms, _ := newTestCache(t)
	called := false
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		called = true
		return errors.New("read only replica")
	}
	c.Store(context.Background(), termindex.First, "x", firstIndex())
	if !called {
		t.Error("expected SetWithTTL to be called")
	}
}

func TestCacheCounter(t *testing.T) {
	ms := &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_scan_cache_hits"}, []string{"result"})
	c := New(ms, &mockRelease{url: "u", ok: true}, time.Hour, counter, zap.NewNop())
	ctx := context.Background()

	var dst termindex.FirstOccurrence
	c.Load(ctx, termindex.First, "x", &dst)
	c.Store(ctx, termindex.First, "x", firstIndex())
	c.Load(ctx, termindex.First, "x", &dst)

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected miss=1, got %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected hit=1, got %v", got)
	}
}
