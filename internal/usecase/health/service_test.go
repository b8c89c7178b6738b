package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCorpus struct {
	err error
}

func (m *mockCorpus) Check() error { return m.err }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockCorpus{}, &mockCachePinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["corpus"] != CheckOK {
		t.Errorf("expected corpus %q, got %q", CheckOK, r.Checks["corpus"])
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
}

func TestCheck_CorpusError(t *testing.T) {
	svc := New(&mockCorpus{err: errors.New("root gone")}, &mockCachePinger{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["corpus"] != CheckError {
		t.Errorf("expected corpus %q, got %q", CheckError, r.Checks["corpus"])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockCorpus{}, &mockCachePinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
	if r.Checks["corpus"] != CheckOK {
		t.Errorf("expected corpus %q, got %q", CheckOK, r.Checks["corpus"])
	}
}

func TestCheck_BothFailing(t *testing.T) {
	svc := New(&mockCorpus{err: errors.New("root gone")}, &mockCachePinger{err: errors.New("timeout")})
	if r := svc.Check(context.Background()); r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoCache(t *testing.T) {
	svc := New(&mockCorpus{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("expected no cache check")
	}
}
