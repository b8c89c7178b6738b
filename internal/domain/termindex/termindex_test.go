package termindex

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

type observation struct {
	ref     snapshot.Ref
	matched bool
}

func ts(day int) time.Time {
	return time.Date(2020, 11, day, 12, 0, 0, 0, time.UTC)
}

func fixture() []observation {
	return []observation{
		{snapshot.New("Acme", "Terms of Service", ts(1), ""), false},
		{snapshot.New("Acme", "Terms of Service", ts(2), ""), true},
		{snapshot.New("Acme", "Terms of Service", ts(3), ""), true},
		{snapshot.New("Acme", "Privacy Policy", ts(5), ""), false},
		{snapshot.New("Globex", "Terms of Service", ts(9), ""), true},
		{snapshot.New("Globex", "Terms of Service", ts(4), ""), true},
	}
}

func TestFirstOccurrence_RunningMinimum(t *testing.T) {
	f := NewFirstOccurrence()
	for _, o := range fixture() {
		f.Observe(o.ref, o.matched)
	}

	m, ok := f.Lookup("Acme", "Terms of Service")
	if !ok || !m.Present() || !m.Time().Equal(ts(2)) {
		t.Errorf("Acme/ToS: expected %v, got %v (observed=%v)", ts(2), m, ok)
	}
	m, ok = f.Lookup("Globex", "Terms of Service")
	if !ok || !m.Time().Equal(ts(4)) {
		t.Errorf("Globex/ToS: expected %v, got %v", ts(4), m)
	}
	m, ok = f.Lookup("Acme", "Privacy Policy")
	if !ok {
		t.Fatal("pair without a match must still be present")
	}
	if m.Present() {
		t.Errorf("Acme/Privacy: expected absent, got %v", m)
	}
}

func TestFirstOccurrence_OrderIndependent(t *testing.T) {
	obs := fixture()
	want := NewFirstOccurrence()
	for _, o := range obs {
		want.Observe(o.ref, o.matched)
	}

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		r.Shuffle(len(obs), func(a, b int) { obs[a], obs[b] = obs[b], obs[a] })
		got := NewFirstOccurrence()
		for _, o := range obs {
			got.Observe(o.ref, o.matched)
		}
		for svc, docs := range want {
			for doc, m := range docs {
				g, _ := got.Lookup(svc, doc)
				if g != m {
					t.Fatalf("shuffle %d: %s/%s expected %v, got %v", i, svc, doc, m, g)
				}
			}
		}
	}
}

func TestAllOccurrences_OneEntryPerSnapshot(t *testing.T) {
	a := NewAllOccurrences()
	for _, o := range fixture() {
		a.Observe(o.ref, o.matched)
	}

	if a.Len() != len(fixture()) {
		t.Fatalf("expected %d entries, got %d", len(fixture()), a.Len())
	}
	matched, ok := a.Lookup("Acme", "Terms of Service", ts(1))
	if !ok || matched {
		t.Errorf("Acme/ToS day 1: expected observed non-match, got matched=%v ok=%v", matched, ok)
	}
	matched, ok = a.Lookup("Globex", "Terms of Service", ts(9))
	if !ok || !matched {
		t.Errorf("Globex/ToS day 9: expected match, got matched=%v ok=%v", matched, ok)
	}
}

func TestAllOccurrences_CollisionLastWins(t *testing.T) {
	a := NewAllOccurrences()
	ref := snapshot.New("Acme", "Terms of Service", ts(1), "")
	a.Observe(ref, true)
	a.Observe(ref, false)

	if a.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", a.Len())
	}
	if matched, _ := a.Lookup("Acme", "Terms of Service", ts(1)); matched {
		t.Error("expected last observation to win")
	}
}
