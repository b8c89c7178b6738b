// Package corpustest builds throwaway corpora on disk for tests.
package corpustest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// Builder writes snapshot files under a temporary root.
type Builder struct {
	t      testing.TB
	root   string
	layout snapshot.Layout
}

// New creates a Builder rooted in t.TempDir() using the default layout.
func New(t testing.TB) *Builder {
	t.Helper()
	return &Builder{t: t, root: t.TempDir(), layout: snapshot.MustLayout(snapshot.DefaultLayout)}
}

// Root returns the corpus root.
func (b *Builder) Root() string { return b.root }

// Layout returns the layout used for file names.
func (b *Builder) Layout() snapshot.Layout { return b.layout }

// Snapshot writes one snapshot and returns its path.
func (b *Builder) Snapshot(service, documentType string, at time.Time, content string) string {
	b.t.Helper()
	return b.File(filepath.Join(service, documentType, b.layout.FileName(at)), content)
}

// File writes an arbitrary file relative to the root and returns its path.
func (b *Builder) File(rel, content string) string {
	b.t.Helper()
	path := filepath.Join(b.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		b.t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		b.t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FakeService writes the two-snapshot corpus used across the test suites:
// a README at the root and FakeService/Community Guidelines with a
// "California" version on 2020-11-09 and an "rgpd" version on 2020-11-11.
func FakeService(t testing.TB) *Builder {
	t.Helper()
	b := New(t)
	b.File("README.md", "# Dataset\n\nThis file is not a snapshot.\n")
	b.Snapshot("FakeService", "Community Guidelines", First,
		"Community Guidelines\n\nResidents of California have additional rights.\n")
	b.Snapshot("FakeService", "Community Guidelines", Second,
		"Community Guidelines\n\nCalifornia residents: see section 4.\nRGPD: see section 5.\n")
	return b
}

// Capture times of the FakeService corpus.
var (
	First  = time.Date(2020, 11, 9, 17, 30, 22, 0, time.UTC)
	Second = time.Date(2020, 11, 11, 16, 30, 22, 0, time.UTC)
)
