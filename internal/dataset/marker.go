// Package dataset tracks which corpus release is on disk.
//
// An external download job writes the release URL into a marker file once a
// new corpus is in place, and writes the literal "updating" while it swaps
// the tree. The marker is the only signal that cached scan results went stale.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Updating is the marker content while a download is in progress.
const Updating = "updating"

// Marker holds the last read content of the marker file.
type Marker struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	url string
}

// NewMarker creates a marker reader. An empty path disables it.
func NewMarker(path string, logger *zap.Logger) *Marker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Marker{path: path, logger: logger}
}

// Path returns the marker file path.
func (m *Marker) Path() string { return m.path }

// Load re-reads the marker file. A missing file clears the URL and is not
// an error: the corpus may be served before the first release is recorded.
func (m *Marker) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read dataset marker %s: %w", m.path, err)
	}
	url := strings.TrimSpace(string(data))

	m.mu.Lock()
	prev := m.url
	m.url = url
	m.mu.Unlock()

	if prev != url {
		m.logger.Info("Dataset marker changed",
			zap.String("path", m.path),
			zap.String("previous", prev),
			zap.String("current", url),
		)
	}
	return nil
}

// URL returns the raw marker content ("" when unknown).
func (m *Marker) URL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.url
}

// Version returns the release URL and true only when a complete release is
// recorded.
func (m *Marker) Version() (string, bool) {
	url := m.URL()
	if url == "" || url == Updating {
		return "", false
	}
	return url, true
}

// Info describes the release on disk.
type Info struct {
	URL  string
	Date string
}

// Info returns the release URL with its parsed date.
func (m *Marker) Info() Info {
	url := m.URL()
	return Info{URL: url, Date: ParseReleaseDate(url)}
}
