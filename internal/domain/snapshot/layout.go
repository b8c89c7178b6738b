package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// Extension is the file suffix of every snapshot.
const Extension = ".md"

// DefaultLayout is the timestamp format used by the public dataset releases.
const DefaultLayout = "2006-01-02--15-04-05"

// Layout is the fixed-width timestamp format of snapshot file names, expressed
// as a Go reference layout. Timestamps are always interpreted in UTC.
type Layout struct {
	layout string
}

// NewLayout validates a reference layout. The layout must round-trip a
// second-resolution instant, otherwise two files could map to one name.
func NewLayout(layout string) (Layout, error) {
	if layout == "" {
		return Layout{}, errors.New("timestamp layout must not be empty")
	}
	if strings.ContainsAny(layout, `/\`) {
		return Layout{}, fmt.Errorf("timestamp layout %q must not contain path separators", layout)
	}
	sample := time.Date(2021, time.March, 4, 13, 5, 9, 0, time.UTC)
	back, err := time.ParseInLocation(layout, sample.Format(layout), time.UTC)
	if err != nil || !back.Equal(sample) {
		return Layout{}, fmt.Errorf("timestamp layout %q does not round-trip to the second", layout)
	}
	return Layout{layout: layout}, nil
}

// MustLayout is NewLayout for package-level constants and tests.
func MustLayout(layout string) Layout {
	l, err := NewLayout(layout)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the reference layout.
func (l Layout) String() string { return l.layout }

// FileName returns the canonical snapshot file name for t.
func (l Layout) FileName(t time.Time) string {
	return t.UTC().Format(l.layout) + Extension
}

// Parse extracts the capture instant from a snapshot file name. The name must
// match the layout byte for byte: time.Parse alone tolerates fractional seconds
// the layout does not mention, so the result is formatted back and compared.
func (l Layout) Parse(name string) (time.Time, error) {
	stem, ok := strings.CutSuffix(name, Extension)
	if !ok {
		return time.Time{}, &NameError{Name: name, Layout: l.layout, Reason: "missing " + Extension + " suffix"}
	}
	t, err := time.ParseInLocation(l.layout, stem, time.UTC)
	if err != nil {
		return time.Time{}, &NameError{Name: name, Layout: l.layout, Reason: err.Error()}
	}
	if t.Format(l.layout) != stem {
		return time.Time{}, &NameError{Name: name, Layout: l.layout, Reason: "not in canonical form"}
	}
	return t.UTC(), nil
}

// NameError describes a corpus file name that does not follow the layout.
type NameError struct {
	Name   string
	Layout string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %q does not match %q: %s",
		domain.ErrMalformedSnapshotName, e.Name, e.Layout+Extension, e.Reason)
}

func (e *NameError) Unwrap() error { return domain.ErrMalformedSnapshotName }
