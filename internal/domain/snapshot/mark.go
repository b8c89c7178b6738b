package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// WireLayout is the ISO-8601 rendering of capture instants on the wire.
const WireLayout = "2006-01-02T15:04:05"

// Mark is an optional capture instant: either a concrete time or Absent.
// It encodes to JSON as the ISO timestamp, or false when absent.
type Mark struct {
	at      time.Time
	present bool
}

// Absent is the empty Mark.
var Absent = Mark{}

// At returns a present Mark for t (normalized to UTC).
func At(t time.Time) Mark { return Mark{at: t.UTC(), present: true} }

// Present reports whether the mark holds a time.
func (m Mark) Present() bool { return m.present }

// Time returns the held instant, or the zero time when absent.
func (m Mark) Time() time.Time { return m.at }

// Earlier reports whether m is present and strictly before other, treating an
// absent other as later than everything.
func (m Mark) Earlier(other Mark) bool {
	if !m.present {
		return false
	}
	return !other.present || m.at.Before(other.at)
}

// String renders the mark for logs.
func (m Mark) String() string {
	if !m.present {
		return "absent"
	}
	return m.at.Format(WireLayout)
}

// MarshalJSON implements json.Marshaler.
func (m Mark) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("false"), nil
	}
	return json.Marshal(m.at.Format(WireLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mark) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("null")) {
		*m = Absent
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode mark: %w", err)
	}
	t, err := time.ParseInLocation(WireLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("decode mark: %w", err)
	}
	*m = At(t)
	return nil
}
