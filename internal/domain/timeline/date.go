package timeline

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// DateError wraps ErrMalformedUserDate with the offending input.
type DateError struct {
	Input string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s %q: expected format is %s", domain.ErrMalformedUserDate, e.Input, domain.UserDateFormat)
}

func (e *DateError) Unwrap() error { return domain.ErrMalformedUserDate }

// ParseUserDate parses a YYYY-MM-DD boundary date and returns the last second
// of that day in UTC, so that every snapshot captured that day compares <= it
// and the first second of the next day compares > it.
func ParseUserDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(domain.UserDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, &DateError{Input: s, Err: err}
	}
	if d.Format(domain.UserDateLayout) != s {
		return time.Time{}, &DateError{Input: s}
	}
	return EndOfDay(d), nil
}

// EndOfDay returns 23:59:59 UTC on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
