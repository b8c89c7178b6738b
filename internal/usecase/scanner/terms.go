package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// DefaultMaxLineBytes bounds a single line held in memory while matching.
const DefaultMaxLineBytes = 16 << 20

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Query is a comma-separated list of terms compiled into one
// case-insensitive alternation. Terms are regular expression fragments.
type Query struct {
	raw   string
	terms []string
	re    *regexp.Regexp
}

// ParseTerms compiles raw ("California,Act") into a Query that matches a
// line containing any of the terms, ignoring case.
func ParseTerms(raw string) (Query, error) {
	if raw == "" {
		return Query{}, fmt.Errorf("%w: no terms given", domain.ErrInvalidTerms)
	}
	terms := strings.Split(raw, ",")
	for i, t := range terms {
		if t == "" {
			return Query{}, fmt.Errorf("%w: term %d is empty", domain.ErrInvalidTerms, i+1)
		}
	}
	re, err := regexp.Compile("(?i)" + strings.Join(terms, "|"))
	if err != nil {
		return Query{}, fmt.Errorf("%w: %w", domain.ErrInvalidTerms, err)
	}
	return Query{raw: raw, terms: terms, re: re}, nil
}

// Raw returns the terms as given.
func (q Query) Raw() string { return q.raw }

// Terms returns the individual terms.
func (q Query) Terms() []string { return q.terms }

// MatchLine reports whether a single line contains any term.
func (q Query) MatchLine(line []byte) bool { return q.re.Match(line) }

// MatchReader streams r line by line and stops at the first matching line.
// Lines longer than maxLine bytes and invalid UTF-8 are read errors.
func (q Query) MatchReader(r io.Reader, maxLine int) (bool, error) {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64<<10, maxLine)), maxLine)
	for sc.Scan() {
		line := sc.Bytes()
		if !utf8.Valid(line) {
			return false, errInvalidUTF8
		}
		if q.re.Match(line) {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("scan lines: %w", err)
	}
	return false, nil
}
