package tosarchive

import "time"

// VersionAtDate is the snapshot in effect at QueriedAt and the one after it.
type VersionAtDate struct {
	Service      string
	DocumentType string
	QueriedAt    time.Time
	// Version is the capture time of the snapshot in effect, nil before the first one.
	Version *time.Time
	// Data is the full text of Version, empty when Version is nil.
	Data string
	// Next is the capture time of the following snapshot, nil after the last one.
	Next *time.Time
}

// FirstOccurrences maps service -> document type -> earliest matching
// capture, nil when no snapshot of the pair matches.
type FirstOccurrences map[string]map[string]*time.Time

// Occurrence is the outcome of one snapshot in an all-occurrences scan.
type Occurrence struct {
	Service      string
	DocumentType string
	CapturedAt   time.Time
	Matched      bool
}

// Snapshot identifies one capture in the corpus.
type Snapshot struct {
	Service      string
	DocumentType string
	CapturedAt   time.Time
}

// MonthlyActivity counts services per calendar month.
type MonthlyActivity struct {
	YearMonth       string // YYYY-MM
	ServicesActive  int    // services with a snapshot in the month
	ServicesTracked int    // services seen in this or an earlier month
}

// Health is the state of the corpus and of the optional scan cache.
type Health struct {
	Status          string // "ok", "degraded" or "error"
	CorpusReadable  bool
	CacheConfigured bool
	CacheReachable  bool
}

// Serving reports whether queries can be answered. A broken cache only
// costs speed.
func (h Health) Serving() bool { return h.CorpusReadable }
