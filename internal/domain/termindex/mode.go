package termindex

// Mode selects which index a scan builds.
type Mode string

// Scan mode constants.
const (
	// First keeps the earliest matching capture per pair.
	First Mode = "first_occurrence"
	// All records a match flag for every snapshot.
	All Mode = "all_occurrences"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == First || m == All
}
