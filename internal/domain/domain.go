// Package domain holds the error taxonomy and shared constants of the archive.
// Value types live in the subpackages (snapshot, timeline, termindex, activity).
package domain

// KeyPrefix namespaces every key the service writes to an external store.
const KeyPrefix = "tosarchive:"

// UserDateLayout is the only accepted date format at the API boundary.
const UserDateLayout = "2006-01-02"

// UserDateFormat is UserDateLayout spelled out for error messages.
const UserDateFormat = "YYYY-MM-DD"
