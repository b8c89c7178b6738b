package corpus

import (
	"errors"
	"io/fs"

	"github.com/kailas-cloud/tosarchive/internal/domain"
)

// ReadError wraps an I/O failure on a corpus path.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return domain.ErrCorpusRead.Error() + ": " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ReadError) Unwrap() []error { return []error{domain.ErrCorpusRead, e.Err} }

// IsNotExist reports whether the failure is a missing path, which usually
// means the corpus was swapped out mid-request.
func (e *ReadError) IsNotExist() bool { return errors.Is(e.Err, fs.ErrNotExist) }
