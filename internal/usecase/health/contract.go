package health

import "context"

// CorpusChecker verifies that the corpus root is usable.
type CorpusChecker interface {
	Check() error
}

// CachePinger checks result cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
