package content

import (
	"errors"
	"fmt"
)

// ErrInvalidOption marks a filter option value outside the known tables.
var ErrInvalidOption = errors.New("invalid question option")

// ErrExhaustedSource marks a source that could not yield enough unique new
// items within the fetch round bound. Match with errors.Is.
var ErrExhaustedSource = errors.New("content source exhausted")

// ErrContentUnavailable is what delivery degrades to when a synchronous
// replenishment fails; upstream detail is logged, not surfaced.
var ErrContentUnavailable = errors.New("no content available")

// ErrUpstreamFailure marks a replenishment that failed because the
// outbound source call errored, as opposed to returning too few unique
// items. It always travels wrapped alongside ErrContentUnavailable.
var ErrUpstreamFailure = errors.New("content source failure")

// ExhaustedSourceError reports how far a FetchMoreUnique call got before
// giving up.
type ExhaustedSourceError struct {
	Kind      Kind
	Requested int
	Added     int
}

func (e *ExhaustedSourceError) Error() string {
	return fmt.Sprintf("%s source exhausted: added %d of %d requested unique items", e.Kind, e.Added, e.Requested)
}

func (e *ExhaustedSourceError) Unwrap() error { return ErrExhaustedSource }

// PersistenceError wraps a failed store write. The pool guarantees its
// in-memory index was not advanced past the failed write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
