package sheetsync

import (
	"errors"
	"fmt"
)

// Error codes surfaced through the HTTP layer
const (
	CodeSyncInProgress = "SYNC_IN_PROGRESS"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeSyncCancelled  = "SYNC_CANCELLED"
	CodeSourceInactive = "SOURCE_INACTIVE"
)

// ErrRunCancelled marks a cooperative abort. It is not a failure: the lock
// is released and partial progress is reported as cancelled.
var ErrRunCancelled = errors.New("sync run cancelled")

// FetchError wraps a remote read failure. Fatal to the run: the lock is
// released and nothing is written.
type FetchError struct {
	Err error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("sheet fetch failed: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}
