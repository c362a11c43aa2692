package store

import "fmt"

// PersistError reports that the store could not be written. The merged
// items are still valid in memory; only the accumulation across runs is
// lost for this run.
type PersistError struct {
	Count int
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %d items: %v", e.Count, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
