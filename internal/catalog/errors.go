package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id does not resolve in the targeted store.
var ErrNotFound = errors.New("video not found")

// ErrNoChange is returned when a write was accepted but the store reports
// no modification.
var ErrNoChange = errors.New("update made no change")

// ValidationError rejects malformed input before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// ReplicationError reports a failed Secondary write during a synchronous
// operation. The Primary write has already committed and is not rolled
// back; callers decide how to surface the degraded result.
type ReplicationError struct {
	Op  string
	Err error
}

func (e *ReplicationError) Error() string {
	return fmt.Sprintf("secondary replication failed during %s: %v", e.Op, e.Err)
}

func (e *ReplicationError) Unwrap() error {
	return e.Err
}
