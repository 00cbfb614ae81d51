package votes

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTargetType means the target has no single-character type code.
	ErrInvalidTargetType = errors.New("votable objects must define a single letter type code")
	ErrInvalidDirection  = errors.New("invalid vote direction")
	// ErrVoteConflict is transient; the whole vote can be retried from a fresh read.
	ErrVoteConflict       = errors.New("vote state changed concurrently")
	ErrStorageUnavailable = errors.New("vote storage unavailable")
	ErrTargetNotFound     = errors.New("vote target not found")
)

// StorageError wraps a persistence failure. It matches ErrStorageUnavailable
// and unwraps to the driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("vote storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
