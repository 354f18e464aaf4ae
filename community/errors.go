package community

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	// ErrStorageUnavailable is matched (via errors.Is) by every error caused by a failure of the
	// underlying storage
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidDelta is returned when trying to decrease a member's credits
	ErrInvalidDelta = errors.New("credit delta must be positive")
)

// StorageError describes a failed store operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Error returns the description of the storage failure
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s [%s]: %v", ErrStorageUnavailable, e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying storage error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes a StorageError match ErrStorageUnavailable
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func storageErr(op string, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}
