// Package store defines the key/value storage interfaces the steward persists its state with along
// with a leveldb implementation. Other implementations live in the sub-packages (see inmemorydb
// and datastoredb).
package store

import (
	"github.com/pkg/errors"
	"io"
)

// ErrNotFound is returned (possibly wrapped) by every StringStorer implementation when a key
// has no value. Callers should test for it with errors.Is
var ErrNotFound = errors.New("not found")

// StringStorer is implemented by any value that has the GetString, PutString and Scan
// methods as well as the io.Closer interface
type StringStorer interface {
	io.Closer

	// GetString returns the value for the key or an error wrapping ErrNotFound if there is none
	GetString(key string) (value string, err error)

	// PutString adds or replaces the value associated to the key. The value must be persisted
	// when PutString returns without error
	PutString(key string, value string) (err error)

	// Scan returns all key/values
	Scan() (entries map[string]string, err error)
}

// IsNotFound returns true if err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
