// Package storage defines the durable key/value store the SDK persists
// authentication state into, together with the bundled implementations.
package storage

import "errors"

var (
	KeyNotFoundErr = errors.New("key not found")
)

// Storage is a small key/value store. Implementations must be safe for
// concurrent use. Get returns KeyNotFoundErr when no value exists for the
// key; callers treat that as "no stored state", not a failure.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}
