// Package storage provides the durable key/value layer behind client state.
//
// It is the Go analogue of a browser tab's session storage: a small set of
// named buckets holding opaque byte values, scoped to one client profile.
package storage

import "errors"

// ErrNotFound is returned when a bucket or key does not exist.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for profile-scoped state storage.
type Store interface {
	// Get retrieves the value stored under bucket/key.
	// Returns ErrNotFound if the bucket or key is absent.
	Get(bucket, key string) ([]byte, error)
	// Put stores value under bucket/key, creating the bucket if needed.
	Put(bucket, key string, value []byte) error
	// Delete removes bucket/key. Deleting an absent key is not an error.
	Delete(bucket, key string) error
	// List returns the keys present in a bucket, in unspecified order.
	// An absent bucket yields an empty list.
	List(bucket string) ([]string, error)
}
