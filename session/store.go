// Package session keeps the API bearer token and the identity of the logged-in
// user in an injectable key-value store.
//
// The two keys are written together at login and erased together when the API
// rejects the token. Every outbound request reads the token; absence means the
// request goes out anonymously.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when the key holds no value.
var ErrNotFound = errors.New("session: key not found")

// Store is a process-wide string key-value store. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}
