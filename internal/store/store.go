// ABOUTME: KV interface and storage keys for taskboard persistence
// ABOUTME: Defines the backend contract shared by SQLite, bbolt and in-memory stores

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("not found")

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage keys for the three persisted collections
const (
	KeyAccounts = "gt_users"
	KeySession  = "gt_session"
	KeyTasks    = "gt_tasks"
)

// UpdateFunc receives the current value of a key (nil when absent) and
// returns the value to store in its place. Returning an error aborts the
// update and nothing is written.
type UpdateFunc func(current []byte) ([]byte, error)

// KV is a synchronous key/value store holding encoded values.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Update runs a read-modify-write of key inside a single transaction.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Close releases any resources held by the store
	Close() error
}
