// ABOUTME: Backend factory selecting a KV implementation by driver name
// ABOUTME: Used by the CLI and web server to open the configured profile

package store

import (
	"fmt"
	"time"
)

// Driver names accepted by Open
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Options tune backend behavior.
type Options struct {
	// OpenTimeout bounds how long the bolt driver waits for the file lock.
	OpenTimeout time.Duration
}

// Open returns the KV backend for driver. path is ignored for memory.
func Open(driver, path string, opts Options) (KV, error) {
	switch driver {
	case DriverSQLite, "":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverBolt:
		s, err := NewBoltStore(path, opts.OpenTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
