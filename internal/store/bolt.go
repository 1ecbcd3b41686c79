// ABOUTME: bbolt implementation of the KV interface
// ABOUTME: Keeps every key in a single bucket of one database file

package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var profileBucket = []byte("profile")

// BoltStore implements the KV interface on top of a bbolt database file.
// bbolt holds an exclusive file lock, so only one process can have the
// profile open at a time; OpenTimeout bounds how long a second one waits.
type BoltStore struct {
	db     *bbolt.DB
	logger *slog.Logger
}

// NewBoltStore opens (or creates) the bbolt database at path.
// A zero openTimeout waits for the file lock indefinitely.
func NewBoltStore(path string, openTimeout time.Duration) (*BoltStore, error) {
	logger := slog.Default().With("component", "store", "driver", DriverBolt)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(profileBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	logger.Info("bolt store initialized", "path", path)
	return &BoltStore{db: db, logger: logger}, nil
}

// Close closes the database file
func (s *BoltStore) Close() error {
	s.logger.Info("closing bolt store")
	return s.db.Close()
}

// Get returns a copy of the value under key, or ErrNotFound.
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(profileBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid for the life of the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Set replaces the value under key.
func (s *BoltStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(profileBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("saving key: %w", err)
	}
	s.logger.Debug("set key", "key", key, "size", len(value))
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *BoltStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(profileBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	s.logger.Debug("deleted key", "key", key)
	return nil
}

// Update reads key, applies fn and writes the result in one bbolt transaction.
func (s *BoltStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(profileBucket)

		var current []byte
		if v := b.Get([]byte(key)); v != nil {
			current = append([]byte(nil), v...)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), next)
	})
}

// Ensure BoltStore implements KV interface
var _ KV = (*BoltStore)(nil)
