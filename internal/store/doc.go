// Package store provides the key/value persistence layer for taskboard.
//
// # Architecture
//
// Every piece of state is a JSON document stored under one key of a KV
// backend:
//
//   - gt_users: array of accounts
//   - gt_session: the current session object, absent when logged out
//   - gt_tasks: array of tasks
//
// The KV interface is implemented by three backends:
//
//   - SQLiteStore: one row per key in a "kv" table (modernc.org/sqlite)
//   - BoltStore: one bucket in a bbolt file (go.etcd.io/bbolt)
//   - MemoryStore: a mutex-protected map
//
// Open selects a backend by driver name ("sqlite", "bolt", "memory").
//
// # Codec
//
// Load, Save and Mutate encode and decode values with encoding/json. An
// absent key decodes to the default passed by the caller, never an error.
//
// Mutate is the read-modify-write primitive used by the account and task
// stores. It runs inside KV.Update, which every backend executes as a single
// transaction, so two processes sharing one profile cannot interleave their
// rewrites of a collection. If the mutation function returns an error the
// stored value is left exactly as it was.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// Database file locations:
//
//   - Default: ~/.local/share/taskboard/profile.db
//   - Testing: :memory: or t.TempDir()
//
// # Error Handling
//
//   - ErrNotFound: key has no stored value (only returned by KV.Get)
//   - ErrUnknownDriver: Open was given an unsupported driver name
package store
