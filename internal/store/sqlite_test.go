// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers file creation, persistence across reopen and in-memory databases

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestNewSQLiteStore_ReservedCharactersInPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tareas?v=2#a 100%.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Set(context.Background(), KeyTasks, []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file was not created at the literal path: %v", err)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:"},
		{"/data/profile.db", "file:/data/profile.db?_pragma=busy_timeout(5000)&_txlock=immediate"},
		{"/data/a?b#c.db", "file:/data/a%3Fb%23c.db?_pragma=busy_timeout(5000)&_txlock=immediate"},
		{"/data/50%.db", "file:/data/50%25.db?_pragma=busy_timeout(5000)&_txlock=immediate"},
	}
	for _, tt := range tests {
		if got := dsn(tt.path); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, KeyTasks, []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := store.Get(ctx, KeyTasks)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("value mismatch: got %q, want %q", got, `[]`)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := first.Set(ctx, KeyAccounts, []byte(`[{"email":"a@x.com"}]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	first.Close()

	second, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, KeyAccounts)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"email":"a@x.com"}]` {
		t.Errorf("value mismatch after reopen: got %q", got)
	}
}

func TestSQLiteStore_TwoHandlesShareProfile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	a, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer a.Close()

	b, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer b.Close()

	for i := 0; i < 5; i++ {
		if err := Mutate(ctx, a, KeyTasks, []int{}, func(xs []int) ([]int, error) { return append(xs, 1), nil }); err != nil {
			t.Fatalf("Mutate via a failed: %v", err)
		}
		if err := Mutate(ctx, b, KeyTasks, []int{}, func(xs []int) ([]int, error) { return append(xs, 2), nil }); err != nil {
			t.Fatalf("Mutate via b failed: %v", err)
		}
	}

	got, err := Load(ctx, a, KeyTasks, []int{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 entries written through two handles, got %d", len(got))
	}
}
