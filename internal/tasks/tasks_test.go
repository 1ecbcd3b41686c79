// ABOUTME: Tests for the Task Store
// ABOUTME: Covers id assignment, in-place updates, deletes and owner filtering

package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/2389/taskboard/internal/store"
)

// fixedClock returns a clock frozen at ms milliseconds since the epoch.
func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newTestStore(t *testing.T, opts ...Option) (*Store, store.KV) {
	t.Helper()
	kv := store.NewMemoryStore()
	return NewStore(kv, opts...), kv
}

func TestListTasks_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	all, err := s.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", all)
	}
}

func TestCreateTask(t *testing.T) {
	s, _ := newTestStore(t, WithClock(fixedClock(1_700_000_000_000)))
	ctx := context.Background()

	created, err := s.CreateTask(ctx, Task{Title: "T1", DueDate: "2024-01-01", Owner: "a@x.com"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	want := Task{
		ID:      1_700_000_000_000,
		Title:   "T1",
		DueDate: "2024-01-01",
		Status:  StatusPending,
		Owner:   "a@x.com",
	}
	if diff := cmp.Diff(want, *created); diff != "" {
		t.Errorf("created task mismatch (-want +got):\n%s", diff)
	}

	found, err := s.FindTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindTask: %v", err)
	}
	if diff := cmp.Diff(*created, *found); diff != "" {
		t.Errorf("found task mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateTask_KeepsExplicitStatus(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.CreateTask(context.Background(), Task{Title: "T", DueDate: "d", Status: StatusDone})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.Status != StatusDone {
		t.Errorf("Status = %q, want %q", created.Status, StatusDone)
	}
}

func TestCreateTask_SameMillisecondIDsAreUnique(t *testing.T) {
	s, _ := newTestStore(t, WithClock(fixedClock(1_000)))
	ctx := context.Background()

	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 50; i++ {
		created, err := s.CreateTask(ctx, Task{Title: "T", DueDate: "d"})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if seen[created.ID] {
			t.Fatalf("id %d reused", created.ID)
		}
		if created.ID <= last {
			t.Fatalf("id %d not greater than previous %d", created.ID, last)
		}
		seen[created.ID] = true
		last = created.ID
	}
}

func TestCreateTask_ClockBehindExistingIDs(t *testing.T) {
	s, kv := newTestStore(t, WithClock(fixedClock(10)))
	ctx := context.Background()

	if err := store.Save(ctx, kv, store.KeyTasks, []Task{{ID: 5_000, Title: "old"}}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	created, err := s.CreateTask(ctx, Task{Title: "new", DueDate: "d"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID != 5_001 {
		t.Errorf("ID = %d, want 5001", created.ID)
	}
}

func TestUpdateTask_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	original, err := s.CreateTask(ctx, Task{Title: "T1", DueDate: "2024-01-01", Owner: "a@x.com"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	edited := *original
	edited.Status = StatusInProgress
	if err := s.UpdateTask(ctx, edited); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	found, err := s.FindTask(ctx, original.ID)
	if err != nil {
		t.Fatalf("FindTask: %v", err)
	}
	if diff := cmp.Diff(edited, *found); diff != "" {
		t.Errorf("found task mismatch (-want +got):\n%s", diff)
	}
	if found.Status == original.Status {
		t.Error("expected the edited status, got the original")
	}
}

func TestUpdateTask_PreservesOrderAndOwner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		created, err := s.CreateTask(ctx, Task{Title: title, DueDate: "d", Owner: "a@x.com"})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		ids = append(ids, created.ID)
	}

	err := s.UpdateTask(ctx, Task{ID: ids[1], Title: "B", DueDate: "d2", Status: StatusDone, Owner: "intruder@x.com"})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	all, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	titles := []string{all[0].Title, all[1].Title, all[2].Title}
	if diff := cmp.Diff([]string{"a", "B", "c"}, titles); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if all[1].Owner != "a@x.com" {
		t.Errorf("Owner = %q, want a@x.com", all[1].Owner)
	}
}

func TestUpdateTask_MissingID(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateTask(ctx, Task{Title: "a", DueDate: "d"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	before, _ := kv.Get(ctx, store.KeyTasks)

	err := s.UpdateTask(ctx, Task{ID: 42, Title: "ghost"})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	after, _ := kv.Get(ctx, store.KeyTasks)
	if string(before) != string(after) {
		t.Errorf("collection changed on failed update:\nbefore %s\nafter  %s", before, after)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateTask(ctx, Task{Title: "a", DueDate: "d"})
	b, _ := s.CreateTask(ctx, Task{Title: "b", DueDate: "d"})

	if err := s.DeleteTask(ctx, a.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	if _, err := s.FindTask(ctx, a.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
	}

	all, _ := s.ListTasks(ctx)
	if len(all) != 1 || all[0].ID != b.ID {
		t.Errorf("expected only task b to remain, got %#v", all)
	}
}

func TestDeleteTask_MissingIDLeavesLength(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = s.CreateTask(ctx, Task{Title: "a", DueDate: "d"})

	err := s.DeleteTask(ctx, 999)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	all, _ := s.ListTasks(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 task, got %d", len(all))
	}
}

func TestListTasksByOwner(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = s.CreateTask(ctx, Task{Title: "mine", DueDate: "d", Owner: "a@x.com"})
	_, _ = s.CreateTask(ctx, Task{Title: "theirs", DueDate: "d", Owner: "b@x.com"})
	_, _ = s.CreateTask(ctx, Task{Title: "mine too", DueDate: "d", Owner: "a@x.com"})

	owned, err := s.ListTasksByOwner(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("ListTasksByOwner: %v", err)
	}
	if len(owned) != 2 || owned[0].Title != "mine" || owned[1].Title != "mine too" {
		t.Errorf("unexpected owned tasks: %#v", owned)
	}

	all, _ := s.ListTasks(ctx)
	if len(all) != 3 {
		t.Errorf("ListTasks should stay unfiltered, got %d", len(all))
	}
}

func TestTasks_ReadsStoredJSONLayout(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	raw := `[{"title":"T1","description":"","due_date":"2024-01-01","status":"Pendiente","owner":"a@x.com","id":1704067200000}]`
	if err := kv.Set(ctx, store.KeyTasks, []byte(raw)); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	found, err := s.FindTask(ctx, 1704067200000)
	if err != nil {
		t.Fatalf("FindTask: %v", err)
	}
	if found.DueDate != "2024-01-01" || found.Owner != "a@x.com" {
		t.Errorf("unexpected task: %#v", found)
	}
}
