// ABOUTME: Task Store owning the gt_tasks collection
// ABOUTME: Every mutation rewrites the whole collection inside one KV transaction

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/taskboard/internal/store"
)

// Task statuses offered by the forms. Status is free text in storage.
const (
	StatusPending    = "Pendiente"
	StatusInProgress = "En progreso"
	StatusDone       = "Completada"
)

// Statuses lists the selectable statuses in display order.
var Statuses = []string{StatusPending, StatusInProgress, StatusDone}

// ErrTaskNotFound is returned when no task has the requested id.
var ErrTaskNotFound = errors.New("task not found")

// Task is one tracked item. ID and Owner are fixed at creation.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Owner       string `json:"owner"`
}

// Store manages tasks over a KV backend.
type Store struct {
	kv     store.KV
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to derive new ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a task store backed by kv.
func NewStore(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		now:    time.Now,
		logger: slog.Default().With("component", "tasks"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTasks returns every task in collection order, regardless of owner.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	return store.Load(ctx, s.kv, store.KeyTasks, []Task{})
}

// ListTasksByOwner returns the tasks created by owner, in collection order.
func (s *Store) ListTasksByOwner(ctx context.Context, owner string) ([]Task, error) {
	all, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]Task, 0, len(all))
	for _, t := range all {
		if t.Owner == owner {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// FindTask returns the first task with id, or ErrTaskNotFound.
func (s *Store) FindTask(ctx context.Context, id int64) (*Task, error) {
	all, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrTaskNotFound
}

// CreateTask assigns an id to task, appends it and persists the collection.
// The id is the current time in milliseconds, bumped past the highest
// existing id so two creations in the same millisecond never collide.
func (s *Store) CreateTask(ctx context.Context, task Task) (*Task, error) {
	if task.Status == "" {
		task.Status = StatusPending
	}

	err := store.Mutate(ctx, s.kv, store.KeyTasks, []Task{}, func(all []Task) ([]Task, error) {
		task.ID = nextID(all, s.now())
		return append(all, task), nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Debug("created task", "id", task.ID, "owner", task.Owner)
	return &task, nil
}

// UpdateTask replaces the stored task that has task.ID, keeping its
// position and its original owner. Returns ErrTaskNotFound, writing
// nothing, if no such task exists.
func (s *Store) UpdateTask(ctx context.Context, task Task) error {
	err := store.Mutate(ctx, s.kv, store.KeyTasks, []Task{}, func(all []Task) ([]Task, error) {
		for i := range all {
			if all[i].ID == task.ID {
				task.Owner = all[i].Owner
				all[i] = task
				return all, nil
			}
		}
		return nil, ErrTaskNotFound
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("updating task: %w", err)
	}

	s.logger.Debug("updated task", "id", task.ID)
	return nil
}

// DeleteTask removes the task with id. Returns ErrTaskNotFound, writing
// nothing, if no such task exists.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	err := store.Mutate(ctx, s.kv, store.KeyTasks, []Task{}, func(all []Task) ([]Task, error) {
		kept := make([]Task, 0, len(all))
		for _, t := range all {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(all) {
			return nil, ErrTaskNotFound
		}
		return kept, nil
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Debug("deleted task", "id", id)
	return nil
}

func nextID(all []Task, now time.Time) int64 {
	id := now.UnixMilli()
	for _, t := range all {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	return id
}
