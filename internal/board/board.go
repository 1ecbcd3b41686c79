// ABOUTME: Board service: validation and session gating in front of the stores
// ABOUTME: Shared by the web UI and the CLI so both enforce the same rules

package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/taskboard/internal/accounts"
	"github.com/2389/taskboard/internal/metrics"
	"github.com/2389/taskboard/internal/tasks"
)

// ErrMissingField is returned when a required form field is empty.
// The concrete error is a *FieldError naming the field.
var ErrMissingField = errors.New("missing required field")

// ErrSessionRequired is returned by task operations when nobody is logged in.
var ErrSessionRequired = errors.New("session required")

// ErrForbidden is returned in owner-only mode when touching another user's task.
var ErrForbidden = errors.New("task belongs to another account")

// FieldError reports which required field was empty.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Is lets errors.Is(err, ErrMissingField) match.
func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// GuestName is shown when the session points at an account that no longer exists.
const GuestName = "Usuario"

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// TaskInput carries the task create/edit form.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// Options configures a Service.
type Options struct {
	// OwnerOnly restricts listing, viewing, editing and deleting to the
	// session's own tasks. Off by default: every logged-in user sees all tasks.
	OwnerOnly bool

	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Service applies the caller-level rules around the account and task stores.
type Service struct {
	accounts  *accounts.Store
	tasks     *tasks.Store
	ownerOnly bool
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// New creates a Service.
func New(accountStore *accounts.Store, taskStore *tasks.Store, opts Options) *Service {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts:  accountStore,
		tasks:     taskStore,
		ownerOnly: opts.OwnerOnly,
		recorder:  rec,
		logger:    logger.With("component", "board"),
	}
}

// OwnerOnly reports whether owner scoping is enforced.
func (s *Service) OwnerOnly() bool {
	return s.ownerOnly
}

// observe records the outcome and duration of op. It is deferred with a
// pointer to the named error result so it sees the final value.
func (s *Service) observe(op string, start time.Time, errp *error) {
	err := *errp
	s.recorder.ObserveOperation(op, time.Since(start))
	switch {
	case err == nil:
		s.recorder.IncOperation(op, metrics.ResultOK)
	case isRejection(err):
		s.recorder.IncOperation(op, metrics.ResultRejected)
	default:
		s.recorder.IncOperation(op, metrics.ResultError)
		s.logger.Error("operation failed", "op", op, "error", err)
	}
}

func isRejection(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrSessionRequired) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, accounts.ErrDuplicateEmail) ||
		errors.Is(err, accounts.ErrInvalidCredentials) ||
		errors.Is(err, tasks.ErrTaskNotFound)
}

func required(field, value string) error {
	if value == "" {
		return &FieldError{Field: field}
	}
	return nil
}

// Register validates the form, creates the account and logs it in. Only a
// failed registration is an error; if the login that follows fails the
// account is still returned, without a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (acct *accounts.Account, err error) {
	defer s.observe("register", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	for _, check := range []error{
		required("name", name),
		required("email", email),
		required("password", in.Password),
	} {
		if check != nil {
			return nil, check
		}
	}

	acct, err = s.accounts.RegisterAccount(ctx, name, email, in.Password, strings.TrimSpace(in.Role))
	if err != nil {
		return nil, err
	}
	// The account is committed at this point. A failed login leaves it
	// registered and the user can log in by hand.
	if serr := s.accounts.StartSession(ctx, acct.Email); serr != nil {
		s.logger.Warn("registered account but could not start its session", "email", acct.Email, "error", serr)
	}
	s.refreshAccountCount(ctx)
	return acct, nil
}

// Login checks the credentials and starts a session.
func (s *Service) Login(ctx context.Context, email, password string) (acct *accounts.Account, err error) {
	defer s.observe("login", time.Now(), &err)

	email = strings.TrimSpace(email)
	if err = required("email", email); err != nil {
		return nil, err
	}
	if err = required("password", password); err != nil {
		return nil, err
	}

	acct, err = s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login successful", "email", email)
	return acct, nil
}

// Logout ends the current session.
func (s *Service) Logout(ctx context.Context) (err error) {
	defer s.observe("logout", time.Now(), &err)
	return s.accounts.EndSession(ctx)
}

// RequireSession returns the current session or ErrSessionRequired.
func (s *Service) RequireSession(ctx context.Context) (*accounts.Session, error) {
	sess, err := s.accounts.CurrentSession(ctx)
	if errors.Is(err, accounts.ErrNoSession) {
		return nil, ErrSessionRequired
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CurrentUser returns the account behind the session. A session whose
// account has disappeared yields a placeholder named GuestName.
func (s *Service) CurrentUser(ctx context.Context) (*accounts.Account, error) {
	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.FindAccount(ctx, sess.Email)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		return &accounts.Account{Name: GuestName, Email: sess.Email}, nil
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// ListAccounts returns every registered account.
func (s *Service) ListAccounts(ctx context.Context) (all []accounts.Account, err error) {
	defer s.observe("list_accounts", time.Now(), &err)

	all, err = s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	s.recorder.SetCollectionSize("accounts", len(all))
	return all, nil
}

// ListTasks returns the tasks visible to the session.
func (s *Service) ListTasks(ctx context.Context) (list []tasks.Task, err error) {
	defer s.observe("list_tasks", time.Now(), &err)

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}

	if s.ownerOnly {
		return s.tasks.ListTasksByOwner(ctx, sess.Email)
	}

	list, err = s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	s.recorder.SetCollectionSize("tasks", len(list))
	return list, nil
}

// GetTask returns one task visible to the session.
func (s *Service) GetTask(ctx context.Context, id int64) (task *tasks.Task, err error) {
	defer s.observe("get_task", time.Now(), &err)

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.visibleTask(ctx, sess, id)
}

func (s *Service) visibleTask(ctx context.Context, sess *accounts.Session, id int64) (*tasks.Task, error) {
	task, err := s.tasks.FindTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.ownerOnly && task.Owner != sess.Email {
		return nil, ErrForbidden
	}
	return task, nil
}

// normalize trims the text fields and checks the required ones.
func normalize(in TaskInput) (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = tasks.StatusPending
	}
	if err := required("title", in.Title); err != nil {
		return in, err
	}
	if err := required("due_date", in.DueDate); err != nil {
		return in, err
	}
	return in, nil
}

// CreateTask validates the form and creates a task owned by the session.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (task *tasks.Task, err error) {
	defer s.observe("create_task", time.Now(), &err)

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	in, err = normalize(in)
	if err != nil {
		return nil, err
	}

	return s.tasks.CreateTask(ctx, tasks.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      in.Status,
		Owner:       sess.Email,
	})
}

// EditTask validates the form and overwrites every editable field of task
// id. The id and owner never change.
func (s *Service) EditTask(ctx context.Context, id int64, in TaskInput) (task *tasks.Task, err error) {
	defer s.observe("edit_task", time.Now(), &err)

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	in, err = normalize(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.visibleTask(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	updated := tasks.Task{
		ID:          existing.ID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      in.Status,
		Owner:       existing.Owner,
	}
	if err = s.tasks.UpdateTask(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask removes task id.
func (s *Service) DeleteTask(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_task", time.Now(), &err)

	sess, err := s.RequireSession(ctx)
	if err != nil {
		return err
	}
	if s.ownerOnly {
		if _, err = s.visibleTask(ctx, sess, id); err != nil {
			return err
		}
	}
	return s.tasks.DeleteTask(ctx, id)
}

func (s *Service) refreshAccountCount(ctx context.Context) {
	all, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return
	}
	s.recorder.SetCollectionSize("accounts", len(all))
}
