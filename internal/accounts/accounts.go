// ABOUTME: Account Store owning registered accounts and the session singleton
// ABOUTME: Reads and rewrites the gt_users and gt_session keys of a store.KV

package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/taskboard/internal/store"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = "estudiante"

// ErrDuplicateEmail is returned when registering an email that already exists.
var ErrDuplicateEmail = errors.New("an account with that email already exists")

// ErrInvalidCredentials is returned when no account matches email and password.
// It deliberately does not say which of the two was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountNotFound is returned when looking up an unknown email.
var ErrAccountNotFound = errors.New("account not found")

// ErrNoSession is returned by CurrentSession when nobody is logged in.
var ErrNoSession = errors.New("no active session")

// Account is a registered user. Email is the identity and is compared
// case-sensitively. Password is kept exactly as entered.
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Session marks the currently authenticated account.
type Session struct {
	Email string `json:"email"`
}

// Store manages accounts and the session over a KV backend.
type Store struct {
	kv     store.KV
	logger *slog.Logger
}

// NewStore creates an account store backed by kv.
func NewStore(kv store.KV) *Store {
	return &Store{
		kv:     kv,
		logger: slog.Default().With("component", "accounts"),
	}
}

// ListAccounts returns every registered account, or an empty slice.
func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	return store.Load(ctx, s.kv, store.KeyAccounts, []Account{})
}

// FindAccount returns the account registered under email.
func (s *Store) FindAccount(ctx context.Context, email string) (*Account, error) {
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Email == email {
			return &all[i], nil
		}
	}
	return nil, ErrAccountNotFound
}

// RegisterAccount appends a new account and persists the whole collection.
// Returns ErrDuplicateEmail, leaving the collection untouched, if email is
// already registered. Field presence is checked by the caller.
func (s *Store) RegisterAccount(ctx context.Context, name, email, password, role string) (*Account, error) {
	if role == "" {
		role = DefaultRole
	}
	acct := Account{Name: name, Email: email, Password: password, Role: role}

	err := store.Mutate(ctx, s.kv, store.KeyAccounts, []Account{}, func(all []Account) ([]Account, error) {
		for _, existing := range all {
			if existing.Email == email {
				return nil, ErrDuplicateEmail
			}
		}
		return append(all, acct), nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("registering account: %w", err)
	}

	s.logger.Info("registered account", "email", email, "role", role)
	return &acct, nil
}

// Authenticate finds the account whose email and password both match
// exactly and starts a session for it. On failure the current session, if
// any, is left as it was.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range all {
		if all[i].Email == email && all[i].Password == password {
			if err := s.StartSession(ctx, email); err != nil {
				return nil, err
			}
			return &all[i], nil
		}
	}

	s.logger.Debug("authentication failed", "email", email)
	return nil, ErrInvalidCredentials
}

// StartSession stores {email} as the only session, replacing any other.
func (s *Store) StartSession(ctx context.Context, email string) error {
	if err := store.Save(ctx, s.kv, store.KeySession, Session{Email: email}); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	s.logger.Info("session started", "email", email)
	return nil
}

// CurrentSession returns the stored session or ErrNoSession. It does not
// check that the referenced account still exists.
func (s *Store) CurrentSession(ctx context.Context) (*Session, error) {
	sess, err := store.Load[*Session](ctx, s.kv, store.KeySession, nil)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// EndSession removes the session entry. Ending when logged out is a no-op.
func (s *Store) EndSession(ctx context.Context) error {
	if err := s.kv.Delete(ctx, store.KeySession); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	s.logger.Info("session ended")
	return nil
}
