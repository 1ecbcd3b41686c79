// ABOUTME: Tests for the Account Store
// ABOUTME: Covers registration uniqueness, sessions and credential checks

package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskboard/internal/store"
)

func newTestStore(t *testing.T) (*Store, store.KV) {
	t.Helper()
	kv := store.NewMemoryStore()
	return NewStore(kv), kv
}

func TestListAccounts_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	all, err := s.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestRegisterAccount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	acct, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)
	assert.Equal(t, Account{Name: "Ana", Email: "a@x.com", Password: "p1", Role: DefaultRole}, *acct)

	_, err = s.RegisterAccount(ctx, "Luis", "l@x.com", "p2", "docente")
	require.NoError(t, err)

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@x.com", all[0].Email)
	assert.Equal(t, "docente", all[1].Role)
}

func TestRegisterAccount_DuplicateEmailLeavesCollection(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)

	before, err := kv.Get(ctx, store.KeyAccounts)
	require.NoError(t, err)

	_, err = s.RegisterAccount(ctx, "Otra Ana", "a@x.com", "p2", "")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	after, err := kv.Get(ctx, store.KeyAccounts)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRegisterAccount_EmailIsCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)
	_, err = s.RegisterAccount(ctx, "Ana", "A@x.com", "p1", "")
	require.NoError(t, err)

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRegisterAccount_NoDuplicatesAcrossSequence(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	emails := []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "b@x.com", "a@x.com"}
	for _, e := range emails {
		_, _ = s.RegisterAccount(ctx, "n", e, "p", "")
	}

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range all {
		assert.False(t, seen[a.Email], "duplicate email %s", a.Email)
		seen[a.Email] = true
	}
	assert.Len(t, all, 3)
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.StartSession(ctx, "a@x.com"))
	sess, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.Email)

	// A second login replaces the first
	require.NoError(t, s.StartSession(ctx, "b@x.com"))
	sess, err = s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", sess.Email)

	require.NoError(t, s.EndSession(ctx))
	_, err = s.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// Ending twice is harmless
	assert.NoError(t, s.EndSession(ctx))
}

func TestSession_DoesNotRequireAccount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx, "ghost@x.com"))
	sess, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghost@x.com", sess.Email)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)

	acct, err := s.Authenticate(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", acct.Name)

	sess, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.Email)
}

func TestAuthenticate_WrongPasswordKeepsSessionUnset(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthenticate_FailureKeepsExistingSession(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)
	_, err = s.RegisterAccount(ctx, "Bea", "b@x.com", "p2", "")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "b@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.Email)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Authenticate(context.Background(), "nobody@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindAccount(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterAccount(ctx, "Ana", "a@x.com", "p1", "")
	require.NoError(t, err)

	acct, err := s.FindAccount(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", acct.Name)

	_, err = s.FindAccount(ctx, "b@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccounts_ReadsStoredJSONLayout(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	raw := `[{"name":"Ana","email":"a@x.com","password":"p1","role":"estudiante"}]`
	require.NoError(t, kv.Set(ctx, store.KeyAccounts, []byte(raw)))
	require.NoError(t, kv.Set(ctx, store.KeySession, []byte(`{"email":"a@x.com"}`)))

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "p1", all[0].Password)

	sess, err := s.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.Email)
}
