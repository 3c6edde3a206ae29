package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/storefront/internal/store"
)

func newService(t *testing.T) (*Service, *SQLiteRepo) {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	repo := NewSQLiteRepo(s.DB())
	return NewService(repo, NewTokens("test-secret", time.Hour)), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, tok, err := svc.Register(ctx, "Ada", " Ada@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, tok)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	got, tok2, err := svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, tok2)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Other", "ADA@example.com", "secret2")
	assert.ErrorIs(t, err, ErrAlreadyExist)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := map[string][3]string{
		"missing name":   {"", "a@b.co", "secret1"},
		"bad email":      {"A", "not-an-email", "secret1"},
		"short password": {"A", "a@b.co", "123"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, c[0], c[1], c[2])
			var ie *InputError
			assert.True(t, errors.As(err, &ie), "got %v", err)
		})
	}
}

func TestVerifyAndResolve(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, tok, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	got, err := svc.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	id, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// valid signature, unknown account
	orphan, err := svc.tokens.Issue("no-such-user")
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, orphan)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokens_ExpiryAndSecret(t *testing.T) {
	tokens := NewTokens("k1", time.Minute)
	now := time.Now()
	tokens.now = func() time.Time { return now }

	raw, err := tokens.Issue("u1")
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	tokens.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.Error(t, err, "expired token must be rejected")

	other := NewTokens("k2", time.Minute)
	_, err = other.Parse(raw)
	assert.Error(t, err, "token signed with another secret must be rejected")
}
