package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidfed/gatehouse/internal/testutil"
	"github.com/go-oidfed/gatehouse/storage/model"
)

func insertUser(t *testing.T, store model.UserStore, h PasswordHasher, u model.User, password string) *model.User {
	t.Helper()
	hash, err := h.Hash(password)
	require.NoError(t, err)
	u.PasswordHash = hash
	created, err := store.Insert(t.Context(), &u)
	require.NoError(t, err)
	return created
}

func TestAuthenticator(t *testing.T) {
	for name, open := range testutil.StoreFactories {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			h := newTestHasher(t)
			alice := insertUser(t, store, h, model.User{Username: "alice", IsActive: true}, "alice-password")
			insertUser(t, store, h, model.User{Username: "sleepy", IsActive: false}, "sleepy-password")

			a, err := NewAuthenticator(store, h)
			require.NoError(t, err)

			u, err := a.Authenticate(t.Context(), "alice", "alice-password")
			require.NoError(t, err)
			assert.Equal(t, alice.ID, u.ID)

			_, wrongPassword := a.Authenticate(t.Context(), "alice", "not-her-password")
			_, unknownUser := a.Authenticate(t.Context(), "mallory", "alice-password")
			assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
			assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
			assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

			_, err = a.Authenticate(t.Context(), "Alice", "alice-password")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			inactive, err := a.Authenticate(t.Context(), "sleepy", "sleepy-password")
			require.NoError(t, err)
			assert.False(t, inactive.IsActive)
		})
	}
}

func TestAuthenticatorDoesNotModifyStore(t *testing.T) {
	store := testutil.OpenSQLiteStore(t)
	legacy, err := NewArgon2idHasher(
		Argon2idParams{
			Time:        2,
			MemoryKiB:   32,
			Parallelism: 1,
			KeyLen:      32,
			SaltLen:     16,
		},
	)
	require.NoError(t, err)
	created := insertUser(t, store, legacy, model.User{Username: "alice", IsActive: true}, "alice-password")

	a, err := NewAuthenticator(store, newTestHasher(t))
	require.NoError(t, err)
	_, err = a.Authenticate(t.Context(), "alice", "alice-password")
	require.NoError(t, err)

	stored, err := store.FindByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PasswordHash, stored.PasswordHash)
}
