package auth

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/storage/model"
)

const dummyPassword = "gatehouse-timing-equalizer"

// Authenticator verifies username and password pairs against the user store
type Authenticator struct {
	users     model.UserStore
	hasher    PasswordHasher
	dummyHash string
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(users model.UserStore, hasher PasswordHasher) (*Authenticator, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare dummy hash")
	}
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
	}, nil
}

// Authenticate returns the user identified by username if password matches.
// An unknown username and a wrong password both give ErrInvalidCredentials.
// The active flag is not checked here.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// same amount of hashing work as for an existing user
		a.hasher.Verify(password, a.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !a.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if r, ok := a.hasher.(interface{ NeedsRehash(string) bool }); ok && r.NeedsRehash(u.PasswordHash) {
		log.WithField("username", u.Username).Debug("stored password hash uses outdated parameters")
	}
	return u, nil
}
