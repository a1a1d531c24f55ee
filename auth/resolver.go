package auth

import (
	"context"
	"strings"

	"github.com/go-oidfed/gatehouse/storage/model"
)

// BearerToken extracts the credential from an Authorization header value
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", Unauthenticated("Not authenticated")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", Unauthenticated("Not authenticated")
	}
	return token, nil
}

// SessionResolver turns access tokens into the users they were issued for.
// The user is looked up on every call, so deletions and deactivations take
// effect before the token expires.
type SessionResolver struct {
	codec *TokenCodec
	users model.UserStore
}

// NewSessionResolver creates a SessionResolver
func NewSessionResolver(codec *TokenCodec, users model.UserStore) *SessionResolver {
	return &SessionResolver{
		codec: codec,
		users: users,
	}
}

// Resolve returns the user token was issued for
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := r.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	u, err := r.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// RequireActive returns ErrInactiveUser for inactive users. Superusers are
// not exempt.
func RequireActive(u *model.User) error {
	if !u.IsActive {
		return ErrInactiveUser
	}
	return nil
}

// ResolveActive resolves the bearer credential in an Authorization header
// value to an active user
func (r *SessionResolver) ResolveActive(ctx context.Context, header string) (*model.User, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	u, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err = RequireActive(u); err != nil {
		return nil, err
	}
	return u, nil
}
