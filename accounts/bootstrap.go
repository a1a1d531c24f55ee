package accounts

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// DefaultAdminUsername is the username of the bootstrapped admin if none is configured
const DefaultAdminUsername = "admin"

// BootstrapAdmin describes the initial superuser
type BootstrapAdmin struct {
	Username string
	Password string
	FullName *string
}

// Bootstrap creates the initial superuser unless a user with that username
// already exists. An existing user is never modified. It reports whether a
// user was created.
func (s *Service) Bootstrap(ctx context.Context, admin BootstrapAdmin) (bool, error) {
	if admin.Username == "" {
		admin.Username = DefaultAdminUsername
	}
	if admin.Password == "" {
		return false, errors.New("no password given for the initial admin user")
	}
	u, err := s.insert(ctx, admin.Username, admin.Password, admin.FullName, true, true)
	if err != nil {
		if auth.KindOf(err) == auth.KindDuplicateUsername {
			log.WithField("username", admin.Username).Info("bootstrap skipped, user already exists")
			return false, nil
		}
		return false, err
	}
	log.WithField("username", u.Username).Info("bootstrapped initial admin user")
	return true, nil
}

// Provision creates a user on behalf of the operator, without an acting
// user. It is meant for command line tooling.
func (s *Service) Provision(ctx context.Context, nu NewUser) (*model.User, error) {
	active := true
	if nu.IsActive != nil {
		active = *nu.IsActive
	}
	u, err := s.insert(ctx, nu.Username, nu.Password, nu.FullName, active, nu.IsSuperuser)
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"username":     u.Username,
			"is_superuser": u.IsSuperuser,
		},
	).Info("provisioned user")
	return u, nil
}
