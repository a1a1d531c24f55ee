// Package accounts implements the user account operations on top of the
// credential store, guarded by the authorization policy in package auth.
package accounts

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// MaxListLimit is the maximal page size of List
const MaxListLimit = 100

// Registration is the input of a self-registration
type Registration struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// NewUser is the input for creating a user as an admin
type NewUser struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
}

// UserList is a page of users together with the total number of users
type UserList struct {
	Data  []model.User `json:"data"`
	Count int64        `json:"count"`
}

// Service implements the account operations
type Service struct {
	users  model.UserStore
	hasher auth.PasswordHasher
}

// NewService creates a new Service
func NewService(users model.UserStore, hasher auth.PasswordHasher) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
	}
}

// Me returns the actor's own profile
func (s *Service) Me(actor *model.User) (*model.User, error) {
	if err := auth.CanViewSelf(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// GetByUsername returns the user with the given username. The policy runs
// before the lookup, so callers without access cannot find out which usernames
// exist.
func (s *Service) GetByUsername(ctx context.Context, actor *model.User, username string) (*model.User, error) {
	if err := auth.CanViewUser(actor, username); err != nil {
		return nil, err
	}
	if actor.Username == username {
		return actor, nil
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.NotFound("The user with username '%s' does not exist", username)
	}
	return u, nil
}

// List returns a page of users ordered by id
func (s *Service) List(ctx context.Context, actor *model.User, offset, limit int) (*UserList, error) {
	if err := auth.CanListUsers(actor); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, auth.Validation("offset must not be negative")
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, auth.Validation("limit must be between 1 and %d", MaxListLimit)
	}
	users, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserList{
		Data:  users,
		Count: count,
	}, nil
}

// Register creates an active, non-privileged account
func (s *Service) Register(ctx context.Context, reg Registration) (*model.User, error) {
	if err := auth.CanRegister(); err != nil {
		return nil, err
	}
	u, err := s.insert(ctx, reg.Username, reg.Password, reg.FullName, true, false)
	if err != nil {
		return nil, err
	}
	log.WithField("username", u.Username).Info("user registered")
	return u, nil
}

// Create creates a user with the requested flags; is_active defaults to true
func (s *Service) Create(ctx context.Context, actor *model.User, nu NewUser) (*model.User, error) {
	if err := auth.CanCreateUser(actor); err != nil {
		return nil, err
	}
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
			"is_active":    u.IsActive,
			"actor":        actor.Username,
		},
	).Info("user created")
	return u, nil
}

func (s *Service) insert(
	ctx context.Context, username, password string, fullName *string, active, superuser bool,
) (*model.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, auth.DuplicateUsername(username)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Insert(
		ctx, &model.User{
			Username:     username,
			FullName:     fullName,
			PasswordHash: hash,
			IsActive:     active,
			IsSuperuser:  superuser,
		},
	)
	if err != nil {
		var exists model.AlreadyExistsError
		if errors.As(err, &exists) {
			return nil, auth.DuplicateUsername(username)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) findTarget(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.NotFound("The user with id %d does not exist", id)
	}
	return u, nil
}

// Update applies a partial update to the user with the given id. The update
// is validated before the target is looked up and the policy runs.
func (s *Service) Update(ctx context.Context, actor *model.User, id uint, update model.UserUpdate) (
	*model.User, error,
) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}
	target, err := s.findTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = auth.CanUpdateUser(actor, target, update); err != nil {
		return nil, err
	}
	if err = s.applyUpdate(target, update); err != nil {
		return nil, err
	}
	if err = s.users.Update(ctx, target); err != nil {
		var notFound model.NotFoundError
		if errors.As(err, &notFound) {
			return nil, auth.NotFound("The user with id %d does not exist", id)
		}
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"username": target.Username,
			"fields":   update.SetFields(),
			"actor":    actor.Username,
		},
	).Info("user updated")
	return target, nil
}

// applyUpdate merges the set fields of update into u; a new password is hashed
func (s *Service) applyUpdate(u *model.User, update model.UserUpdate) error {
	if fullName, ok := update.FullName.Get(); ok {
		u.FullName = fullName
	}
	if password, ok := update.Password.Get(); ok {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	if active, ok := update.IsActive.Get(); ok {
		u.IsActive = active
	}
	return nil
}

// Delete deletes the user with the given id
func (s *Service) Delete(ctx context.Context, actor *model.User, id uint) error {
	target, err := s.findTarget(ctx, id)
	if err != nil {
		return err
	}
	if err = auth.CanDeleteUser(actor, target); err != nil {
		return err
	}
	if err = s.users.Delete(ctx, target); err != nil {
		var notFound model.NotFoundError
		if errors.As(err, &notFound) {
			return auth.NotFound("The user with id %d does not exist", id)
		}
		return err
	}
	log.WithFields(
		log.Fields{
			"username": target.Username,
			"actor":    actor.Username,
		},
	).Info("user deleted")
	return nil
}
