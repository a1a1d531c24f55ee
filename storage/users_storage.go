package storage

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/go-oidfed/gatehouse/storage/model"
)

// UsersStorage implements model.UserStore using GORM
type UsersStorage struct {
	db *gorm.DB
}

// Count returns the number of users present in the store
func (s *UsersStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

// List returns users ordered by id
func (s *UsersStorage) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

// FindByUsername returns a user by username
func (s *UsersStorage) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.first(ctx, "username = ?", username)
}

// FindByID returns a user by id
func (s *UsersStorage) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UsersStorage) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find user")
	}
	return &u, nil
}

// Insert creates a user; the username must not be taken
func (s *UsersStorage) Insert(ctx context.Context, u *model.User) (*model.User, error) {
	rec := *u
	rec.ID = 0
	err := s.db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			var existing int64
			if err := tx.Model(&model.User{}).Where("username = ?", rec.Username).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return model.AlreadyExistsErrorFmt("user already exists: %s", rec.Username)
			}
			return tx.Create(&rec).Error
		},
	)
	if err != nil {
		var exists model.AlreadyExistsError
		if errors.As(err, &exists) {
			return nil, exists
		}
		// the unique index catches concurrent inserts that passed the check above
		if isDuplicateKeyError(err) {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", rec.Username)
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return &rec, nil
}

// Update saves full name, password hash and active flag of an existing user
func (s *UsersStorage) Update(ctx context.Context, u *model.User) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Updates(
		map[string]any{
			"full_name":     u.FullName,
			"password_hash": u.PasswordHash,
			"is_active":     u.IsActive,
			"updated_at":    time.Now(),
		},
	)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update user")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user not found: %d", u.ID)
	}
	return nil
}

// Delete deletes a user by id
func (s *UsersStorage) Delete(ctx context.Context, u *model.User) error {
	res := s.db.WithContext(ctx).Delete(&model.User{}, u.ID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete user")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("user not found: %d", u.ID)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
