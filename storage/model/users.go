package model

import (
	"context"
	"time"
)

// User is a persisted account.
// Username is the login identifier and never changes after creation.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id" msgpack:"id"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`

	// Username is the unique, case-sensitive identifier for login
	Username string `gorm:"uniqueIndex;size:64;not null" json:"username" msgpack:"username"`
	// FullName is optional, for display purposes
	FullName *string `gorm:"size:128" json:"full_name" msgpack:"full_name"`
	// PasswordHash stores a PHC-formatted hash of the user's password
	PasswordHash string `gorm:"size:255;not null" json:"-" msgpack:"password_hash"`
	// IsActive false keeps the account but denies every session
	IsActive bool `gorm:"not null" json:"is_active" msgpack:"is_active"`
	// IsSuperuser grants administrative rights
	IsSuperuser bool `gorm:"not null" json:"is_superuser" msgpack:"is_superuser"`
}

// UserStore abstracts persistence of user accounts.
// Find* return nil, nil when no record matches.
type UserStore interface {
	// FindByUsername returns the user with the given username
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByID returns the user with the given id
	FindByID(ctx context.Context, id uint) (*User, error)
	// Insert stores a new user and returns it with its assigned id;
	// an AlreadyExistsError is returned if the username is taken
	Insert(ctx context.Context, u *User) (*User, error)
	// Update saves all mutable fields of an existing user
	Update(ctx context.Context, u *User) error
	// Delete removes the user
	Delete(ctx context.Context, u *User) error
	// List returns users ordered by id
	List(ctx context.Context, offset, limit int) ([]User, error)
	// Count returns the number of stored users
	Count(ctx context.Context) (int64, error)
}
