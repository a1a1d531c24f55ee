package auth

import (
	"github.com/go-oidfed/gatehouse/storage/model"
)

// The policy functions below are evaluated after a session was resolved to
// an active user (the actor). They return nil when the operation is allowed
// and an Error of KindInsufficientRole otherwise.

var errNotEnoughPrivileges = InsufficientRole("The user doesn't have enough privileges")

// CanViewSelf allows every active user to view their own profile
func CanViewSelf(*model.User) error {
	return nil
}

// CanViewUser allows viewing the user with the given username to that user
// and to superusers
func CanViewUser(actor *model.User, username string) error {
	if actor.Username == username || actor.IsSuperuser {
		return nil
	}
	return errNotEnoughPrivileges
}

// CanListUsers allows superusers to list all users
func CanListUsers(actor *model.User) error {
	if actor.IsSuperuser {
		return nil
	}
	return errNotEnoughPrivileges
}

// CanRegister allows anyone to self-register. Registered accounts are
// always active and never superusers.
func CanRegister() error {
	return nil
}

// CanCreateUser allows superusers to create users with arbitrary flags
func CanCreateUser(actor *model.User) error {
	if actor.IsSuperuser {
		return nil
	}
	return errNotEnoughPrivileges
}

// CanUpdateUser allows users to update themselves and superusers to update
// anyone. Changing the active flag requires a superuser, and superusers
// cannot deactivate themselves.
func CanUpdateUser(actor, target *model.User, update model.UserUpdate) error {
	self := actor.ID == target.ID
	if !self && !actor.IsSuperuser {
		return errNotEnoughPrivileges
	}
	active, set := update.IsActive.Get()
	if !set {
		return nil
	}
	if !actor.IsSuperuser {
		return InsufficientRole("Only superusers can change the active state of a user")
	}
	if self && !active {
		return InsufficientRole("Super users are not allowed to deactivate themselves")
	}
	return nil
}

// CanDeleteUser allows superusers to delete users other than themselves
func CanDeleteUser(actor, target *model.User) error {
	if !actor.IsSuperuser {
		return errNotEnoughPrivileges
	}
	if actor.ID == target.ID {
		return InsufficientRole("Super users are not allowed to delete themselves")
	}
	return nil
}
