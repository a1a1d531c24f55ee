package accounts

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// Length limits in characters
const (
	UsernameMinLength = 2
	UsernameMaxLength = 64
	PasswordMinLength = 8
	PasswordMaxLength = 64
	FullNameMaxLength = 128
)

// reservedUsernames collide with fixed routes below /users/
var reservedUsernames = []string{"me", "signup"}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return auth.Validation(
			"username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength,
		)
	}
	if strings.ContainsFunc(username, func(r rune) bool { return r == '/' || unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return auth.Validation("username must not contain whitespace or '/'")
	}
	if slices.Contains(reservedUsernames, username) {
		return auth.Validation("username '%s' is reserved", username)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return auth.Validation(
			"password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength,
		)
	}
	return nil
}

func validateFullName(fullName *string) error {
	if fullName != nil && utf8.RuneCountInString(*fullName) > FullNameMaxLength {
		return auth.Validation("full_name must be at most %d characters", FullNameMaxLength)
	}
	return nil
}

func validateUpdate(update model.UserUpdate) error {
	if update.Password.IsSet() {
		if update.Password.IsNull() {
			return auth.Validation("password must not be null")
		}
		password, _ := update.Password.Get()
		if err := validatePassword(password); err != nil {
			return err
		}
	}
	if update.IsActive.IsNull() {
		return auth.Validation("is_active must not be null")
	}
	fullName, _ := update.FullName.Get()
	return validateFullName(fullName)
}

// ParseUserUpdate decodes a json patch document. Keys other than full_name,
// password and is_active are rejected.
func ParseUserUpdate(body []byte) (model.UserUpdate, error) {
	var update model.UserUpdate
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		return update, auth.Validation("invalid update: %s", err.Error())
	}
	if dec.More() {
		return update, auth.Validation("invalid update: trailing data")
	}
	return update, nil
}
