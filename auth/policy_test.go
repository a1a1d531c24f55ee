package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-oidfed/gatehouse/storage/model"
)

var (
	policyAdmin = &model.User{ID: 1, Username: "admin", IsActive: true, IsSuperuser: true}
	policyAlice = &model.User{ID: 2, Username: "alice", IsActive: true}
	policyBob   = &model.User{ID: 3, Username: "bob", IsActive: true}
)

func assertAllowed(t *testing.T, err error) {
	t.Helper()
	assert.NoError(t, err)
}

func assertDenied(t *testing.T, err error) {
	t.Helper()
	assert.Equal(t, KindInsufficientRole, KindOf(err))
}

func TestCanView(t *testing.T) {
	assertAllowed(t, CanViewSelf(policyAlice))
	assertAllowed(t, CanViewUser(policyAlice, "alice"))
	assertDenied(t, CanViewUser(policyAlice, "bob"))
	assertDenied(t, CanViewUser(policyAlice, "Alice"))
	assertAllowed(t, CanViewUser(policyAdmin, "bob"))
	assertAllowed(t, CanViewUser(policyAdmin, "does-not-exist"))
}

func TestCanListAndCreate(t *testing.T) {
	assertAllowed(t, CanRegister())
	assertAllowed(t, CanListUsers(policyAdmin))
	assertDenied(t, CanListUsers(policyAlice))
	assertAllowed(t, CanCreateUser(policyAdmin))
	assertDenied(t, CanCreateUser(policyAlice))
}

func TestCanUpdateUser(t *testing.T) {
	name := "Alice"
	tests := []struct {
		name    string
		actor   *model.User
		target  *model.User
		update  model.UserUpdate
		allowed bool
	}{
		{
			name:    "self full name",
			actor:   policyAlice,
			target:  policyAlice,
			update:  model.UserUpdate{FullName: model.Set(&name)},
			allowed: true,
		},
		{
			name:    "self password",
			actor:   policyAlice,
			target:  policyAlice,
			update:  model.UserUpdate{Password: model.Set("new-password")},
			allowed: true,
		},
		{
			name:   "other user",
			actor:  policyAlice,
			target: policyBob,
			update: model.UserUpdate{FullName: model.Set(&name)},
		},
		{
			name:   "self reactivation by non admin",
			actor:  policyAlice,
			target: policyAlice,
			update: model.UserUpdate{IsActive: model.Set(true)},
		},
		{
			name:    "admin updates other",
			actor:   policyAdmin,
			target:  policyBob,
			update:  model.UserUpdate{Password: model.Set("new-password")},
			allowed: true,
		},
		{
			name:    "admin deactivates other",
			actor:   policyAdmin,
			target:  policyBob,
			update:  model.UserUpdate{IsActive: model.Set(false)},
			allowed: true,
		},
		{
			name:   "admin deactivates self",
			actor:  policyAdmin,
			target: policyAdmin,
			update: model.UserUpdate{IsActive: model.Set(false)},
		},
		{
			name:    "admin keeps self active",
			actor:   policyAdmin,
			target:  policyAdmin,
			update:  model.UserUpdate{IsActive: model.Set(true)},
			allowed: true,
		},
		{
			name:    "empty update of self",
			actor:   policyAlice,
			target:  policyAlice,
			allowed: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := CanUpdateUser(test.actor, test.target, test.update)
			if test.allowed {
				assertAllowed(t, err)
			} else {
				assertDenied(t, err)
			}
		})
	}
}

func TestCanDeleteUser(t *testing.T) {
	assertAllowed(t, CanDeleteUser(policyAdmin, policyBob))
	assertDenied(t, CanDeleteUser(policyAdmin, policyAdmin))
	assertDenied(t, CanDeleteUser(policyAlice, policyBob))
	assertDenied(t, CanDeleteUser(policyAlice, policyAlice))
}
