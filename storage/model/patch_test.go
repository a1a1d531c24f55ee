package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUpdateUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		fullName  bool
		password  bool
		isActive  bool
		setFields []string
	}{
		{
			name: "empty",
			body: `{}`,
		},
		{
			name:      "full name only",
			body:      `{"full_name":"Alice"}`,
			fullName:  true,
			setFields: []string{"full_name"},
		},
		{
			name:      "explicit null clears full name",
			body:      `{"full_name":null}`,
			fullName:  true,
			setFields: []string{"full_name"},
		},
		{
			name:      "false is a value",
			body:      `{"is_active":false,"password":"new-password"}`,
			password:  true,
			isActive:  true,
			setFields: []string{"password", "is_active"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var u UserUpdate
			require.NoError(t, json.Unmarshal([]byte(test.body), &u))
			assert.Equal(t, test.fullName, u.FullName.IsSet())
			assert.Equal(t, test.password, u.Password.IsSet())
			assert.Equal(t, test.isActive, u.IsActive.IsSet())
			assert.Equal(t, test.setFields, u.SetFields())
		})
	}
}

func TestFieldNull(t *testing.T) {
	var u UserUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"full_name":null,"is_active":true}`), &u))

	name, set := u.FullName.Get()
	assert.True(t, set)
	assert.True(t, u.FullName.IsNull())
	assert.Nil(t, name)

	active, set := u.IsActive.Get()
	assert.True(t, set)
	assert.False(t, u.IsActive.IsNull())
	assert.True(t, active)
}

func TestSetField(t *testing.T) {
	f := Set(false)
	v, ok := f.Get()
	assert.True(t, ok)
	assert.False(t, v)

	var unset Field[bool]
	assert.False(t, unset.IsSet())
}
