package model

import (
	"bytes"
	"encoding/json"

	"github.com/fatih/structs"
)

// Field is an optional value in a partial update. A Field is either unset
// (the zero value) or set to a value, which may itself be a zero value.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set returns a Field set to v
func Set[T any](v T) Field[T] {
	return Field[T]{
		value: v,
		set:   true,
	}
}

// Get returns the value and whether the field was set
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field was set
func (f Field[T]) IsSet() bool {
	return f.set
}

// IsNull reports whether the field was set from a JSON null
func (f Field[T]) IsNull() bool {
	return f.null
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// A key that is present marks the field as set, also when its value is null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = v
	f.set = true
	f.null = string(bytes.TrimSpace(data)) == "null"
	return nil
}

// UserUpdate is a partial update of a User. Username, id and role flags are
// not part of it and cannot be changed this way.
type UserUpdate struct {
	FullName Field[*string] `json:"full_name"`
	Password Field[string]  `json:"password"`
	IsActive Field[bool]    `json:"is_active"`
}

// SetFields returns the json names of all fields that are set
func (u UserUpdate) SetFields() []string {
	var names []string
	for _, f := range structs.New(u).Fields() {
		if f.IsZero() {
			continue
		}
		names = append(names, f.Tag("json"))
	}
	return names
}
