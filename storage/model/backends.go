package model

import "io"

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Users UserStore
	// Closer releases the underlying database, may be nil
	Closer io.Closer
}

// Close releases the storage resources
func (b Backends) Close() error {
	if b.Closer == nil {
		return nil
	}
	return b.Closer.Close()
}
