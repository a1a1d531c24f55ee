// Package testutil provides stores and token helpers shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/go-oidfed/gatehouse/storage"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// Secret is a signing secret long enough to pass configuration validation.
const Secret = "test-secret-that-is-at-least-32-bytes-long"

// OpenSQLiteStore opens a fresh in-memory SQLite user store named after the
// running test.
func OpenSQLiteStore(t *testing.T) model.UserStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	s, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		},
	)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s.UsersStorage()
}

// OpenBadgerStore opens a fresh in-memory badger user store.
func OpenBadgerStore(t *testing.T) model.UserStore {
	t.Helper()
	s, err := storage.NewBadgerUsersStorage(storage.InMemoryDSN)
	if err != nil {
		t.Fatalf("open badger store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// StoreFactories lists every store backend so tests can run against each.
var StoreFactories = map[string]func(t *testing.T) model.UserStore{
	"sqlite": OpenSQLiteStore,
	"badger": OpenBadgerStore,
}

// MintToken signs claims with an independent JWT library.
func MintToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// MintHS256 returns an HS256 token for subject expiring after ttl.
// A negative ttl produces an already expired token.
func MintHS256(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	return MintToken(
		t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": subject,
			"iat": now.Unix(),
			"exp": now.Add(ttl).Unix(),
		},
	)
}

// UnsignedToken returns an alg=none token carrying claims.
func UnsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}
	return s
}
