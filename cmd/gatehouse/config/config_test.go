package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidfed/gatehouse/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envSecretKey, envAlgorithm, envAccessTokenExpireMinutes} {
		t.Setenv(k, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearAuthEnv(t)
	conf, err := Parse(
		[]byte(`
auth:
  secret_key: ` + testSecret + `
storage:
  data_dir: /tmp
`),
	)
	require.NoError(t, err)
	assert.Equal(t, 7672, conf.Server.Port)
	assert.Equal(t, "HS256", conf.Auth.Algorithm)
	assert.Equal(t, 30*time.Minute, conf.Auth.AccessTokenLifetime.Duration())
	assert.Equal(t, storage.DriverSQLite, conf.Storage.Driver)
	assert.Equal(t, "INFO", conf.Logging.Internal.Level)
	assert.Equal(t, "admin", conf.Bootstrap.Username)
	assert.False(t, conf.Bootstrap.Enabled)
	assert.True(t, conf.API.Docs)
	assert.EqualValues(t, 64*1024, conf.PasswordHashing.MemoryKiB)
	assert.Equal(t, []byte(testSecret), conf.Auth.Secret())
}

func TestParseFull(t *testing.T) {
	clearAuthEnv(t)
	conf, err := Parse(
		[]byte(`
server:
  port: 8080
auth:
  secret_key: ` + testSecret + `
  algorithm: HS512
  access_token_lifetime: 1h
password_hashing:
  time: 3
storage:
  driver: postgres
  host: db.example.org
  user: gh
  password: pw
  db: accounts
bootstrap:
  enabled: true
  username: root
  password: root-password
api:
  public_url: https://auth.example.org
`),
	)
	require.NoError(t, err)
	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, "HS512", conf.Auth.Algorithm)
	assert.Equal(t, time.Hour, conf.Auth.AccessTokenLifetime.Duration())
	assert.EqualValues(t, 3, conf.PasswordHashing.Time)
	assert.EqualValues(t, 64*1024, conf.PasswordHashing.MemoryKiB)
	assert.Equal(
		t, "host=db.example.org user=gh password=pw dbname=accounts port=5432", conf.Storage.DSN,
	)
	assert.Equal(t, "root", conf.Bootstrap.Admin().Username)
	assert.Equal(t, "root-password", conf.Bootstrap.Admin().Password)
	assert.Equal(t, "https://auth.example.org", conf.API.PublicURL)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv(envSecretKey, "env-secret-env-secret-env-secret-env")
	t.Setenv(envAlgorithm, "HS384")
	t.Setenv(envAccessTokenExpireMinutes, "5")

	conf, err := Parse([]byte("storage:\n  data_dir: /tmp\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-secret-env-secret-env-secret-env", conf.Auth.SecretKey)
	assert.Equal(t, "HS384", conf.Auth.Algorithm)
	assert.Equal(t, 5*time.Minute, conf.Auth.AccessTokenLifetime.Duration())

	t.Setenv(envAccessTokenExpireMinutes, "soon")
	_, err = Parse([]byte("storage:\n  data_dir: /tmp\n"))
	assert.Error(t, err)
}

func TestParseSecretFile(t *testing.T) {
	clearAuthEnv(t)
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte(testSecret+"\n"), 0o600))

	conf, err := Parse([]byte("auth:\n  secret_key_file: " + path + "\nstorage:\n  data_dir: /tmp\n"))
	require.NoError(t, err)
	assert.Equal(t, testSecret, conf.Auth.SecretKey)
}

func TestParseInvalid(t *testing.T) {
	clearAuthEnv(t)
	tests := map[string]string{
		"missing secret":    "storage:\n  data_dir: /tmp\n",
		"short secret":      "auth:\n  secret_key: short\nstorage:\n  data_dir: /tmp\n",
		"asymmetric alg":    "auth:\n  secret_key: " + testSecret + "\n  algorithm: RS256\nstorage:\n  data_dir: /tmp\n",
		"sqlite no dir":     "auth:\n  secret_key: " + testSecret + "\n",
		"unknown driver":    "auth:\n  secret_key: " + testSecret + "\nstorage:\n  driver: oracle\n",
		"bootstrap no pass": "auth:\n  secret_key: " + testSecret + "\nstorage:\n  data_dir: /tmp\nbootstrap:\n  enabled: true\n",
		"bad log level":     "auth:\n  secret_key: " + testSecret + "\nstorage:\n  data_dir: /tmp\nlogging:\n  internal:\n    level: LOUD\n",
		"missing log dir":   "auth:\n  secret_key: " + testSecret + "\nstorage:\n  data_dir: /tmp\nlogging:\n  access:\n    dir: /does/not/exist\n",
		"weak hashing":      "auth:\n  secret_key: " + testSecret + "\nstorage:\n  data_dir: /tmp\npassword_hashing:\n  time: 0\n",
		"not yaml":          "auth: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}
