package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/go-oidfed/gatehouse/auth"
)

// Environment variables overriding the auth configuration
const (
	envSecretKey                = "SECRET_KEY"
	envAlgorithm                = "ALGORITHM"
	envAccessTokenExpireMinutes = "ACCESS_TOKEN_EXPIRE_MINUTES"
)

// authConf configures access token signing under the `auth` key.
//
// YAML example:
//
//	auth:
//	  secret_key_file: /etc/gatehouse/secret
//	  algorithm: HS256
//	  access_token_lifetime: 30m
type authConf struct {
	SecretKey           string                  `yaml:"secret_key"`
	SecretKeyFile       string                  `yaml:"secret_key_file"`
	Algorithm           string                  `yaml:"algorithm"`
	AccessTokenLifetime duration.DurationOption `yaml:"access_token_lifetime"`
}

var defaultAuthConf = authConf{
	Algorithm:           "HS256",
	AccessTokenLifetime: duration.DurationOption(auth.DefaultAccessTokenLifetime),
}

func (a *authConf) applyEnv(getenv func(string) string) error {
	if v := getenv(envSecretKey); v != "" {
		a.SecretKey = v
	}
	if v := getenv(envAlgorithm); v != "" {
		a.Algorithm = v
	}
	if v := getenv(envAccessTokenExpireMinutes); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return errors.Errorf("%s must be a positive number of minutes", envAccessTokenExpireMinutes)
		}
		a.AccessTokenLifetime = duration.DurationOption(time.Duration(minutes) * time.Minute)
	}
	return nil
}

func (a *authConf) validate() error {
	if a.SecretKey == "" && a.SecretKeyFile != "" {
		data, err := os.ReadFile(a.SecretKeyFile)
		if err != nil {
			return errors.Wrap(err, "error in auth conf: could not read secret_key_file")
		}
		a.SecretKey = strings.TrimSpace(string(data))
	}
	if a.SecretKey == "" {
		return errors.Errorf("error in auth conf: secret_key must be set (or %s)", envSecretKey)
	}
	if len(a.SecretKey) < auth.MinSecretLength {
		return errors.Errorf("error in auth conf: secret_key must be at least %d bytes", auth.MinSecretLength)
	}
	if _, err := auth.LookupAlgorithm(a.Algorithm); err != nil {
		return errors.Wrap(err, "error in auth conf")
	}
	if a.AccessTokenLifetime.Duration() <= 0 {
		return errors.New("error in auth conf: access_token_lifetime must be positive")
	}
	return nil
}

// Secret returns the token signing secret
func (a authConf) Secret() []byte {
	return []byte(a.SecretKey)
}
