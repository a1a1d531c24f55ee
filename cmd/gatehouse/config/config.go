// Package config loads and validates the gatehouse server configuration.
package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/go-oidfed/gatehouse"
	"github.com/go-oidfed/gatehouse/auth"
)

// Config holds the configuration for gatehouse
type Config struct {
	Server          gatehouse.ServerConf `yaml:"server"`
	Auth            authConf             `yaml:"auth"`
	PasswordHashing auth.Argon2idParams  `yaml:"password_hashing"`
	Storage         storageConf          `yaml:"storage"`
	Logging         loggingConf          `yaml:"logging"`
	Bootstrap       bootstrapConf        `yaml:"bootstrap"`
	API             apiConf              `yaml:"api"`
}

var c *Config

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/gatehouse/config",
	"/gatehouse",
	"/data/config",
	"/data",
	"/etc/gatehouse",
}

func defaultConfig() *Config {
	return &Config{
		Server:          defaultServerConf,
		Auth:            defaultAuthConf,
		PasswordHashing: auth.DefaultArgon2idParams(),
		Storage:         defaultStorageConf,
		Logging:         defaultLoggingConf,
		Bootstrap:       defaultBootstrapConf,
		API:             defaultAPIConf,
	}
}

var defaultServerConf = gatehouse.ServerConf{
	Port: 7672,
}

// Get returns the Config
func Get() *Config {
	return c
}

// Load reads the config file and populates the Config. If filename is
// empty, config.yaml is searched in the usual locations.
func Load(filename string) {
	data, err := readConfigFile(filename)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	c, err = Parse(data)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
}

func readConfigFile(filename string) ([]byte, error) {
	if filename != "" {
		return os.ReadFile(filename)
	}
	for _, dir := range possibleConfigLocations {
		path := dir + "/config.yaml"
		if fileutils.FileExists(path) {
			log.WithField("file", path).Debug("found config file")
			return os.ReadFile(path)
		}
	}
	return nil, errors.New("could not find config file in any of the possible locations")
}

// Parse parses yaml data into a Config with defaults applied, environment
// overrides applied, and validates it
func Parse(data []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if err := conf.Auth.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) validate() error {
	if conf.Server.Port <= 0 && !conf.Server.TLS.Enabled {
		return errors.New("error in server conf: port must be set")
	}
	if conf.Server.TLS.Enabled && (conf.Server.TLS.Cert == "" || conf.Server.TLS.Key == "") {
		return errors.New("error in server conf: tls requires cert and key")
	}
	if err := conf.Auth.validate(); err != nil {
		return err
	}
	if err := conf.PasswordHashing.Validate(); err != nil {
		return errors.Wrap(err, "error in password_hashing conf")
	}
	if err := conf.Storage.validate(); err != nil {
		return err
	}
	if err := conf.Logging.validate(); err != nil {
		return err
	}
	return conf.Bootstrap.validate()
}
