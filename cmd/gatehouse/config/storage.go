package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/storage"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// storageConf configures the credential store under the `storage` key.
//
// YAML example:
//
//	storage:
//	  driver: postgres
//	  host: db
//	  user: gatehouse
//	  password: secret
//	  db: gatehouse
type storageConf struct {
	storage.DSNConf `yaml:",inline"`

	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	Debug   bool               `yaml:"debug"`
}

func (c *storageConf) validate() error {
	switch c.Driver {
	case storage.DriverSQLite, storage.DriverBadger:
		if c.DataDir == "" && c.DSN == "" {
			return errors.Errorf("error in storage conf: data_dir or dsn must be specified for %s", c.Driver)
		}
		return nil
	case storage.DriverMySQL, storage.DriverPostgres:
		var err error
		if c.DSN == "" {
			c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
		}
		return err
	default:
		return errors.Errorf("error in storage conf: unsupported driver '%s'", c.Driver)
	}
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "gatehouse",
		Host: "localhost",
		DB:   "gatehouse",
	},
}

// LoadStorageBackends loads and returns the storage backends for the passed config
func LoadStorageBackends(c storageConf) (model.Backends, error) {
	backs, err := storage.LoadStorageBackends(
		storage.Config{
			Driver:  c.Driver,
			DSN:     c.DSN,
			DataDir: c.DataDir,
			Debug:   c.Debug,
		},
	)
	if err != nil {
		return model.Backends{}, err
	}
	log.WithField("driver", c.Driver).Info("Loaded storage backend")
	return backs, nil
}
