package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-oidfed/gatehouse/accounts"
)

// bootstrapConf configures the initial admin user under the `bootstrap` key.
// When enabled, the server creates the user on start unless it already exists.
type bootstrapConf struct {
	Enabled      bool    `yaml:"enabled"`
	Username     string  `yaml:"username"`
	Password     string  `yaml:"password"`
	PasswordFile string  `yaml:"password_file"`
	FullName     *string `yaml:"full_name"`
}

var defaultBootstrapConf = bootstrapConf{
	Username: accounts.DefaultAdminUsername,
}

func (b *bootstrapConf) validate() error {
	if b.Password == "" && b.PasswordFile != "" {
		data, err := os.ReadFile(b.PasswordFile)
		if err != nil {
			return errors.Wrap(err, "error in bootstrap conf: could not read password_file")
		}
		b.Password = strings.TrimSpace(string(data))
	}
	if b.Enabled && b.Password == "" {
		return errors.New("error in bootstrap conf: password or password_file must be set when enabled")
	}
	return nil
}

// Admin returns the accounts.BootstrapAdmin described by the config
func (b bootstrapConf) Admin() accounts.BootstrapAdmin {
	return accounts.BootstrapAdmin{
		Username: b.Username,
		Password: b.Password,
		FullName: b.FullName,
	}
}
