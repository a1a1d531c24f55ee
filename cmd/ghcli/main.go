package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/go-oidfed/gatehouse/accounts"
	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/cmd/gatehouse/config"
	"github.com/go-oidfed/gatehouse/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "ghcli",
	Short: "ghcli can help you manage your gatehouse",
	Long:  "ghcli can help you manage the user accounts of your gatehouse",
}

var configFile string

// loadService reads the config and opens the configured storage. The
// returned backends must be closed by the caller.
func loadService() (*accounts.Service, model.Backends, error) {
	config.Load(configFile)
	log.Println("Loaded Config")
	c := config.Get()

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		return nil, model.Backends{}, err
	}
	hasher, err := auth.NewArgon2idHasher(c.PasswordHashing)
	if err != nil {
		_ = backs.Close()
		return nil, model.Backends{}, err
	}
	return accounts.NewService(backs.Users, hasher), backs, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	rootCmd.AddCommand(bootstrapCmd, userCmd, hashPasswordCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
