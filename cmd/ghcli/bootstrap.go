package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-oidfed/gatehouse/accounts"
	"github.com/go-oidfed/gatehouse/cmd/gatehouse/config"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Creates the initial admin user",
	Long: `Creates the initial superuser. The username and password are taken from the
bootstrap section of the config; a missing password is prompted for. An
existing user is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	svc, backs, err := loadService()
	if err != nil {
		return err
	}
	defer backs.Close()

	admin := config.Get().Bootstrap.Admin()
	if admin.Username == "" {
		admin.Username = accounts.DefaultAdminUsername
	}
	if admin.Password == "" {
		if admin.Password, err = newPassword(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}
	created, err := svc.Bootstrap(cmd.Context(), admin)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "created admin user '%s'\n", admin.Username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "user '%s' already exists, nothing to do\n", admin.Username)
	}
	return nil
}
