package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-oidfed/gatehouse/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Prints the argon2id hash of a password",
	Long: `Reads a password and prints its argon2id hash in PHC format, using the
default cost parameters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		hasher, err := auth.NewArgon2idHasher(auth.DefaultArgon2idParams())
		if err != nil {
			return err
		}
		password, err := newPassword(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
