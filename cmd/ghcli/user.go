package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-oidfed/gatehouse/accounts"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manages user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Creates a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userCreateFlags struct {
	fullName  string
	superuser bool
	inactive  bool
}

var userListFlags struct {
	offset int
	limit  int
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateFlags.fullName, "full-name", "", "full name of the user")
	userCreateCmd.Flags().BoolVar(&userCreateFlags.superuser, "superuser", false, "grant superuser privileges")
	userCreateCmd.Flags().BoolVar(&userCreateFlags.inactive, "inactive", false, "create the user deactivated")
	userListCmd.Flags().IntVar(&userListFlags.offset, "offset", 0, "number of users to skip")
	userListCmd.Flags().IntVar(&userListFlags.limit, "limit", accounts.MaxListLimit, "maximal number of users")
	userCmd.AddCommand(userCreateCmd, userListCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	svc, backs, err := loadService()
	if err != nil {
		return err
	}
	defer backs.Close()

	password, err := newPassword(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	active := !userCreateFlags.inactive
	nu := accounts.NewUser{
		Username:    args[0],
		Password:    password,
		IsActive:    &active,
		IsSuperuser: userCreateFlags.superuser,
	}
	if userCreateFlags.fullName != "" {
		nu.FullName = &userCreateFlags.fullName
	}
	u, err := svc.Provision(cmd.Context(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user '%s' with id %d\n", u.Username, u.ID)
	return nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	_, backs, err := loadService()
	if err != nil {
		return err
	}
	defer backs.Close()

	ctx := cmd.Context()
	users, err := backs.Users.List(ctx, userListFlags.offset, userListFlags.limit)
	if err != nil {
		return err
	}
	count, err := backs.Users.Count(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tFULL NAME\tACTIVE\tSUPERUSER")
	for _, u := range users {
		fullName := ""
		if u.FullName != nil {
			fullName = *u.FullName
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\n", u.ID, u.Username, fullName, u.IsActive, u.IsSuperuser)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(users), count)
	return nil
}
