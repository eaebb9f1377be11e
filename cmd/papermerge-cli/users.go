package main

import (
	"fmt"

	"papermerge/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	c := &cobra.Command{
		Use:               "users",
		Short:             "Manage users",
		PersistentPreRunE: initServices,
	}
	c.AddCommand(newUsersCreateCmd())
	c.AddCommand(newUsersLsCmd())
	c.AddCommand(newUsersDeleteCmd())
	return c
}

func newUsersCreateCmd() *cobra.Command {
	var email, password string
	var superuser bool
	c := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user with home and inbox folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := services.WithSystemIdentity(cmd.Context())
			user, err := svc.Users.CreateUser(ctx, services.UserInput{
				Username:    args[0],
				Email:       email,
				Password:    password,
				IsSuperuser: superuser,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", "", "email address")
	c.Flags().StringVar(&password, "password", "", "login password")
	c.Flags().BoolVar(&superuser, "superuser", false, "grant every scope implicitly")
	return c
}

func newUsersLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, total, _, err := svc.Users.ListUsers(cmd.Context(), 1, 100)
			if err != nil {
				return err
			}
			for _, u := range users {
				flags := ""
				if u.IsSuperuser {
					flags = " [superuser]"
				}
				fmt.Printf("%s  %s%s\n", u.ID, u.Username, flags)
			}
			fmt.Printf("%d user(s)\n", total)
			return nil
		},
	}
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			ctx := services.WithSystemIdentity(cmd.Context())
			if err := svc.Users.DeleteUser(ctx, id); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}
