package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:               "roles",
		Short:             "Manage roles and permissions",
		PersistentPreRunE: initServices,
	}
	c.AddCommand(&cobra.Command{
		Use:   "sync-perms",
		Short: "Materialize the scope enumeration as permission rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := svc.Users.SyncPermissions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("synced permissions, %d created\n", created)
			return nil
		},
	})
	return c
}
