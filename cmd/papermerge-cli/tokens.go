package main

import (
	"fmt"
	"strings"

	"papermerge/models"
	"papermerge/services"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	c := &cobra.Command{
		Use:               "tokens",
		Short:             "Manage API tokens",
		PersistentPreRunE: initServices,
	}
	c.AddCommand(newTokensCreateCmd())
	c.AddCommand(newTokensRevokeCmd())
	return c
}

func newTokensCreateCmd() *cobra.Command {
	var name, scopes string
	c := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an API token; the plaintext is printed once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := svc.Users.GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var scopeList []string
			if scopes != "" {
				scopeList = strings.Split(scopes, ",")
			}
			actor := services.Actor{User: user, Scopes: services.FullScopeSet()}
			created, err := svc.Auth.CreateToken(cmd.Context(), actor, user.ID, name, scopeList, nil)
			if err != nil {
				return err
			}
			fmt.Printf("token id:     %s\n", created.Token.ID)
			fmt.Printf("token prefix: %s\n", created.Token.TokenPrefix)
			fmt.Printf("plaintext:    %s\n", created.Plaintext)
			fmt.Println("store the plaintext now; it cannot be recovered")
			return nil
		},
	}
	c.Flags().StringVar(&name, "name", "cli", "token name")
	c.Flags().StringVar(&scopes, "scopes", "", "comma-separated scope subset")
	return c
}

func newTokensRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token-id>",
		Short: "Revoke an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid token id %q", args[0])
			}
			// CLI operators act with full rights.
			admin := services.Actor{User: models.User{IsSuperuser: true}, Scopes: services.FullScopeSet()}
			if err := svc.Auth.RevokeToken(cmd.Context(), admin, id); err != nil {
				return err
			}
			fmt.Println("revoked")
			return nil
		},
	}
}
