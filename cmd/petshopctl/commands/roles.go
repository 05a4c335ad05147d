package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"petshop-manager/internal/adapters/storage/postgres"
	"petshop-manager/internal/ports/auth"
)

type roleChange func(r *postgres.RolesRepo, ctx context.Context, userID string, role auth.Role) error

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage application roles stored in the database",
	}
	cmd.AddCommand(
		roleChangeCmd("assign", "Grant a role to a user", (*postgres.RolesRepo).Assign),
		roleChangeCmd("revoke", "Remove a role from a user", (*postgres.RolesRepo).Revoke),
		roleShowCmd(),
	)
	return cmd
}

func roleChangeCmd(use, short string, change roleChange) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id> <admin|colaborador>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := auth.Role(args[1])
			if !role.IsValid() {
				return fmt.Errorf("role must be admin or colaborador (got %q)", args[1])
			}
			repo, err := rolesRepo(cmd)
			if err != nil {
				return err
			}
			if err := change(repo, cmd.Context(), args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", use, args[0], role)
			return nil
		},
	}
}

func roleShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print the stored role of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := rolesRepo(cmd)
			if err != nil {
				return err
			}
			role, ok, err := repo.RoleOf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no stored role, token claim applies\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], role)
			return nil
		},
	}
}

func rolesRepo(cmd *cobra.Command) (*postgres.RolesRepo, error) {
	if cfg.Database.InMemory() {
		return nil, errNoDatabase
	}
	pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, err
	}
	cmd.PostRun = func(*cobra.Command, []string) { pool.Close() }
	return postgres.NewRolesRepo(pool), nil
}
