package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"petshop-manager/internal/adapters/auth/jwt"
	"petshop-manager/internal/ports/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue API tokens signed with AUTH_JWT_SECRET",
	}

	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a bearer token for the given user and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Auth.DevMode() {
				return errors.New("auth jwt secret not configured (AUTH_JWT_SECRET)")
			}
			r := auth.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("role must be admin or colaborador (got %q)", role)
			}
			if userID == "" {
				return errors.New("--user is required")
			}

			v := jwt.NewVerifier(jwt.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer})
			tok, err := v.Issue(auth.Claims{UserID: userID, Email: email, Role: r}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "subject (user id)")
	issue.Flags().StringVar(&email, "email", "", "email claim")
	issue.Flags().StringVar(&role, "role", string(auth.RoleColaborador), "admin | colaborador")
	issue.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")

	cmd.AddCommand(issue)
	return cmd
}
