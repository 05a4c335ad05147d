package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load initial data",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "catalog",
		Short: "Create the default services for every department (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.InMemory() {
				return errNoDatabase
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.Catalog.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d services created\n", n)
			return nil
		},
	})
	return cmd
}
