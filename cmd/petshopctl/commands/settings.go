package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/settings"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change business settings",
	}
	cmd.AddCommand(settingsShowCmd(), settingsWebhookCmd(), settingsToggleCmd())
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print current settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.Settings.Current())
		},
	}
}

func settingsWebhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-webhook <url>",
		Short: "Set the checkout notification webhook (empty string disables it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			url := args[0]
			s, err := a.Settings.Update(cmd.Context(), settings.UpdateInput{WebhookURL: &url})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook_url=%q\n", s.WebhookURL)
			return nil
		},
	}
}

func settingsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-department <department>",
		Short: "Enable or disable a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			id := catalog.DepartmentID(args[0])
			enabled, err := a.Settings.ToggleDepartment(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", id, enabled)
			return nil
		},
	}
}
