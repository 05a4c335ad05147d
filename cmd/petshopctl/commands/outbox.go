package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver pending notifications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dispatch",
		Short: "Deliver one batch of due notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.Dispatcher.DispatchPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "claimed=%d delivered=%d retrying=%d failed=%d\n",
				r.Claimed, r.Delivered, r.Retrying, r.Failed)
			return nil
		},
	})
	return cmd
}
