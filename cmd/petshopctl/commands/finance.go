package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"petshop-manager/internal/domain/finance"
)

func financeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Financial reports",
	}

	var from, to string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Income, expenses and net over [from, to)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Finance.Summary(cmd.Context(), rng)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "receitas  %s\n", s.TotalIncome.StringFixed(2))
			fmt.Fprintf(out, "despesas  %s\n", s.TotalExpenses.StringFixed(2))
			fmt.Fprintf(out, "saldo     %s\n", s.Net.StringFixed(2))
			for _, item := range finance.ToSummaryResponse(rng, s).ByCategory {
				fmt.Fprintf(out, "  %-20s %s\n", item.Key, item.Amount.StringFixed(2))
			}
			return nil
		},
	}
	summary.Flags().StringVar(&from, "from", "", "start date YYYY-MM-DD (inclusive)")
	summary.Flags().StringVar(&to, "to", "", "end date YYYY-MM-DD (exclusive)")

	cmd.AddCommand(summary)
	return cmd
}

func parseRange(from, to string) (finance.Range, error) {
	loc, err := cfg.Settings.Location()
	if err != nil {
		return finance.Range{}, err
	}
	var rng finance.Range
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return finance.Range{}, fmt.Errorf("--from: %w", err)
		}
		rng.From = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return finance.Range{}, fmt.Errorf("--to: %w", err)
		}
		rng.To = &t
	}
	return rng, nil
}
