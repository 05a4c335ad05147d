// Package commands implementa petshopctl: tareas de operación sobre la
// misma configuración que el servidor (migraciones, seed, outbox, settings).
package commands

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"petshop-manager/internal/app"
	"petshop-manager/internal/config"
	"petshop-manager/internal/platform/logger"
)

var (
	cfg *config.Config
	log logger.Logger
	res *app.Resources

	configPath string
	verbose    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "petshopctl",
		Short:         "Operational CLI for PetShop Manager",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if configPath != "" {
				if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
					return err
				}
			}

			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c

			level := logger.ParseLevel(cfg.Log.Level)
			if verbose {
				level = logger.Debug
			}
			log = logger.New(logger.Options{Level: level, Format: logger.ParseFormat(cfg.Log.Format), App: "petshopctl"})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if res != nil {
				res.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(migrateCmd(), seedCmd(), outboxCmd(), settingsCmd(), financeCmd(), tokenCmd(), rolesCmd())
	return root.Execute()
}

// buildApp abre las conexiones de config y arma el grafo de servicios.
func buildApp(ctx context.Context) (*app.App, error) {
	r, err := app.Open(ctx, cfg, log, false)
	if err != nil {
		return nil, err
	}
	res = r
	return app.New(ctx, r.Options(cfg, log))
}
