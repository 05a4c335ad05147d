package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"petshop-manager/internal/adapters/auth/jwt"
	"petshop-manager/internal/adapters/storage/postgres"
	"petshop-manager/internal/app"
	"petshop-manager/internal/config"
	"petshop-manager/internal/platform/logger"
	"petshop-manager/internal/ports/auth"
	"petshop-manager/internal/router"
)

// @title PetShop Manager API
// @version 1.0
// @description Gestión de pet shop: tutores, mascotas, agenda con check-in/check-out, pacotes y finanzas.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env opcional

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.Open(ctx, cfg, log, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer res.Close()

	a, err := app.New(ctx, res.Options(cfg, log))
	if err != nil {
		return err
	}

	var verifier auth.AuthVerifier // nil => modo dev
	if !cfg.Auth.DevMode() {
		verifier = jwt.NewVerifier(jwt.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer})
		if res.Pool != nil {
			verifier = auth.WithRoles(verifier, postgres.NewRolesRepo(res.Pool))
		}
	} else {
		log.Warn("auth jwt secret empty, accepting X-Debug-* headers", nil)
	}

	sched, err := a.StartScheduler(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.NewRouter(router.Options{App: a, AuthVerifier: verifier, Logger: log}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		app.StopScheduler(sched, cfg.Server.ShutdownTimeout)
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", map[string]any{"err": err})
	}
	app.StopScheduler(sched, cfg.Server.ShutdownTimeout)
	return nil
}
