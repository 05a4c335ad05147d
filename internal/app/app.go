// Package app arma el grafo de servicios a partir de la configuración:
// repos (postgres o memoria), settings, canal de notificación y scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"petshop-manager/internal/adapters/notify/webhook"
	"petshop-manager/internal/adapters/notify/whatsapp"
	"petshop-manager/internal/adapters/storage/memory"
	"petshop-manager/internal/adapters/storage/postgres"
	"petshop-manager/internal/config"
	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/dashboard"
	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/history"
	"petshop-manager/internal/domain/notifications"
	"petshop-manager/internal/domain/owners"
	"petshop-manager/internal/domain/packages"
	"petshop-manager/internal/domain/pets"
	"petshop-manager/internal/domain/settings"
	"petshop-manager/internal/platform/httpclient"
	"petshop-manager/internal/platform/logger"
	"petshop-manager/internal/ports/tx"
)

type Options struct {
	Config *config.Config
	Logger logger.Logger

	// Pool nil => repos en memoria.
	Pool *pgxpool.Pool
	// SettingsStore nil => store en memoria.
	SettingsStore settings.Store
	// Sender sobreescribe el canal elegido por config (tests).
	Sender notifications.Sender
}

type App struct {
	Settings     *settings.Service
	Owners       *owners.Service
	Pets         *pets.Service
	Catalog      *catalog.Service
	Employees    *employees.Service
	Packages     *packages.Service
	Finance      *finance.Service
	History      *history.Service
	Appointments *appointments.Service
	Dashboard    *dashboard.Service
	Dispatcher   *notifications.Dispatcher

	cfg *config.Config
	log logger.Logger
}

type repos struct {
	tx           tx.Runner
	owners       owners.Repository
	pets         pets.Repository
	catalog      catalog.Repository
	employees    employees.Repository
	packages     packages.Repository
	finance      finance.Repository
	history      history.Repository
	appointments appointments.Repository
	outbox       notifications.Repository
}

func memoryRepos() repos {
	st := memory.NewStore()
	return repos{
		tx:           memory.NewTxManager(),
		owners:       st.Owners,
		pets:         st.Pets,
		catalog:      memory.NewOfferingRepo(),
		employees:    st.Employees,
		packages:     st.Packages,
		finance:      st.Finance,
		history:      st.History,
		appointments: st.Appointments,
		outbox:       memory.NewOutboxRepo(),
	}
}

func postgresRepos(pool *pgxpool.Pool) repos {
	return repos{
		tx:           postgres.NewTxManager(pool),
		owners:       postgres.NewOwnersRepo(pool),
		pets:         postgres.NewPetsRepo(pool),
		catalog:      postgres.NewOfferingRepo(pool),
		employees:    postgres.NewEmployeesRepo(pool),
		packages:     postgres.NewPackagesRepo(pool),
		finance:      postgres.NewTransactionsRepo(pool),
		history:      postgres.NewHistoryRepo(pool),
		appointments: postgres.NewAppointmentsRepo(pool),
		outbox:       postgres.NewOutboxRepo(pool),
	}
}

func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	loc, err := cfg.Settings.Location()
	if err != nil {
		return nil, fmt.Errorf("app: timezone: %w", err)
	}

	store := opts.SettingsStore
	if store == nil {
		store = memory.NewSettingsStore()
	}
	settingsSvc, err := settings.Load(ctx, store, settings.Defaults(cfg.Settings.BusinessName, cfg.Settings.DefaultWebhookURL))
	if err != nil {
		return nil, err
	}

	r := memoryRepos()
	if opts.Pool != nil {
		r = postgresRepos(opts.Pool)
	}

	ownersSvc := owners.NewService(r.owners)
	petsSvc := pets.NewService(r.pets, ownersSvc)
	catalogSvc := catalog.NewService(r.catalog, settingsSvc)
	employeesSvc := employees.NewService(r.employees)
	financeSvc := finance.NewService(r.finance)
	historySvc := history.NewService(r.history, petsSvc)

	// nil explícito: sin asientos automáticos
	var (
		pkgLedger  packages.LedgerRecorder
		apptLedger appointments.Ledger
	)
	if cfg.Ledger.AutoRecord {
		pkgLedger, apptLedger = financeSvc, financeSvc
	}

	packagesSvc := packages.NewService(packages.Deps{
		Repo:      r.packages,
		Tx:        r.tx,
		Offerings: catalogSvc,
		Owners:    ownersSvc,
		Pets:      petsSvc,
		Ledger:    pkgLedger,
	})

	sender := opts.Sender
	if sender == nil {
		sender = newSender(cfg, settingsSvc)
	}
	dispatcher := notifications.NewDispatcher(r.outbox, sender, notifications.Policy{
		MaxAttempts: cfg.Notifications.MaxAttempts,
		BackoffBase: cfg.Notifications.BackoffBase,
		BackoffMax:  cfg.Notifications.BackoffMax,
		Lease:       cfg.Notifications.Lease,
		BatchSize:   cfg.Notifications.BatchSize,
	}, log.With(map[string]any{"component": "notifications"}))

	appointmentsSvc := appointments.NewService(appointments.Deps{
		Repo:      r.appointments,
		Tx:        r.tx,
		Offerings: catalogSvc,
		Owners:    ownersSvc,
		Pets:      petsSvc,
		Staff:     employeesSvc,
		Credits:   packagesSvc,
		Ledger:    apptLedger,
		Notifier:  dispatcher,
		Timeline:  historySvc,
		Location:  loc,

		DeliveryTimeout: cfg.Notifications.Timeout,
	})

	a := &App{
		Settings:     settingsSvc,
		Owners:       ownersSvc,
		Pets:         petsSvc,
		Catalog:      catalogSvc,
		Employees:    employeesSvc,
		Packages:     packagesSvc,
		Finance:      financeSvc,
		History:      historySvc,
		Appointments: appointmentsSvc,
		Dashboard:    dashboard.NewService(appointmentsSvc, packagesSvc, financeSvc, loc),
		Dispatcher:   dispatcher,
		cfg:          cfg,
		log:          log,
	}

	// en memoria arrancamos con el catálogo de ejemplo
	if opts.Pool == nil {
		n, err := catalogSvc.SeedDefaults(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: seed catalog: %w", err)
		}
		log.Info("catalog seeded", map[string]any{"created": n})
	}
	return a, nil
}

func newSender(cfg *config.Config, s *settings.Service) notifications.Sender {
	if cfg.Notifications.Channel == config.ChannelTwilio {
		return whatsapp.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber, s)
	}
	return webhook.New(httpclient.New(cfg.Notifications.Timeout), s)
}

// StartScheduler programa DispatchPending con la expresión de config.
// El llamador detiene el cron con Stop() al apagar.
func (a *App) StartScheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	log := a.log.With(map[string]any{"job": "outbox_dispatch"})

	_, err := c.AddFunc(a.cfg.Notifications.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, a.cfg.Notifications.Lease)
		defer cancel()

		res, err := a.Dispatcher.DispatchPending(logger.NewContext(runCtx, log))
		if err != nil {
			log.Warn("dispatch failed", map[string]any{"err": err})
			return
		}
		if res.Claimed > 0 {
			log.Info("dispatch done", map[string]any{
				"claimed":   res.Claimed,
				"delivered": res.Delivered,
				"retrying":  res.Retrying,
				"failed":    res.Failed,
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("app: schedule %q: %w", a.cfg.Notifications.Schedule, err)
	}
	c.Start()
	return c, nil
}

// StopScheduler espera a que termine la pasada en curso o a que venza timeout.
func StopScheduler(c *cron.Cron, timeout time.Duration) {
	ctx := c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
	}
}
