package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "petshop-manager/docs"
	"petshop-manager/internal/app"
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
	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/logger"
	"petshop-manager/internal/ports/auth"
)

type Options struct {
	App *app.App

	AuthVerifier auth.AuthVerifier // nil => modo dev (headers X-Debug-*)
	Logger       logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	a := opts.App

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestIDHeader)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.AuthContext(opts.AuthVerifier))
		api.Use(middleware.RequireAuth)

		owners.RegisterRoutes(api, a.Owners)
		pets.RegisterRoutes(api, a.Pets)
		history.RegisterRoutes(api, a.History)
		catalog.RegisterRoutes(api, a.Catalog)
		employees.RegisterRoutes(api, a.Employees)
		packages.RegisterRoutes(api, a.Packages)
		appointments.RegisterRoutes(api, a.Appointments)
		finance.RegisterRoutes(api, a.Finance)
		dashboard.RegisterRoutes(api, a.Dashboard)
		settings.RegisterRoutes(api, a.Settings)
		notifications.RegisterRoutes(api, a.Dispatcher)
	})

	return r
}
