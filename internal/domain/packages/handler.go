package packages

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/service-packages", func(pr chi.Router) {
		pr.Get("/", listPackagesHandler(svc))
		pr.Get("/{packageID}", getPackageHandler(svc))

		pr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(auth.RoleAdmin))
			ar.Post("/", createPackageHandler(svc))
			ar.Patch("/{packageID}", updatePackageHandler(svc))
			ar.Delete("/{packageID}", deletePackageHandler(svc))
		})
	})

	r.Route("/customer-packages", func(cr chi.Router) {
		cr.Get("/", listCustomerPackagesHandler(svc))
		cr.Post("/", sellPackageHandler(svc))
		cr.Get("/active", activeCreditsHandler(svc))
		cr.Get("/{customerPackageID}", getCustomerPackageHandler(svc))
		cr.Post("/{customerPackageID}/consume", consumeCreditHandler(svc))
	})
}

type createPackageRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ServiceID       string          `json:"service_id"`
	Quantity        int             `json:"quantity"`
	ValidityDays    int             `json:"validity_days"`
	OriginalPrice   decimal.Decimal `json:"original_price" swaggertype:"string"`
	DiscountedPrice decimal.Decimal `json:"discounted_price" swaggertype:"string"`
}

type updatePackageRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	ServiceID       *string          `json:"service_id"`
	Quantity        *int             `json:"quantity"`
	ValidityDays    *int             `json:"validity_days"`
	OriginalPrice   *decimal.Decimal `json:"original_price" swaggertype:"string"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price" swaggertype:"string"`
	Active          *bool            `json:"active"`
}

type packageResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ServiceID       string          `json:"service_id"`
	Quantity        int             `json:"quantity"`
	ValidityDays    int             `json:"validity_days"`
	OriginalPrice   decimal.Decimal `json:"original_price" swaggertype:"string"`
	DiscountedPrice decimal.Decimal `json:"discounted_price" swaggertype:"string"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type sellRequest struct {
	PackageID string `json:"package_id"`
	OwnerID   string `json:"owner_id"`
	PetID     string `json:"pet_id"`
}

type consumeRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type customerPackageResponse struct {
	ID               string    `json:"id"`
	PackageID        string    `json:"package_id"`
	ServiceID        string    `json:"service_id"`
	OwnerID          string    `json:"owner_id"`
	PetID            string    `json:"pet_id"`
	Quantity         int       `json:"quantity"`
	RemainingUses    int       `json:"remaining_uses"`
	PurchasedAt      time.Time `json:"purchased_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	UsedAppointments []string  `json:"used_appointments"`
	CreatedAt        time.Time `json:"created_at"`
}

func listPackagesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPackages(r.Context(), httpx.QueryBool(r, "active"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		out := make([]packageResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPackageResponse(p))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getPackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetPackage(r.Context(), chi.URLParam(r, "packageID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPackageResponse(p))
	}
}

// createPackageHandler godoc
// @Summary Crear paquete de servicios
// @Tags packages
// @Accept json
// @Produce json
// @Param body body createPackageRequest true "Paquete"
// @Success 201 {object} packageResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /service-packages [post]
func createPackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPackageRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.CreatePackage(r.Context(), CreatePackageInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toPackageResponse(p))
	}
}

func updatePackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePackageRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := svc.UpdatePackage(r.Context(), chi.URLParam(r, "packageID"), UpdatePackageInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPackageResponse(p))
	}
}

func deletePackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeletePackage(r.Context(), chi.URLParam(r, "packageID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// sellPackageHandler godoc
// @Summary Vender paquete a un tutor/mascota
// @Tags packages
// @Accept json
// @Produce json
// @Param body body sellRequest true "Venta"
// @Success 201 {object} customerPackageResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /customer-packages [post]
func sellPackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sellRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		cp, err := svc.Sell(r.Context(), SellInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toCustomerPackageResponse(cp))
	}
}

// consumeCreditHandler godoc
// @Summary Usar un crédito del paquete
// @Description Descuenta un uso de forma atómica y registra la cita en used_appointments.
// @Tags packages
// @Accept json
// @Produce json
// @Param customerPackageID path string true "ID del paquete vendido"
// @Param body body consumeRequest true "Cita"
// @Success 200 {object} customerPackageResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse "Sin créditos, vencido o cita ya registrada"
// @Router /customer-packages/{customerPackageID}/consume [post]
func consumeCreditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req consumeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		cp, err := svc.ConsumeCredit(r.Context(), chi.URLParam(r, "customerPackageID"), req.AppointmentID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCustomerPackageResponse(cp))
	}
}

func getCustomerPackageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cp, err := svc.GetCustomerPackage(r.Context(), chi.URLParam(r, "customerPackageID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCustomerPackageResponse(cp))
	}
}

func listCustomerPackagesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListCustomerPackages(r.Context(), customerFilterFromQuery(r))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		writeCustomerPackages(w, items)
	}
}

// activeCreditsHandler godoc
// @Summary Créditos activos
// @Description Paquetes con saldo y sin vencer, ordenados por vencimiento más próximo.
// @Tags packages
// @Produce json
// @Param owner_id query string false "Tutor"
// @Param pet_id query string false "Mascota"
// @Success 200 {array} customerPackageResponse
// @Router /customer-packages/active [get]
func activeCreditsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ActiveCredits(r.Context(), customerFilterFromQuery(r))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		writeCustomerPackages(w, items)
	}
}

func customerFilterFromQuery(r *http.Request) CustomerFilter {
	q := r.URL.Query()
	return CustomerFilter{OwnerID: q.Get("owner_id"), PetID: q.Get("pet_id")}
}

func writeCustomerPackages(w http.ResponseWriter, items []CustomerPackage) {
	out := make([]customerPackageResponse, 0, len(items))
	for _, cp := range items {
		out = append(out, toCustomerPackageResponse(cp))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func toPackageResponse(p ServicePackage) packageResponse {
	return packageResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ServiceID:       p.ServiceID,
		Quantity:        p.Quantity,
		ValidityDays:    p.ValidityDays,
		OriginalPrice:   p.OriginalPrice,
		DiscountedPrice: p.DiscountedPrice,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toCustomerPackageResponse(cp CustomerPackage) customerPackageResponse {
	used := cp.UsedAppointments
	if used == nil {
		used = []string{}
	}
	return customerPackageResponse{
		ID:               cp.ID,
		PackageID:        cp.PackageID,
		ServiceID:        cp.ServiceID,
		OwnerID:          cp.OwnerID,
		PetID:            cp.PetID,
		Quantity:         cp.Quantity,
		RemainingUses:    cp.RemainingUses,
		PurchasedAt:      cp.PurchasedAt,
		ExpiresAt:        cp.ExpiresAt,
		UsedAppointments: used,
		CreatedAt:        cp.CreatedAt,
	}
}
