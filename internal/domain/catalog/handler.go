package catalog

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
	r.Get("/departments", listDepartmentsHandler(svc))

	r.Route("/services", func(sr chi.Router) {
		sr.Get("/", listOfferingsHandler(svc))
		sr.Get("/{serviceID}", getOfferingHandler(svc))

		// Catálogo: solo admin
		sr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(auth.RoleAdmin))
			ar.Post("/", createOfferingHandler(svc))
			ar.Patch("/{serviceID}", updateOfferingHandler(svc))
			ar.Delete("/{serviceID}", deleteOfferingHandler(svc))
		})
	})
}

type departmentResponse struct {
	ID          DepartmentID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Enabled     bool         `json:"enabled"`
}

type createOfferingRequest struct {
	DepartmentID         DepartmentID     `json:"department_id" enums:"estetica,saude,educacao,estadia,logistica"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	DurationMinutes      int              `json:"duration_minutes"`
	Price                decimal.Decimal  `json:"price" swaggertype:"string"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage" swaggertype:"string"`
}

type updateOfferingRequest struct {
	DepartmentID         *DepartmentID    `json:"department_id"`
	Name                 *string          `json:"name"`
	Description          *string          `json:"description"`
	DurationMinutes      *int             `json:"duration_minutes"`
	Price                *decimal.Decimal `json:"price" swaggertype:"string"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage" swaggertype:"string"`
	ClearCommission      bool             `json:"clear_commission"`
	Active               *bool            `json:"active"`
}

type offeringResponse struct {
	ID                   string           `json:"id"`
	DepartmentID         DepartmentID     `json:"department_id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	DurationMinutes      int              `json:"duration_minutes"`
	Price                decimal.Decimal  `json:"price" swaggertype:"string"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty" swaggertype:"string"`
	Active               bool             `json:"active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// listDepartmentsHandler godoc
// @Summary Listar departamentos
// @Description Departamentos fijos del pet shop con su estado (habilitado/deshabilitado en settings).
// @Tags catalog
// @Produce json
// @Success 200 {array} departmentResponse
// @Router /departments [get]
func listDepartmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := svc.Departments()
		out := make([]departmentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, departmentResponse{ID: d.ID, Name: d.Name, Description: d.Description, Enabled: d.Enabled})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// listOfferingsHandler godoc
// @Summary Listar servicios del catálogo
// @Tags catalog
// @Produce json
// @Param department_id query string false "Filtra por departamento"
// @Param active query bool false "Solo activos"
// @Success 200 {array} offeringResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /services [get]
func listOfferingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), ListFilter{
			DepartmentID: DepartmentID(r.URL.Query().Get("department_id")),
			ActiveOnly:   httpx.QueryBool(r, "active"),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]offeringResponse, 0, len(items))
		for _, o := range items {
			out = append(out, toOfferingResponse(o))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getOfferingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := svc.Get(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toOfferingResponse(o))
	}
}

// createOfferingHandler godoc
// @Summary Crear servicio
// @Description Solo admin. El precio y el porcentaje de comisión viajan como string decimal.
// @Tags catalog
// @Accept json
// @Produce json
// @Param body body createOfferingRequest true "Servicio"
// @Success 201 {object} offeringResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /services [post]
func createOfferingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOfferingRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		o, err := svc.Create(r.Context(), CreateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toOfferingResponse(o))
	}
}

func updateOfferingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateOfferingRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		o, err := svc.Update(r.Context(), chi.URLParam(r, "serviceID"), UpdateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toOfferingResponse(o))
	}
}

func deleteOfferingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "serviceID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toOfferingResponse(o Offering) offeringResponse {
	return offeringResponse{
		ID:                   o.ID,
		DepartmentID:         o.DepartmentID,
		Name:                 o.Name,
		Description:          o.Description,
		DurationMinutes:      o.DurationMinutes,
		Price:                o.Price,
		CommissionPercentage: o.CommissionPercentage,
		Active:               o.Active,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}
