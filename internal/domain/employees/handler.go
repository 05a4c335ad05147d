package employees

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/employees", func(er chi.Router) {
		er.Get("/", listEmployeesHandler(svc))
		er.Get("/{employeeID}", getEmployeeHandler(svc))

		er.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(auth.RoleAdmin))
			ar.Post("/", createEmployeeHandler(svc))
			ar.Patch("/{employeeID}", updateEmployeeHandler(svc))
			ar.Delete("/{employeeID}", deleteEmployeeHandler(svc))
		})
	})
}

type createEmployeeRequest struct {
	Name                 string                 `json:"name"`
	Email                string                 `json:"email"`
	Phone                string                 `json:"phone"`
	Role                 Role                   `json:"role" enums:"admin,manager,groomer,veterinarian,trainer,receptionist,driver"`
	PhotoURL             string                 `json:"photo_url"`
	Departments          []catalog.DepartmentID `json:"departments"`
	CommissionEnabled    bool                   `json:"commission_enabled"`
	CommissionPercentage *decimal.Decimal       `json:"commission_percentage" swaggertype:"string"`
	UserID               string                 `json:"user_id"`
}

type updateEmployeeRequest struct {
	Name                 *string                 `json:"name"`
	Email                *string                 `json:"email"`
	Phone                *string                 `json:"phone"`
	Role                 *Role                   `json:"role"`
	PhotoURL             *string                 `json:"photo_url"`
	Departments          *[]catalog.DepartmentID `json:"departments"`
	CommissionEnabled    *bool                   `json:"commission_enabled"`
	CommissionPercentage *decimal.Decimal        `json:"commission_percentage" swaggertype:"string"`
	Active               *bool                   `json:"active"`
	UserID               *string                 `json:"user_id"`
}

type employeeResponse struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	Email                string                 `json:"email"`
	Phone                string                 `json:"phone"`
	Role                 Role                   `json:"role"`
	RoleLabel            string                 `json:"role_label"`
	PhotoURL             string                 `json:"photo_url,omitempty"`
	Departments          []catalog.DepartmentID `json:"departments"`
	CommissionEnabled    bool                   `json:"commission_enabled"`
	CommissionPercentage *decimal.Decimal       `json:"commission_percentage,omitempty" swaggertype:"string"`
	Active               bool                   `json:"active"`
	UserID               string                 `json:"user_id,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// listEmployeesHandler godoc
// @Summary Listar funcionarios
// @Tags employees
// @Produce json
// @Param active query bool false "Solo activos"
// @Param department_id query string false "Que atiendan el departamento"
// @Success 200 {array} employeeResponse
// @Router /employees [get]
func listEmployeesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), ListFilter{
			ActiveOnly:   httpx.QueryBool(r, "active"),
			DepartmentID: catalog.DepartmentID(r.URL.Query().Get("department_id")),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]employeeResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEmployeeResponse(e))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func getEmployeeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Get(r.Context(), chi.URLParam(r, "employeeID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toEmployeeResponse(e))
	}
}

func createEmployeeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEmployeeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		e, err := svc.Create(r.Context(), CreateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toEmployeeResponse(e))
	}
}

func updateEmployeeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateEmployeeRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		e, err := svc.Update(r.Context(), chi.URLParam(r, "employeeID"), UpdateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toEmployeeResponse(e))
	}
}

func deleteEmployeeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toEmployeeResponse(e Employee) employeeResponse {
	deps := e.Departments
	if deps == nil {
		deps = []catalog.DepartmentID{}
	}
	return employeeResponse{
		ID:                   e.ID,
		Name:                 e.Name,
		Email:                e.Email,
		Phone:                e.Phone,
		Role:                 e.Role,
		RoleLabel:            e.Role.Label(),
		PhotoURL:             e.PhotoURL,
		Departments:          deps,
		CommissionEnabled:    e.CommissionEnabled,
		CommissionPercentage: e.CommissionPercentage,
		Active:               e.Active,
		UserID:               e.UserID,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}
