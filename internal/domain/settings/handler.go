package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/settings", func(sr chi.Router) {
		sr.Get("/", getSettingsHandler(svc))

		sr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(auth.RoleAdmin))
			ar.Patch("/", updateSettingsHandler(svc))
			ar.Post("/departments/{departmentID}/toggle", toggleDepartmentHandler(svc))
		})
	})
}

type updateSettingsRequest struct {
	BusinessName    *string                       `json:"business_name"`
	BusinessPhone   *string                       `json:"business_phone"`
	BusinessAddress *string                       `json:"business_address"`
	Departments     map[catalog.DepartmentID]bool `json:"departments"`
	WebhookURL      *string                       `json:"webhook_url"`
}

type toggleResponse struct {
	DepartmentID catalog.DepartmentID `json:"department_id"`
	Enabled      bool                 `json:"enabled"`
}

// getSettingsHandler godoc
// @Summary Ajustes del negocio
// @Tags settings
// @Produce json
// @Success 200 {object} Settings
// @Router /settings [get]
func getSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, svc.Current())
	}
}

// updateSettingsHandler godoc
// @Summary Actualizar ajustes (parcial)
// @Tags settings
// @Accept json
// @Produce json
// @Param body body updateSettingsRequest true "Campos a cambiar"
// @Success 200 {object} Settings
// @Failure 400 {object} httpx.ErrorResponse
// @Router /settings [patch]
func updateSettingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSettingsRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out, err := svc.Update(r.Context(), UpdateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func toggleDepartmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := catalog.DepartmentID(chi.URLParam(r, "departmentID"))
		enabled, err := svc.ToggleDepartment(r.Context(), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toggleResponse{DepartmentID: id, Enabled: enabled})
	}
}
