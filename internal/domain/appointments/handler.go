package appointments

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
	r.Route("/appointments", func(ar chi.Router) {
		ar.Get("/", listAppointmentsHandler(svc))
		ar.Post("/", createAppointmentHandler(svc))
		ar.Get("/today", todayHandler(svc))
		ar.Get("/pending-check-in", pendingCheckInHandler(svc))
		ar.Get("/in-progress", inProgressHandler(svc))

		ar.Route("/{appointmentID}", func(ir chi.Router) {
			ir.Get("/", getAppointmentHandler(svc))
			ir.Patch("/", updateAppointmentHandler(svc))
			ir.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/", deleteAppointmentHandler(svc))

			ir.Post("/confirm", confirmHandler(svc))
			ir.Post("/check-in", checkInHandler(svc))
			ir.Post("/start", startHandler(svc))
			ir.Post("/check-out", checkOutHandler(svc))
			ir.Post("/cancel", cancelHandler(svc))
		})
	})
}

type createAppointmentRequest struct {
	OwnerID      string               `json:"owner_id"`
	PetID        string               `json:"pet_id"`
	DepartmentID catalog.DepartmentID `json:"department_id" enums:"estetica,saude,educacao,estadia,logistica"`
	ServiceID    string               `json:"service_id"`
	EmployeeID   string               `json:"employee_id"`
	PackageID    string               `json:"package_id"`
	ScheduledAt  time.Time            `json:"scheduled_at"`
	Price        *decimal.Decimal     `json:"price" swaggertype:"string"`
	Notes        string               `json:"notes"`
}

type updateAppointmentRequest struct {
	DepartmentID *catalog.DepartmentID `json:"department_id"`
	ServiceID    *string               `json:"service_id"`
	EmployeeID   *string               `json:"employee_id"`
	PackageID    *string               `json:"package_id"`
	ScheduledAt  *time.Time            `json:"scheduled_at"`
	Notes        *string               `json:"notes"`
}

type checkInRequest struct {
	BeforePhotoURL string `json:"before_photo_url"`
}

type checkOutRequest struct {
	AfterPhotoURL string  `json:"after_photo_url"`
	Notes         *string `json:"notes"`
}

type appointmentResponse struct {
	ID             string               `json:"id"`
	PetID          string               `json:"pet_id"`
	OwnerID        string               `json:"owner_id"`
	DepartmentID   catalog.DepartmentID `json:"department_id"`
	ServiceID      string               `json:"service_id"`
	EmployeeID     string               `json:"employee_id,omitempty"`
	PackageID      string               `json:"package_id,omitempty"`
	ScheduledAt    time.Time            `json:"scheduled_at"`
	Status         Status               `json:"status"`
	StatusLabel    string               `json:"status_label"`
	NextStatuses   []Status             `json:"next_statuses"`
	CheckInAt      *time.Time           `json:"check_in_at,omitempty"`
	CheckOutAt     *time.Time           `json:"check_out_at,omitempty"`
	BeforePhotoURL string               `json:"before_photo_url,omitempty"`
	AfterPhotoURL  string               `json:"after_photo_url,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	Price          decimal.Decimal      `json:"price" swaggertype:"string"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type checkoutResponse struct {
	Appointment  appointmentResponse `json:"appointment"`
	Notification NotificationStatus  `json:"notification" enums:"delivered,pending,skipped"`
	Message      string              `json:"message,omitempty"`
}

// listAppointmentsHandler godoc
// @Summary Listar agendamientos
// @Tags appointments
// @Produce json
// @Param status query string false "Lista separada por coma"
// @Param from query string false "scheduled_at desde (inclusive)"
// @Param to query string false "scheduled_at hasta (exclusivo)"
// @Param owner_id query string false "Tutor"
// @Param pet_id query string false "Mascota"
// @Param employee_id query string false "Funcionario"
// @Param department_id query string false "Departamento"
// @Success 200 {array} appointmentResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := httpx.QueryTime(r, "from")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		to, err := httpx.QueryTime(r, "to")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		q := r.URL.Query()
		f := ListFilter{
			From:         from,
			To:           to,
			OwnerID:      q.Get("owner_id"),
			PetID:        q.Get("pet_id"),
			EmployeeID:   q.Get("employee_id"),
			DepartmentID: catalog.DepartmentID(q.Get("department_id")),
		}
		for _, st := range httpx.QueryList(r, "status") {
			f.Statuses = append(f.Statuses, Status(st))
		}

		items, err := svc.List(r.Context(), f)
		writeList(w, r, items, err)
	}
}

// createAppointmentHandler godoc
// @Summary Crear agendamiento
// @Description El precio se toma del servicio (o del body) y queda congelado.
// @Tags appointments
// @Accept json
// @Produce json
// @Param body body createAppointmentRequest true "Agendamiento"
// @Success 201 {object} appointmentResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAppointmentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toAppointmentResponse(a))
	}
}

func todayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Today(r.Context())
		writeList(w, r, items, err)
	}
}

func pendingCheckInHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.PendingCheckIn(r.Context())
		writeList(w, r, items, err)
	}
}

func inProgressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.InProgress(r.Context())
		writeList(w, r, items, err)
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), chi.URLParam(r, "appointmentID"))
		writeOne(w, r, a, err)
	}
}

// updateAppointmentHandler godoc
// @Summary Editar agendamiento
// @Description Tutor, mascota, precio y status no son editables.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path string true "ID"
// @Param body body updateAppointmentRequest true "Campos a cambiar"
// @Success 200 {object} appointmentResponse
// @Router /appointments/{appointmentID} [patch]
func updateAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAppointmentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		a, err := svc.Update(r.Context(), chi.URLParam(r, "appointmentID"), UpdateInput(req))
		writeOne(w, r, a, err)
	}
}

func deleteAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "appointmentID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func confirmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Confirm(r.Context(), chi.URLParam(r, "appointmentID"))
		writeOne(w, r, a, err)
	}
}

// checkInHandler godoc
// @Summary Check-in
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path string true "ID"
// @Param body body checkInRequest false "Foto de entrada"
// @Success 200 {object} appointmentResponse
// @Failure 409 {object} httpx.ErrorResponse "Transición inválida"
// @Router /appointments/{appointmentID}/check-in [post]
func checkInHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkInRequest
		if err := decodeOptional(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		a, err := svc.CheckIn(r.Context(), chi.URLParam(r, "appointmentID"), req.BeforePhotoURL)
		writeOne(w, r, a, err)
	}
}

func startHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Start(r.Context(), chi.URLParam(r, "appointmentID"))
		writeOne(w, r, a, err)
	}
}

// checkOutHandler godoc
// @Summary Check-out
// @Description Completa el servicio. Si el aviso al tutor falla el checkout igual se confirma
// @Description y la respuesta trae notification=pending con un mensaje.
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointmentID path string true "ID"
// @Param body body checkOutRequest false "Foto de salida y notas"
// @Success 200 {object} checkoutResponse
// @Failure 409 {object} httpx.ErrorResponse "Transición inválida o sin créditos"
// @Router /appointments/{appointmentID}/check-out [post]
func checkOutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkOutRequest
		if err := decodeOptional(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		res, err := svc.CheckOut(r.Context(), chi.URLParam(r, "appointmentID"), CheckOutInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, checkoutResponse{
			Appointment:  toAppointmentResponse(res.Appointment),
			Notification: res.Notification,
			Message:      res.Message,
		})
	}
}

func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Cancel(r.Context(), chi.URLParam(r, "appointmentID"))
		writeOne(w, r, a, err)
	}
}

// decodeOptional acepta body vacío.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return httpx.DecodeJSON(r, v)
}

func writeOne(w http.ResponseWriter, r *http.Request, a Appointment, err error) {
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(a))
}

func writeList(w http.ResponseWriter, r *http.Request, items []Appointment, err error) {
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	out := make([]appointmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAppointmentResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	next := a.Status.Next()
	if next == nil {
		next = []Status{}
	}
	return appointmentResponse{
		ID:             a.ID,
		PetID:          a.PetID,
		OwnerID:        a.OwnerID,
		DepartmentID:   a.DepartmentID,
		ServiceID:      a.ServiceID,
		EmployeeID:     a.EmployeeID,
		PackageID:      a.PackageID,
		ScheduledAt:    a.ScheduledAt,
		Status:         a.Status,
		StatusLabel:    a.Status.Label(),
		NextStatuses:   next,
		CheckInAt:      a.CheckInAt,
		CheckOutAt:     a.CheckOutAt,
		BeforePhotoURL: a.BeforePhotoURL,
		AfterPhotoURL:  a.AfterPhotoURL,
		Notes:          a.Notes,
		Price:          a.Price,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
