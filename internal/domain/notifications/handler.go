package notifications

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, d *Dispatcher) {
	r.Route("/notifications", func(nr chi.Router) {
		nr.Get("/", listMessagesHandler(d))
		nr.With(middleware.RequireRole(auth.RoleAdmin)).Post("/dispatch", dispatchHandler(d))
	})
}

type messageResponse struct {
	ID            string          `json:"id"`
	Kind          Kind            `json:"kind"`
	AppointmentID string          `json:"appointment_id"`
	Payload       json.RawMessage `json:"payload" swaggertype:"object"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
	LastError     string          `json:"last_error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
}

// listMessagesHandler godoc
// @Summary Listar outbox de notificaciones
// @Tags notifications
// @Produce json
// @Param status query string false "pending|delivered|failed"
// @Param appointment_id query string false "Cita"
// @Param limit query int false "Máximo (default 100)"
// @Success 200 {array} messageResponse
// @Router /notifications [get]
func listMessagesHandler(d *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))

		items, err := d.List(r.Context(), ListFilter{
			Status:        Status(q.Get("status")),
			AppointmentID: q.Get("appointment_id"),
			Limit:         limit,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]messageResponse, 0, len(items))
		for _, m := range items {
			out = append(out, messageResponse{
				ID:            m.ID,
				Kind:          m.Kind,
				AppointmentID: m.AppointmentID,
				Payload:       m.Payload,
				Status:        m.Status,
				Attempts:      m.Attempts,
				NextAttemptAt: m.NextAttemptAt,
				LastError:     m.LastError,
				CreatedAt:     m.CreatedAt,
				DeliveredAt:   m.DeliveredAt,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// dispatchHandler godoc
// @Summary Procesar outbox ahora
// @Tags notifications
// @Produce json
// @Success 200 {object} DispatchResult
// @Router /notifications/dispatch [post]
func dispatchHandler(d *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.DispatchPending(r.Context())
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, res)
	}
}
