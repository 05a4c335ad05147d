package history

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/history", func(hr chi.Router) {
		hr.Get("/", listHistoryHandler(svc))
		hr.Post("/", addNoteHandler(svc))

		// anular: solo admin
		hr.With(middleware.RequireRole(auth.RoleAdmin)).Post("/{entryID}/void", voidEntryHandler(svc))
	})
}

// addNoteRequest es el cuerpo para registrar una observación manual.
type addNoteRequest struct {
	OccurredAt *time.Time `json:"occurred_at"` // RFC3339, opcional
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	PhotoURL   string     `json:"photo_url"`
}

// entryResponse es una entrada del historial de la mascota.
type entryResponse struct {
	ID            string    `json:"id"`
	PetID         string    `json:"pet_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Type          EntryType `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	RecordedAt    time.Time `json:"recorded_at"`
	Title         string    `json:"title"`
	Notes         string    `json:"notes,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	ActorType     ActorType `json:"actor_type"`
	ActorID       string    `json:"actor_id"`
	Status        Status    `json:"status"`
}

// addNoteHandler godoc
// @Summary Agregar nota al historial de la mascota
// @Tags history
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body addNoteRequest true "Nota"
// @Success 201 {object} entryResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID}/history [post]
func addNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, r, errs.ErrUnauthorized)
			return
		}

		var req addNoteRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		e, err := svc.AddNote(r.Context(), chi.URLParam(r, "petID"), Actor{Type: ActorUser, ID: claims.UserID}, NoteInput(req))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toEntryResponse(e))
	}
}

// listHistoryHandler godoc
// @Summary Historial de la mascota
// @Description Check-ins, check-outs (con foto y notas), cancelaciones y notas manuales, más recientes primero.
// @Tags history
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo a devolver (1-200). Por defecto 50"
// @Param types query string false "CSV de tipos (check_in,check_out,cancelled,note)"
// @Param from query string false "occurred_at mínimo (RFC3339 o YYYY-MM-DD)"
// @Param to query string false "occurred_at máximo (RFC3339 o YYYY-MM-DD)"
// @Param q query string false "Texto en título/notas"
// @Param include_voided query bool false "Incluir anuladas"
// @Success 200 {array} entryResponse
// @Router /pets/{petID}/history [get]
func listHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"), f)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// voidEntryHandler godoc
// @Summary Anular una entrada del historial
// @Tags history
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param entryID path string true "ID de la entrada"
// @Success 200 {object} entryResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID}/history/{entryID}/void [post]
func voidEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Void(r.Context(), chi.URLParam(r, "petID"), chi.URLParam(r, "entryID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toEntryResponse(e))
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	f := ListFilter{
		Query:         strings.TrimSpace(r.URL.Query().Get("q")),
		IncludeVoided: httpx.QueryBool(r, "include_voided"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return ListFilter{}, errs.Invalid("limit", "must be a positive integer")
		}
		f.Limit = n
	}
	for _, t := range httpx.QueryList(r, "types") {
		f.Types = append(f.Types, EntryType(t))
	}

	var err error
	if f.From, err = httpx.QueryTime(r, "from"); err != nil {
		return ListFilter{}, err
	}
	if f.To, err = httpx.QueryTime(r, "to"); err != nil {
		return ListFilter{}, err
	}
	return f, nil
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		PetID:         e.PetID,
		AppointmentID: e.AppointmentID,
		Type:          e.Type,
		OccurredAt:    e.OccurredAt,
		RecordedAt:    e.RecordedAt,
		Title:         e.Title,
		Notes:         e.Notes,
		PhotoURL:      e.PhotoURL,
		ActorType:     e.Actor.Type,
		ActorID:       e.Actor.ID,
		Status:        e.Status,
	}
}
