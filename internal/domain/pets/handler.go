package pets

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/middleware"
	"petshop-manager/internal/platform/httpx"
	"petshop-manager/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", searchPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{petID}", deletePetHandler(svc))
	})

	// Mascotas de un tutor
	r.Get("/owners/{ownerID}/pets", listOwnerPetsHandler(svc))
}

type createPetRequest struct {
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	Species   Species    `json:"species" enums:"dog,cat,bird,other"`
	Breed     string     `json:"breed"`
	Size      Size       `json:"size" enums:"small,medium,large,giant"`
	BirthDate string     `json:"birth_date"` // YYYY-MM-DD opcional
	PhotoURL  string     `json:"photo_url"`
	Allergies []string   `json:"allergies"`
	Behaviors []Behavior `json:"behaviors"`
	Notes     string     `json:"notes"`
}

// updatePetRequest no acepta owner_id: DisallowUnknownFields lo rechaza.
type updatePetRequest struct {
	Name      *string     `json:"name"`
	Species   *Species    `json:"species"`
	Breed     *string     `json:"breed"`
	Size      *Size       `json:"size"`
	PhotoURL  *string     `json:"photo_url"`
	Allergies *[]string   `json:"allergies"`
	Behaviors *[]Behavior `json:"behaviors"`
	Notes     *string     `json:"notes"`

	// birth_date se lee aparte para distinguir null de ausente.
	BirthDate json.RawMessage `json:"birth_date" swaggertype:"string"`
}

type petResponse struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	Species   Species    `json:"species"`
	Breed     string     `json:"breed"`
	Size      Size       `json:"size,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	PhotoURL  string     `json:"photo_url,omitempty"`
	Allergies []string   `json:"allergies"`
	Behaviors []Behavior `json:"behaviors"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Description Crea una mascota para un tutor existente. El tutor no se puede cambiar después.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param body body createPetRequest true "Mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse "Tutor no encontrado"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		bd, err := httpx.ParseDate("birth_date", req.BirthDate)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			OwnerID:   req.OwnerID,
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Size:      req.Size,
			BirthDate: bd,
			PhotoURL:  req.PhotoURL,
			Allergies: req.Allergies,
			Behaviors: req.Behaviors,
			Notes:     req.Notes,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// searchPetsHandler godoc
// @Summary Buscar mascotas
// @Tags pets
// @Produce json
// @Param q query string false "Nombre o raza"
// @Param species query string false "dog, cat, bird, other"
// @Param owner_id query string false "Tutor"
// @Success 200 {array} petResponse
// @Router /pets [get]
func searchPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.Search(r.Context(), SearchFilter{
			OwnerID: q.Get("owner_id"),
			Query:   q.Get("q"),
			Species: Species(q.Get("species")),
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		writePets(w, items)
	}
}

func listOwnerPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByOwner(r.Context(), chi.URLParam(r, "ownerID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		writePets(w, items)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota (PATCH)
// @Description Campos ausentes no se tocan. "birth_date": null limpia la fecha. owner_id no se acepta.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "Mascota"
// @Param body body updatePetRequest true "Campos a cambiar"
// @Success 200 {object} petResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		bd, err := decodePatchBirthDate(req.BirthDate)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), UpdateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Size:      req.Size,
			BirthDate: bd,
			PhotoURL:  req.PhotoURL,
			Allergies: req.Allergies,
			Behaviors: req.Behaviors,
			Notes:     req.Notes,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "petID")); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodePatchBirthDate: ausente => no tocar; null => limpiar; "YYYY-MM-DD" => setear.
func decodePatchBirthDate(raw json.RawMessage) (PatchBirthDate, error) {
	if len(raw) == 0 {
		return PatchBirthDate{}, nil
	}
	if string(raw) == "null" {
		return PatchBirthDate{Present: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return PatchBirthDate{}, errs.Invalid("birth_date", "must be YYYY-MM-DD or null")
	}
	t, err := httpx.ParseDate("birth_date", s)
	if err != nil {
		return PatchBirthDate{}, err
	}
	return PatchBirthDate{Present: true, Value: t}, nil
}

func writePets(w http.ResponseWriter, items []Pet) {
	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPetResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func toPetResponse(p Pet) petResponse {
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	behaviors := p.Behaviors
	if behaviors == nil {
		behaviors = []Behavior{}
	}
	return petResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Size:      p.Size,
		BirthDate: p.BirthDate,
		PhotoURL:  p.PhotoURL,
		Allergies: allergies,
		Behaviors: behaviors,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
