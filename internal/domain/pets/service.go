package pets

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"petshop-manager/internal/domain/errs"
)

// OwnerRegistry la implementa owners.Service.
type OwnerRegistry interface {
	Exists(ctx context.Context, ownerID string) error
}

type Service struct {
	repo   Repository
	owners OwnerRegistry
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerRegistry) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		now:    time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type CreateInput struct {
	OwnerID   string
	Name      string
	Species   Species
	Breed     string
	Size      Size
	BirthDate *time.Time
	PhotoURL  string
	Allergies []string
	Behaviors []Behavior
	Notes     string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		return Pet{}, errs.Invalid("owner_id", "required")
	}

	now := s.now()
	p := Pet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Species:   in.Species,
		Breed:     strings.TrimSpace(in.Breed),
		Size:      in.Size,
		BirthDate: in.BirthDate,
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
		Allergies: normalizeAllergies(in.Allergies),
		Behaviors: in.Behaviors,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(p, now); err != nil {
		return Pet{}, err
	}

	// Integridad referencial: el tutor tiene que existir.
	if err := s.owners.Exists(ctx, ownerID); err != nil {
		return Pet{}, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// PatchBirthDate distingue "no enviado" de "null" (limpiar).
type PatchBirthDate struct {
	Present bool
	Value   *time.Time
}

// UpdateInput no incluye OwnerID: una mascota no se transfiere.
type UpdateInput struct {
	Name      *string
	Species   *Species
	Breed     *string
	Size      *Size
	BirthDate PatchBirthDate
	PhotoURL  *string
	Allergies *[]string
	Behaviors *[]Behavior
	Notes     *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = *in.Species
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Size != nil {
		p.Size = *in.Size
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	if in.Allergies != nil {
		p.Allergies = normalizeAllergies(*in.Allergies)
	}
	if in.Behaviors != nil {
		p.Behaviors = *in.Behaviors
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	now := s.now()
	if err := validate(p, now); err != nil {
		return Pet{}, err
	}

	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Pet, error) {
	if strings.TrimSpace(id) == "" {
		return Pet{}, errs.Invalid("pet_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

// Exists cumple history.PetLookup.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errs.Invalid("owner_id", "required")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Pet, error) {
	if f.Species != "" && !f.Species.IsValid() {
		return nil, errs.Invalid("species", "unknown species")
	}
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.Search(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("pet_id", "required")
	}
	return s.repo.Delete(ctx, id)
}

func validate(p Pet, now time.Time) error {
	if p.Name == "" {
		return errs.Invalid("name", "required")
	}
	if !p.Species.IsValid() {
		return errs.Invalid("species", "must be one of dog, cat, bird, other")
	}
	if p.Size != "" && !p.Size.IsValid() {
		return errs.Invalid("size", "must be one of small, medium, large, giant")
	}
	if p.BirthDate != nil && p.BirthDate.After(now) {
		return errs.Invalid("birth_date", "must not be in the future")
	}
	for _, b := range p.Behaviors {
		if !b.Type.IsValid() {
			return errs.Invalid("behaviors", "unknown behavior "+string(b.Type))
		}
	}
	return nil
}

func normalizeAllergies(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		k := strings.ToLower(a)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}
