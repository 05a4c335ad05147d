package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet

	onDelete func(ctx context.Context, id string) // ver Store
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errs.ErrConflict
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return errs.NotFound("pet", p.ID)
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, errs.NotFound("pet", id)
	}
	return clonePet(p), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	return r.Search(ctx, pets.SearchFilter{OwnerID: ownerID})
}

func (r *petRepo) Search(ctx context.Context, f pets.SearchFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(f.Query)
	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Species != "" && p.Species != f.Species {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Breed), q) {
			continue
		}
		out = append(out, clonePet(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("pet", id)
	}
	delete(r.byID, id)
	if r.onDelete != nil {
		r.onDelete(ctx, id)
	}
	return nil
}

func clonePet(p pets.Pet) pets.Pet {
	p.Allergies = slices.Clone(p.Allergies)
	p.Behaviors = slices.Clone(p.Behaviors)
	if p.BirthDate != nil {
		d := *p.BirthDate
		p.BirthDate = &d
	}
	return p
}
