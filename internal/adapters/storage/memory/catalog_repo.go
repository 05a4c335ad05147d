package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
)

type offeringRepo struct {
	mu   sync.RWMutex
	byID map[string]catalog.Offering
}

func NewOfferingRepo() catalog.Repository {
	return &offeringRepo{byID: make(map[string]catalog.Offering)}
}

func (r *offeringRepo) Create(ctx context.Context, o catalog.Offering) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return errs.ErrConflict
	}
	r.byID[o.ID] = o
	return nil
}

func (r *offeringRepo) Update(ctx context.Context, o catalog.Offering) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[o.ID]; !exists {
		return errs.NotFound("service", o.ID)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *offeringRepo) GetByID(ctx context.Context, id string) (catalog.Offering, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return catalog.Offering{}, errs.NotFound("service", id)
	}
	return o, nil
}

// List ordena por departamento (orden fijo) y después por nombre.
func (r *offeringRepo) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Offering, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Offering, 0)
	for _, o := range r.byID {
		if f.DepartmentID != "" && o.DepartmentID != f.DepartmentID {
			continue
		}
		if f.ActiveOnly && !o.Active {
			continue
		}
		out = append(out, o)
	}

	order := catalog.AllDepartments()
	sort.Slice(out, func(i, j int) bool {
		di, dj := slices.Index(order, out[i].DepartmentID), slices.Index(order, out[j].DepartmentID)
		if di != dj {
			return di < dj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *offeringRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("service", id)
	}
	delete(r.byID, id)
	return nil
}
