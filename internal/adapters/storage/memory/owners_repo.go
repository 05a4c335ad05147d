package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/owners"
)

type ownerRepo struct {
	mu   sync.RWMutex
	byID map[string]owners.Owner

	onDelete func(ctx context.Context, id string) // ver Store
}

func NewOwnerRepo() owners.Repository {
	return &ownerRepo{byID: make(map[string]owners.Owner)}
}

func (r *ownerRepo) Create(ctx context.Context, o owners.Owner) error {
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

func (r *ownerRepo) Update(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[o.ID]; !exists {
		return errs.NotFound("owner", o.ID)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *ownerRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return owners.Owner{}, errs.NotFound("owner", id)
	}
	return o, nil
}

func (r *ownerRepo) Search(ctx context.Context, query string) ([]owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]owners.Owner, 0)
	for _, o := range r.byID {
		if q != "" && !ownerMatches(o, q) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *ownerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("owner", id)
	}
	delete(r.byID, id)
	if r.onDelete != nil {
		r.onDelete(ctx, id)
	}
	return nil
}

func ownerMatches(o owners.Owner, q string) bool {
	for _, v := range []string{o.Name, o.Email, o.Phone, o.WhatsApp, o.TaxID} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
