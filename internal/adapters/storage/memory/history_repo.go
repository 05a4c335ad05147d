package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/history"
)

type historyRepo struct {
	mu   sync.RWMutex
	byID map[string]history.Entry
}

func NewHistoryRepo() history.Repository {
	return &historyRepo{byID: make(map[string]history.Entry)}
}

func (r *historyRepo) Create(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errs.ErrConflict
	}
	r.byID[e.ID] = e
	return nil
}

func (r *historyRepo) GetByID(ctx context.Context, id string) (history.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return history.Entry{}, errs.NotFound("history entry", id)
	}
	return e, nil
}

func (r *historyRepo) ListByPet(ctx context.Context, petID string, f history.ListFilter) ([]history.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]history.Entry, 0)
	for _, e := range r.byID {
		if e.PetID != petID || !f.Matches(e) {
			continue
		}
		if q != "" {
			hay := strings.ToLower(e.Title + " " + e.Notes)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		out = append(out, e)
	}

	// más recientes primero
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *historyRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return errs.NotFound("history entry", id)
	}
	e.Status = history.StatusVoided
	r.byID[id] = e
	return nil
}
