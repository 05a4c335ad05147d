package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/finance"
)

type transactionRepo struct {
	mu   sync.RWMutex
	byID map[string]finance.Transaction
}

func NewTransactionRepo() finance.Repository {
	return &transactionRepo{byID: make(map[string]finance.Transaction)}
}

func (r *transactionRepo) Create(ctx context.Context, t finance.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errs.ErrConflict
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (finance.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return finance.Transaction{}, errs.NotFound("transaction", id)
	}
	return t, nil
}

func (r *transactionRepo) List(ctx context.Context, f finance.ListFilter) ([]finance.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]finance.Transaction, 0)
	for _, t := range r.byID {
		if !f.Contains(t.Date) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.AppointmentID != "" && t.AppointmentID != f.AppointmentID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *transactionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("transaction", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *transactionRepo) Totals(ctx context.Context, rng finance.Range) ([]finance.Total, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := make(map[finance.Key]int)
	out := make([]finance.Total, 0)
	for _, t := range r.byID {
		if !rng.Contains(t.Date) {
			continue
		}
		k := finance.Key{Type: t.Type, Category: t.Category}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, finance.Total{Key: k})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out, nil
}
