package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/notifications"
)

type outboxRepo struct {
	mu   sync.Mutex
	byID map[string]notifications.Message
}

func NewOutboxRepo() notifications.Repository {
	return &outboxRepo{byID: make(map[string]notifications.Message)}
}

func (r *outboxRepo) Enqueue(ctx context.Context, m notifications.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errs.ErrConflict
	}
	m.Payload = slices.Clone(m.Payload)
	r.byID[m.ID] = m
	return nil
}

func (r *outboxRepo) GetByID(ctx context.Context, id string) (notifications.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return notifications.Message{}, errs.NotFound("notification", id)
	}
	return m, nil
}

// List devuelve los más recientes primero.
func (r *outboxRepo) List(ctx context.Context, f notifications.ListFilter) ([]notifications.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]notifications.Message, 0)
	for _, m := range r.byID {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.AppointmentID != "" && m.AppointmentID != f.AppointmentID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *outboxRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]notifications.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]notifications.Message, 0)
	for _, m := range r.byID {
		if claimable(m, now) {
			due = append(due, m)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].NextAttemptAt = now.Add(lease)
		r.byID[due[i].ID] = due[i]
	}
	return due, nil
}

func (r *outboxRepo) ClaimByID(ctx context.Context, id string, now time.Time, lease time.Duration) (notifications.Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return notifications.Message{}, false, errs.NotFound("notification", id)
	}
	if !claimable(m, now) {
		return notifications.Message{}, false, nil
	}
	m.NextAttemptAt = now.Add(lease)
	r.byID[id] = m
	return m, true, nil
}

func (r *outboxRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return errs.NotFound("notification", id)
	}
	m.Status = notifications.StatusDelivered
	m.Attempts++
	m.DeliveredAt = &at
	m.LastError = ""
	r.byID[id] = m
	return nil
}

func (r *outboxRepo) MarkAttemptFailed(ctx context.Context, id string, attempts int, nextAt time.Time, lastErr string, final bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return errs.NotFound("notification", id)
	}
	m.Attempts = attempts
	m.NextAttemptAt = nextAt
	m.LastError = lastErr
	if final {
		m.Status = notifications.StatusFailed
	}
	r.byID[id] = m
	return nil
}

func claimable(m notifications.Message, now time.Time) bool {
	return m.Status == notifications.StatusPending && !m.NextAttemptAt.After(now)
}
