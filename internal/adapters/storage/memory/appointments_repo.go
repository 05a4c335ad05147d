package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/errs"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment

	onDelete func(ctx context.Context, id string) // ver Store
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{byID: make(map[string]appointments.Appointment)}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errs.ErrConflict
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return errs.NotFound("appointment", a.ID)
	}
	cur.DepartmentID = a.DepartmentID
	cur.ServiceID = a.ServiceID
	cur.EmployeeID = a.EmployeeID
	cur.PackageID = a.PackageID
	cur.ScheduledAt = a.ScheduledAt
	cur.Notes = a.Notes
	cur.UpdatedAt = a.UpdatedAt
	r.byID[a.ID] = cur
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, errs.NotFound("appointment", id)
	}
	return a, nil
}

func (r *appointmentRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}

	key := func(a appointments.Appointment) time.Time { return a.ScheduledAt }
	if f.OrderByCheckIn {
		key = func(a appointments.Appointment) time.Time {
			if a.CheckInAt != nil {
				return *a.CheckInAt
			}
			return a.ScheduledAt
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("appointment", id)
	}
	delete(r.byID, id)
	if r.onDelete != nil {
		r.onDelete(ctx, id)
	}
	return nil
}

func (r *appointmentRepo) Transition(ctx context.Context, a appointments.Appointment, from appointments.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return errs.NotFound("appointment", a.ID)
	}
	if cur.Status != from {
		return errs.ErrConflict
	}
	cur.Status = a.Status
	cur.CheckInAt = a.CheckInAt
	cur.CheckOutAt = a.CheckOutAt
	cur.BeforePhotoURL = a.BeforePhotoURL
	cur.AfterPhotoURL = a.AfterPhotoURL
	cur.Notes = a.Notes
	cur.UpdatedAt = a.UpdatedAt
	r.byID[a.ID] = cur
	return nil
}
