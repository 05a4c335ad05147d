package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
)

const appointmentsTable = "appointments"

var appointmentColumns = []string{
	"id", "pet_id", "owner_id", "department_id", "service_id", "employee_id", "package_id",
	"scheduled_at", "status", "check_in_at", "check_out_at",
	"before_photo_url", "after_photo_url", "notes", "price", "created_at", "updated_at",
}

type appointmentRow struct {
	ID             string          `db:"id"`
	PetID          string          `db:"pet_id"`
	OwnerID        string          `db:"owner_id"`
	DepartmentID   string          `db:"department_id"`
	ServiceID      string          `db:"service_id"`
	EmployeeID     *string         `db:"employee_id"`
	PackageID      *string         `db:"package_id"`
	ScheduledAt    time.Time       `db:"scheduled_at"`
	Status         string          `db:"status"`
	CheckInAt      *time.Time      `db:"check_in_at"`
	CheckOutAt     *time.Time      `db:"check_out_at"`
	BeforePhotoURL string          `db:"before_photo_url"`
	AfterPhotoURL  string          `db:"after_photo_url"`
	Notes          string          `db:"notes"`
	Price          decimal.Decimal `db:"price"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (r appointmentRow) toDomain() appointments.Appointment {
	return appointments.Appointment{
		ID:             r.ID,
		PetID:          r.PetID,
		OwnerID:        r.OwnerID,
		DepartmentID:   catalog.DepartmentID(r.DepartmentID),
		ServiceID:      r.ServiceID,
		EmployeeID:     deref(r.EmployeeID),
		PackageID:      deref(r.PackageID),
		ScheduledAt:    r.ScheduledAt,
		Status:         appointments.Status(r.Status),
		CheckInAt:      r.CheckInAt,
		CheckOutAt:     r.CheckOutAt,
		BeforePhotoURL: r.BeforePhotoURL,
		AfterPhotoURL:  r.AfterPhotoURL,
		Notes:          r.Notes,
		Price:          r.Price,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type AppointmentsRepo struct {
	db DB
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)

func NewAppointmentsRepo(db DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	q := psql.Insert(appointmentsTable).Columns(appointmentColumns...).Values(
		a.ID, a.PetID, a.OwnerID, string(a.DepartmentID), a.ServiceID,
		nullIfEmpty(a.EmployeeID), nullIfEmpty(a.PackageID),
		a.ScheduledAt, string(a.Status), a.CheckInAt, a.CheckOutAt,
		a.BeforePhotoURL, a.AfterPhotoURL, a.Notes, a.Price, a.CreatedAt, a.UpdatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "appointment", a.ID)
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	q := psql.Update(appointmentsTable).SetMap(map[string]any{
		"department_id": string(a.DepartmentID),
		"service_id":    a.ServiceID,
		"employee_id":   nullIfEmpty(a.EmployeeID),
		"package_id":    nullIfEmpty(a.PackageID),
		"scheduled_at":  a.ScheduledAt,
		"notes":         a.Notes,
		"updated_at":    a.UpdatedAt,
	}).Where(squirrel.Eq{"id": a.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "appointment", a.ID)
	}
	if n == 0 {
		return errs.NotFound("appointment", a.ID)
	}
	return nil
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	var row appointmentRow
	q := psql.Select(appointmentColumns...).From(appointmentsTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return appointments.Appointment{}, mapError(err, "appointment", id)
	}
	return row.toDomain(), nil
}

func (r *AppointmentsRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	q := psql.Select(appointmentColumns...).From(appointmentsTable)
	if len(f.Statuses) > 0 {
		st := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			st = append(st, string(s))
		}
		q = q.Where(squirrel.Eq{"status": st})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"scheduled_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"scheduled_at": *f.To})
	}
	if f.OwnerID != "" {
		q = q.Where(squirrel.Eq{"owner_id": f.OwnerID})
	}
	if f.PetID != "" {
		q = q.Where(squirrel.Eq{"pet_id": f.PetID})
	}
	if f.EmployeeID != "" {
		q = q.Where(squirrel.Eq{"employee_id": f.EmployeeID})
	}
	if f.DepartmentID != "" {
		q = q.Where(squirrel.Eq{"department_id": string(f.DepartmentID)})
	}
	if f.OrderByCheckIn {
		q = q.OrderBy("COALESCE(check_in_at, scheduled_at) ASC", "id ASC")
	} else {
		q = q.OrderBy("scheduled_at ASC", "id ASC")
	}

	var rows []appointmentRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "appointment", "list")
	}
	out := make([]appointments.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), appointmentsTable, "appointment", id)
}

// Transition es un compare-and-set sobre status.
func (r *AppointmentsRepo) Transition(ctx context.Context, a appointments.Appointment, from appointments.Status) error {
	q := psql.Update(appointmentsTable).SetMap(map[string]any{
		"status":           string(a.Status),
		"check_in_at":      a.CheckInAt,
		"check_out_at":     a.CheckOutAt,
		"before_photo_url": a.BeforePhotoURL,
		"after_photo_url":  a.AfterPhotoURL,
		"notes":            a.Notes,
		"updated_at":       a.UpdatedAt,
	}).Where(squirrel.Eq{"id": a.ID, "status": string(from)})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "appointment", a.ID)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, a.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("appointment %s: recheck: %w", a.ID, err)
	}
	return fmt.Errorf("appointment %s is no longer %s: %w", a.ID, from, errs.ErrConflict)
}
