package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
)

const servicesTable = "services"

var serviceColumns = []string{
	"id", "department_id", "name", "description", "duration_minutes", "price",
	"commission_percentage", "active", "created_at", "updated_at",
}

// departmentOrder ordena por la posición fija del departamento.
var departmentOrder = func() string {
	ids := make([]string, 0, len(catalog.AllDepartments()))
	for _, d := range catalog.AllDepartments() {
		ids = append(ids, "'"+string(d)+"'")
	}
	return "array_position(ARRAY[" + strings.Join(ids, ",") + "]::text[], department_id)"
}()

type serviceRow struct {
	ID                   string              `db:"id"`
	DepartmentID         string              `db:"department_id"`
	Name                 string              `db:"name"`
	Description          string              `db:"description"`
	DurationMinutes      int                 `db:"duration_minutes"`
	Price                decimal.Decimal     `db:"price"`
	CommissionPercentage decimal.NullDecimal `db:"commission_percentage"`
	Active               bool                `db:"active"`
	CreatedAt            time.Time           `db:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at"`
}

func (r serviceRow) toDomain() catalog.Offering {
	return catalog.Offering{
		ID:                   r.ID,
		DepartmentID:         catalog.DepartmentID(r.DepartmentID),
		Name:                 r.Name,
		Description:          r.Description,
		DurationMinutes:      r.DurationMinutes,
		Price:                r.Price,
		CommissionPercentage: fromNullDecimal(r.CommissionPercentage),
		Active:               r.Active,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

type OfferingRepo struct {
	db DB
}

var _ catalog.Repository = (*OfferingRepo)(nil)

func NewOfferingRepo(db DB) *OfferingRepo {
	return &OfferingRepo{db: db}
}

func (r *OfferingRepo) Create(ctx context.Context, o catalog.Offering) error {
	q := psql.Insert(servicesTable).Columns(serviceColumns...).Values(
		o.ID, string(o.DepartmentID), o.Name, o.Description, o.DurationMinutes, o.Price,
		toNullDecimal(o.CommissionPercentage), o.Active, o.CreatedAt, o.UpdatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "service", o.ID)
}

func (r *OfferingRepo) Update(ctx context.Context, o catalog.Offering) error {
	q := psql.Update(servicesTable).SetMap(map[string]any{
		"department_id":         string(o.DepartmentID),
		"name":                  o.Name,
		"description":           o.Description,
		"duration_minutes":      o.DurationMinutes,
		"price":                 o.Price,
		"commission_percentage": toNullDecimal(o.CommissionPercentage),
		"active":                o.Active,
		"updated_at":            o.UpdatedAt,
	}).Where(squirrel.Eq{"id": o.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "service", o.ID)
	}
	if n == 0 {
		return errs.NotFound("service", o.ID)
	}
	return nil
}

func (r *OfferingRepo) GetByID(ctx context.Context, id string) (catalog.Offering, error) {
	var row serviceRow
	q := psql.Select(serviceColumns...).From(servicesTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return catalog.Offering{}, mapError(err, "service", id)
	}
	return row.toDomain(), nil
}

func (r *OfferingRepo) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Offering, error) {
	q := psql.Select(serviceColumns...).From(servicesTable).OrderBy(departmentOrder, "name ASC", "id ASC")
	if f.DepartmentID != "" {
		q = q.Where(squirrel.Eq{"department_id": string(f.DepartmentID)})
	}
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	var rows []serviceRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "service", "list")
	}
	out := make([]catalog.Offering, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *OfferingRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), servicesTable, "service", id)
}
