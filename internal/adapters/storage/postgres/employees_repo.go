package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/errs"
)

const employeesTable = "employees"

var employeeColumns = []string{
	"id", "name", "email", "phone", "role", "photo_url", "departments",
	"commission_enabled", "commission_percentage", "active", "user_id", "created_at", "updated_at",
}

type employeeRow struct {
	ID                   string              `db:"id"`
	Name                 string              `db:"name"`
	Email                string              `db:"email"`
	Phone                string              `db:"phone"`
	Role                 string              `db:"role"`
	PhotoURL             string              `db:"photo_url"`
	Departments          []string            `db:"departments"`
	CommissionEnabled    bool                `db:"commission_enabled"`
	CommissionPercentage decimal.NullDecimal `db:"commission_percentage"`
	Active               bool                `db:"active"`
	UserID               string              `db:"user_id"`
	CreatedAt            time.Time           `db:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at"`
}

func (r employeeRow) toDomain() employees.Employee {
	var depts []catalog.DepartmentID
	for _, d := range r.Departments {
		depts = append(depts, catalog.DepartmentID(d))
	}
	return employees.Employee{
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Role:                 employees.Role(r.Role),
		PhotoURL:             r.PhotoURL,
		Departments:          depts,
		CommissionEnabled:    r.CommissionEnabled,
		CommissionPercentage: fromNullDecimal(r.CommissionPercentage),
		Active:               r.Active,
		UserID:               r.UserID,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func departmentStrings(ds []catalog.DepartmentID) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, string(d))
	}
	return out
}

type EmployeesRepo struct {
	db DB
}

var _ employees.Repository = (*EmployeesRepo)(nil)

func NewEmployeesRepo(db DB) *EmployeesRepo {
	return &EmployeesRepo{db: db}
}

func (r *EmployeesRepo) Create(ctx context.Context, e employees.Employee) error {
	q := psql.Insert(employeesTable).Columns(employeeColumns...).Values(
		e.ID, e.Name, e.Email, e.Phone, string(e.Role), e.PhotoURL, departmentStrings(e.Departments),
		e.CommissionEnabled, toNullDecimal(e.CommissionPercentage), e.Active, e.UserID, e.CreatedAt, e.UpdatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "employee", e.ID)
}

func (r *EmployeesRepo) Update(ctx context.Context, e employees.Employee) error {
	q := psql.Update(employeesTable).SetMap(map[string]any{
		"name":                  e.Name,
		"email":                 e.Email,
		"phone":                 e.Phone,
		"role":                  string(e.Role),
		"photo_url":             e.PhotoURL,
		"departments":           departmentStrings(e.Departments),
		"commission_enabled":    e.CommissionEnabled,
		"commission_percentage": toNullDecimal(e.CommissionPercentage),
		"active":                e.Active,
		"user_id":               e.UserID,
		"updated_at":            e.UpdatedAt,
	}).Where(squirrel.Eq{"id": e.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "employee", e.ID)
	}
	if n == 0 {
		return errs.NotFound("employee", e.ID)
	}
	return nil
}

func (r *EmployeesRepo) GetByID(ctx context.Context, id string) (employees.Employee, error) {
	var row employeeRow
	q := psql.Select(employeeColumns...).From(employeesTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return employees.Employee{}, mapError(err, "employee", id)
	}
	return row.toDomain(), nil
}

func (r *EmployeesRepo) List(ctx context.Context, f employees.ListFilter) ([]employees.Employee, error) {
	q := psql.Select(employeeColumns...).From(employeesTable).OrderBy("name ASC", "id ASC")
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if f.DepartmentID != "" {
		// sin departamentos = atiende todos
		q = q.Where(squirrel.Expr("(cardinality(departments) = 0 OR ? = ANY(departments))", string(f.DepartmentID)))
	}

	var rows []employeeRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "employee", "list")
	}
	out := make([]employees.Employee, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *EmployeesRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), employeesTable, "employee", id)
}
