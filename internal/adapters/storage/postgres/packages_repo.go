package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/packages"
)

const (
	servicePackagesTable  = "service_packages"
	customerPackagesTable = "customer_packages"
)

var servicePackageColumns = []string{
	"id", "name", "description", "service_id", "quantity", "validity_days",
	"original_price", "discounted_price", "active", "created_at", "updated_at",
}

var customerPackageColumns = []string{
	"id", "package_id", "service_id", "owner_id", "pet_id", "quantity", "remaining_uses",
	"purchased_at", "expires_at", "used_appointments", "created_at",
}

type servicePackageRow struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Description     string          `db:"description"`
	ServiceID       string          `db:"service_id"`
	Quantity        int             `db:"quantity"`
	ValidityDays    int             `db:"validity_days"`
	OriginalPrice   decimal.Decimal `db:"original_price"`
	DiscountedPrice decimal.Decimal `db:"discounted_price"`
	Active          bool            `db:"active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type customerPackageRow struct {
	ID               string    `db:"id"`
	PackageID        string    `db:"package_id"`
	ServiceID        string    `db:"service_id"`
	OwnerID          string    `db:"owner_id"`
	PetID            string    `db:"pet_id"`
	Quantity         int       `db:"quantity"`
	RemainingUses    int       `db:"remaining_uses"`
	PurchasedAt      time.Time `db:"purchased_at"`
	ExpiresAt        time.Time `db:"expires_at"`
	UsedAppointments []string  `db:"used_appointments"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r customerPackageRow) toDomain() packages.CustomerPackage {
	c := packages.CustomerPackage(r)
	if c.UsedAppointments == nil {
		c.UsedAppointments = []string{}
	}
	return c
}

type PackagesRepo struct {
	db DB
}

var _ packages.Repository = (*PackagesRepo)(nil)

func NewPackagesRepo(db DB) *PackagesRepo {
	return &PackagesRepo{db: db}
}

func (r *PackagesRepo) CreatePackage(ctx context.Context, p packages.ServicePackage) error {
	q := psql.Insert(servicePackagesTable).Columns(servicePackageColumns...).Values(
		p.ID, p.Name, p.Description, p.ServiceID, p.Quantity, p.ValidityDays,
		p.OriginalPrice, p.DiscountedPrice, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "service package", p.ID)
}

func (r *PackagesRepo) UpdatePackage(ctx context.Context, p packages.ServicePackage) error {
	q := psql.Update(servicePackagesTable).SetMap(map[string]any{
		"name":             p.Name,
		"description":      p.Description,
		"service_id":       p.ServiceID,
		"quantity":         p.Quantity,
		"validity_days":    p.ValidityDays,
		"original_price":   p.OriginalPrice,
		"discounted_price": p.DiscountedPrice,
		"active":           p.Active,
		"updated_at":       p.UpdatedAt,
	}).Where(squirrel.Eq{"id": p.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "service package", p.ID)
	}
	if n == 0 {
		return errs.NotFound("service package", p.ID)
	}
	return nil
}

func (r *PackagesRepo) GetPackage(ctx context.Context, id string) (packages.ServicePackage, error) {
	var row servicePackageRow
	q := psql.Select(servicePackageColumns...).From(servicePackagesTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return packages.ServicePackage{}, mapError(err, "service package", id)
	}
	return packages.ServicePackage(row), nil
}

func (r *PackagesRepo) ListPackages(ctx context.Context, activeOnly bool) ([]packages.ServicePackage, error) {
	q := psql.Select(servicePackageColumns...).From(servicePackagesTable).OrderBy("name ASC", "id ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	var rows []servicePackageRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "service package", "list")
	}
	out := make([]packages.ServicePackage, 0, len(rows))
	for _, row := range rows {
		out = append(out, packages.ServicePackage(row))
	}
	return out, nil
}

// DeletePackage: ErrConflict si ya se vendió (FK RESTRICT desde customer_packages).
func (r *PackagesRepo) DeletePackage(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), servicePackagesTable, "service package", id)
}

func (r *PackagesRepo) CreateCustomerPackage(ctx context.Context, c packages.CustomerPackage) error {
	q := psql.Insert(customerPackagesTable).Columns(customerPackageColumns...).Values(
		c.ID, c.PackageID, c.ServiceID, c.OwnerID, c.PetID, c.Quantity, c.RemainingUses,
		c.PurchasedAt, c.ExpiresAt, nonNilStrings(c.UsedAppointments), c.CreatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "customer package", c.ID)
}

func (r *PackagesRepo) GetCustomerPackage(ctx context.Context, id string) (packages.CustomerPackage, error) {
	var row customerPackageRow
	q := psql.Select(customerPackageColumns...).From(customerPackagesTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return packages.CustomerPackage{}, mapError(err, "customer package", id)
	}
	return row.toDomain(), nil
}

func (r *PackagesRepo) ListCustomerPackages(ctx context.Context, f packages.CustomerFilter) ([]packages.CustomerPackage, error) {
	q := customerFilter(psql.Select(customerPackageColumns...).From(customerPackagesTable), f).
		OrderBy("purchased_at DESC", "id ASC")
	return r.listCustomer(ctx, q)
}

func (r *PackagesRepo) ActiveCredits(ctx context.Context, now time.Time, f packages.CustomerFilter) ([]packages.CustomerPackage, error) {
	q := customerFilter(psql.Select(customerPackageColumns...).From(customerPackagesTable), f).
		Where(squirrel.Gt{"remaining_uses": 0}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("expires_at ASC", "id ASC")
	return r.listCustomer(ctx, q)
}

// ConsumeCredit descuenta con un UPDATE condicional. Si no afecta filas,
// relee el paquete para explicar el motivo.
func (r *PackagesRepo) ConsumeCredit(ctx context.Context, id, appointmentID string, now time.Time) (packages.CustomerPackage, error) {
	q := psql.Update(customerPackagesTable).
		Set("remaining_uses", squirrel.Expr("remaining_uses - 1")).
		Set("used_appointments", squirrel.Expr("array_append(used_appointments, ?)", appointmentID)).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Gt{"remaining_uses": 0}).
		Where(squirrel.Gt{"expires_at": now}).
		Where(squirrel.Expr("NOT (? = ANY(used_appointments))", appointmentID)).
		Suffix("RETURNING " + strings.Join(customerPackageColumns, ", "))

	var row customerPackageRow
	err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q)
	if err == nil {
		return row.toDomain(), nil
	}
	mapped := mapError(err, "customer package", id)
	if !errors.Is(mapped, errs.ErrNotFound) {
		return packages.CustomerPackage{}, mapped
	}

	current, getErr := r.GetCustomerPackage(ctx, id)
	if getErr != nil {
		return packages.CustomerPackage{}, getErr
	}
	if reason := current.CheckConsume(now, appointmentID); reason != nil {
		return packages.CustomerPackage{}, reason
	}
	// cambió entre el UPDATE y la relectura
	return packages.CustomerPackage{}, fmt.Errorf("customer package %s: %w", id, errs.ErrConflict)
}

func (r *PackagesRepo) listCustomer(ctx context.Context, q squirrel.SelectBuilder) ([]packages.CustomerPackage, error) {
	var rows []customerPackageRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "customer package", "list")
	}
	out := make([]packages.CustomerPackage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func customerFilter(q squirrel.SelectBuilder, f packages.CustomerFilter) squirrel.SelectBuilder {
	if f.OwnerID != "" {
		q = q.Where(squirrel.Eq{"owner_id": f.OwnerID})
	}
	if f.PetID != "" {
		q = q.Where(squirrel.Eq{"pet_id": f.PetID})
	}
	return q
}
