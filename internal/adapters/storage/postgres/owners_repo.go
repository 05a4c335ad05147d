package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/owners"
)

const ownersTable = "owners"

var ownerColumns = []string{
	"id", "name", "email", "phone", "whatsapp", "address", "tax_id", "notes", "created_at", "updated_at",
}

type ownerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	WhatsApp  string    `db:"whatsapp"`
	Address   string    `db:"address"`
	TaxID     string    `db:"tax_id"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r ownerRow) toDomain() owners.Owner {
	return owners.Owner(r)
}

type OwnersRepo struct {
	db DB
}

var _ owners.Repository = (*OwnersRepo)(nil)

func NewOwnersRepo(db DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	q := psql.Insert(ownersTable).Columns(ownerColumns...).Values(
		o.ID, o.Name, o.Email, o.Phone, o.WhatsApp, o.Address, o.TaxID, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "owner", o.ID)
}

func (r *OwnersRepo) Update(ctx context.Context, o owners.Owner) error {
	q := psql.Update(ownersTable).SetMap(map[string]any{
		"name":       o.Name,
		"email":      o.Email,
		"phone":      o.Phone,
		"whatsapp":   o.WhatsApp,
		"address":    o.Address,
		"tax_id":     o.TaxID,
		"notes":      o.Notes,
		"updated_at": o.UpdatedAt,
	}).Where(squirrel.Eq{"id": o.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "owner", o.ID)
	}
	if n == 0 {
		return errs.NotFound("owner", o.ID)
	}
	return nil
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	var row ownerRow
	q := psql.Select(ownerColumns...).From(ownersTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return owners.Owner{}, mapError(err, "owner", id)
	}
	return row.toDomain(), nil
}

func (r *OwnersRepo) Search(ctx context.Context, query string) ([]owners.Owner, error) {
	q := psql.Select(ownerColumns...).From(ownersTable).OrderBy("lower(name) ASC", "id ASC")
	if query = strings.TrimSpace(query); query != "" {
		pat := likePattern(query)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pat},
			squirrel.ILike{"email": pat},
			squirrel.ILike{"phone": pat},
			squirrel.ILike{"whatsapp": pat},
			squirrel.ILike{"tax_id": pat},
		})
	}

	var rows []ownerRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "owner", "search")
	}
	out := make([]owners.Owner, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), ownersTable, "owner", id)
}
