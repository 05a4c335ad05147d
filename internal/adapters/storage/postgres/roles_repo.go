package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/ports/auth"
)

const userRolesTable = "user_roles"

// RolesRepo guarda los roles asignados a usuarios del proveedor de identidad.
type RolesRepo struct {
	db DB
}

var _ auth.RoleSource = (*RolesRepo)(nil)

func NewRolesRepo(db DB) *RolesRepo {
	return &RolesRepo{db: db}
}

// RoleOf devuelve el rol efectivo: admin gana si el usuario tiene varios.
func (r *RolesRepo) RoleOf(ctx context.Context, userID string) (auth.Role, bool, error) {
	var roles []string
	q := psql.Select("role").From(userRolesTable).Where(squirrel.Eq{"user_id": userID})
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &roles, q); err != nil {
		return "", false, mapError(err, "user role", userID)
	}
	if len(roles) == 0 {
		return "", false, nil
	}
	for _, role := range roles {
		if auth.Role(role) == auth.RoleAdmin {
			return auth.RoleAdmin, true, nil
		}
	}
	return auth.Role(roles[0]), true, nil
}

func (r *RolesRepo) Assign(ctx context.Context, userID string, role auth.Role) error {
	if !role.IsValid() {
		return errs.Invalid("role", "must be admin or colaborador")
	}
	q := psql.Insert(userRolesTable).Columns("user_id", "role").Values(userID, string(role)).
		Suffix("ON CONFLICT (user_id, role) DO NOTHING")
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "user role", userID)
}

func (r *RolesRepo) Revoke(ctx context.Context, userID string, role auth.Role) error {
	q := psql.Delete(userRolesTable).Where(squirrel.Eq{"user_id": userID, "role": string(role)})
	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "user role", userID)
	}
	if n == 0 {
		return errs.NotFound("user role", userID)
	}
	return nil
}
