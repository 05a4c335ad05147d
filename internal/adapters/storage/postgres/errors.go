package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"petshop-manager/internal/domain/errs"
)

// mapError traduce errores de pgx a los sentinels de dominio.
// Los errores de contexto pasan tal cual.
func mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return errs.NotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, errs.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %s: %w", entity, id, pgErr.ConstraintName, errs.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %s: %w", entity, id, pgErr.ConstraintName, errs.ErrValidation)
		case "22P02": // invalid_text_representation (uuid mal formado)
			return errs.NotFound(entity, id)
		}
	}

	return fmt.Errorf("%s %s: %v: %w", entity, id, err, errs.ErrBackend)
}

// mapDeleteError: en un DELETE la violación de FK significa que la fila
// sigue referenciada (ON DELETE RESTRICT).
func mapDeleteError(err error, entity, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%s %s is still referenced: %w", entity, id, errs.ErrConflict)
	}
	return mapError(err, entity, id)
}
