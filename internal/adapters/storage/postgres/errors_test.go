package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"petshop-manager/internal/domain/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, errs.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), errs.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, errs.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "pets_owner_id_fkey"}, errs.ErrNotFound},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "pets_species_check"}, errs.ErrValidation},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, errs.ErrNotFound},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
		{"other", errors.New("connection reset"), errs.ErrBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "pet", "p1")
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "pet p1")
		})
	}

	assert.NoError(t, mapError(nil, "pet", "p1"))
}

func TestMapDeleteError_ForeignKeyIsConflict(t *testing.T) {
	err := mapDeleteError(&pgconn.PgError{Code: "23503"}, "service", "s1")
	assert.ErrorIs(t, err, errs.ErrConflict)

	err = mapDeleteError(pgx.ErrNoRows, "service", "s1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%thor%`, likePattern("thor"))
	assert.Equal(t, `%100\%\_a\\b%`, likePattern(`100%_a\b`))
}
