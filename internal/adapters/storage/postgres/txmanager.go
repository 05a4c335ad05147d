package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"petshop-manager/internal/ports/tx"
)

// TxManager abre una tx por RunInTx y la deja en el contexto para los repos.
// Una llamada anidada reutiliza la tx externa.
type TxManager struct {
	db DB
}

var _ tx.Runner = (*TxManager)(nil)

func NewTxManager(db DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx hace commit si fn devuelve nil; rollback ante error o panic.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	t, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = t.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, t)); err != nil {
		if rbErr := t.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := t.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
