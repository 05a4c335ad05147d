package tx

import "context"

// Runner ejecuta fn dentro de una transacción. Los repos obtienen la tx del ctx.
// Postgres: commit/rollback reales. Memory: serializa, sin rollback.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
