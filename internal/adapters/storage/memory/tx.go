package memory

import (
	"context"
	"sync"

	"petshop-manager/internal/ports/tx"
)

type txKey struct{}

// TxManager serializa las unidades de trabajo. No hay rollback: lo escrito
// antes de un error queda escrito.
type TxManager struct {
	mu sync.Mutex
}

var _ tx.Runner = (*TxManager)(nil)

func NewTxManager() *TxManager { return &TxManager{} }

func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// anidado: ya tenemos el lock
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}
