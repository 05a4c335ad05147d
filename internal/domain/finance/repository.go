package finance

import "context"

type Repository interface {
	Create(ctx context.Context, t Transaction) error
	GetByID(ctx context.Context, id string) (Transaction, error)
	// List ordena por Date desc.
	List(ctx context.Context, f ListFilter) ([]Transaction, error)
	Delete(ctx context.Context, id string) error
	// Totals suma Amount agrupando por (type, category) dentro del rango.
	Totals(ctx context.Context, r Range) ([]Total, error)
}
