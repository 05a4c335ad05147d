package catalog

import "context"

type Repository interface {
	Create(ctx context.Context, o Offering) error
	Update(ctx context.Context, o Offering) error
	GetByID(ctx context.Context, id string) (Offering, error)
	List(ctx context.Context, f ListFilter) ([]Offering, error)
	Delete(ctx context.Context, id string) error
}
