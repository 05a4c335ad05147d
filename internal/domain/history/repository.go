package history

import "context"

type Repository interface {
	Create(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	// ListByPet ordena por occurred_at desc.
	ListByPet(ctx context.Context, petID string, f ListFilter) ([]Entry, error)
	Void(ctx context.Context, id string) error
}
