package packages

import (
	"context"
	"time"
)

type Repository interface {
	CreatePackage(ctx context.Context, p ServicePackage) error
	UpdatePackage(ctx context.Context, p ServicePackage) error
	GetPackage(ctx context.Context, id string) (ServicePackage, error)
	// ListPackages ordena por nombre.
	ListPackages(ctx context.Context, activeOnly bool) ([]ServicePackage, error)
	DeletePackage(ctx context.Context, id string) error

	CreateCustomerPackage(ctx context.Context, c CustomerPackage) error
	GetCustomerPackage(ctx context.Context, id string) (CustomerPackage, error)
	// ListCustomerPackages incluye agotados y vencidos, más recientes primero.
	ListCustomerPackages(ctx context.Context, f CustomerFilter) ([]CustomerPackage, error)
	// ActiveCredits: remaining_uses > 0 AND expires_at > now, por expires_at asc.
	ActiveCredits(ctx context.Context, now time.Time, f CustomerFilter) ([]CustomerPackage, error)

	// ConsumeCredit decrementa en 1 de forma atómica (remaining_uses > 0,
	// expires_at > now, appointmentID no usado) y agrega appointmentID.
	// Errores: ErrNotFound, ErrInsufficientCredit, ErrCreditExpired, ErrConflict.
	ConsumeCredit(ctx context.Context, id, appointmentID string, now time.Time) (CustomerPackage, error)
}
