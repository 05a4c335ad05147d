package packages

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/errs"
)

// ServicePackage es un combo vendible de N usos de un servicio.
type ServicePackage struct {
	ID          string
	Name        string
	Description string
	ServiceID   string

	Quantity     int
	ValidityDays int

	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal // <= OriginalPrice

	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerPackage es una venta de un ServicePackage a un tutor/mascota.
// RemainingUses solo decrece; ExpiresAt queda fijo al vender.
type CustomerPackage struct {
	ID        string
	PackageID string
	ServiceID string // snapshot del servicio del paquete
	OwnerID   string
	PetID     string

	Quantity      int
	RemainingUses int

	PurchasedAt time.Time
	ExpiresAt   time.Time

	UsedAppointments []string

	CreatedAt time.Time
}

// Active: hay saldo y no venció.
func (c CustomerPackage) Active(now time.Time) bool {
	return c.RemainingUses > 0 && now.Before(c.ExpiresAt)
}

// CheckConsume clasifica por qué un crédito no puede usarse; nil si puede.
// Los repos la usan para explicar un UPDATE condicional que no afectó filas.
func (c CustomerPackage) CheckConsume(now time.Time, appointmentID string) error {
	switch {
	case slices.Contains(c.UsedAppointments, appointmentID):
		return errs.ErrConflict
	case c.RemainingUses <= 0:
		return errs.ErrInsufficientCredit
	case !now.Before(c.ExpiresAt):
		return errs.ErrCreditExpired
	}
	return nil
}

type CustomerFilter struct {
	OwnerID string
	PetID   string
}
