package packages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/ports/tx"
)

type OfferingLookup interface {
	Get(ctx context.Context, id string) (catalog.Offering, error)
}

type OwnerRegistry interface {
	Exists(ctx context.Context, id string) error
}

type PetOwnership interface {
	EnsureBelongsTo(ctx context.Context, petID, ownerID string) error
}

type LedgerRecorder interface {
	Record(ctx context.Context, in finance.RecordInput) (finance.Transaction, error)
}

type Deps struct {
	Repo      Repository
	Tx        tx.Runner
	Offerings OfferingLookup
	Owners    OwnerRegistry
	Pets      PetOwnership
	Ledger    LedgerRecorder // nil => sin asiento automático
}

type Service struct {
	repo      Repository
	tx        tx.Runner
	offerings OfferingLookup
	owners    OwnerRegistry
	pets      PetOwnership
	ledger    LedgerRecorder
	now       func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		tx:        d.Tx,
		offerings: d.Offerings,
		owners:    d.Owners,
		pets:      d.Pets,
		ledger:    d.Ledger,
		now:       time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type CreatePackageInput struct {
	Name            string
	Description     string
	ServiceID       string
	Quantity        int
	ValidityDays    int
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
}

func (s *Service) CreatePackage(ctx context.Context, in CreatePackageInput) (ServicePackage, error) {
	now := s.now().UTC()
	p := ServicePackage{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		ServiceID:       strings.TrimSpace(in.ServiceID),
		Quantity:        in.Quantity,
		ValidityDays:    in.ValidityDays,
		OriginalPrice:   in.OriginalPrice,
		DiscountedPrice: in.DiscountedPrice,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validatePackage(p); err != nil {
		return ServicePackage{}, err
	}
	if _, err := s.offerings.Get(ctx, p.ServiceID); err != nil {
		return ServicePackage{}, err
	}

	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return ServicePackage{}, err
	}
	return p, nil
}

type UpdatePackageInput struct {
	Name            *string
	Description     *string
	ServiceID       *string
	Quantity        *int
	ValidityDays    *int
	OriginalPrice   *decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Active          *bool
}

// UpdatePackage no afecta ventas ya hechas: CustomerPackage guarda su propio saldo y vencimiento.
func (s *Service) UpdatePackage(ctx context.Context, id string, in UpdatePackageInput) (ServicePackage, error) {
	p, err := s.GetPackage(ctx, id)
	if err != nil {
		return ServicePackage{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	serviceChanged := false
	if in.ServiceID != nil && strings.TrimSpace(*in.ServiceID) != p.ServiceID {
		p.ServiceID = strings.TrimSpace(*in.ServiceID)
		serviceChanged = true
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.ValidityDays != nil {
		p.ValidityDays = *in.ValidityDays
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.DiscountedPrice != nil {
		p.DiscountedPrice = *in.DiscountedPrice
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := validatePackage(p); err != nil {
		return ServicePackage{}, err
	}
	if serviceChanged {
		if _, err := s.offerings.Get(ctx, p.ServiceID); err != nil {
			return ServicePackage{}, err
		}
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdatePackage(ctx, p); err != nil {
		return ServicePackage{}, err
	}
	return p, nil
}

func (s *Service) GetPackage(ctx context.Context, id string) (ServicePackage, error) {
	if strings.TrimSpace(id) == "" {
		return ServicePackage{}, errs.Invalid("package_id", "required")
	}
	return s.repo.GetPackage(ctx, id)
}

func (s *Service) ListPackages(ctx context.Context, activeOnly bool) ([]ServicePackage, error) {
	return s.repo.ListPackages(ctx, activeOnly)
}

func (s *Service) DeletePackage(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("package_id", "required")
	}
	return s.repo.DeletePackage(ctx, id)
}

type SellInput struct {
	PackageID string
	OwnerID   string
	PetID     string
}

// Sell crea el CustomerPackage y, con ledger, el ingreso en la misma tx.
func (s *Service) Sell(ctx context.Context, in SellInput) (CustomerPackage, error) {
	in.PackageID = strings.TrimSpace(in.PackageID)
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	in.PetID = strings.TrimSpace(in.PetID)
	switch {
	case in.PackageID == "":
		return CustomerPackage{}, errs.Invalid("package_id", "required")
	case in.OwnerID == "":
		return CustomerPackage{}, errs.Invalid("owner_id", "required")
	case in.PetID == "":
		return CustomerPackage{}, errs.Invalid("pet_id", "required")
	}

	var out CustomerPackage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		pkg, err := s.repo.GetPackage(ctx, in.PackageID)
		if err != nil {
			return err
		}
		if !pkg.Active {
			return errs.Invalid("package_id", "package is inactive")
		}
		if err := s.owners.Exists(ctx, in.OwnerID); err != nil {
			return err
		}
		if err := s.pets.EnsureBelongsTo(ctx, in.PetID, in.OwnerID); err != nil {
			return err
		}

		now := s.now().UTC()
		cp := CustomerPackage{
			ID:               uuid.NewString(),
			PackageID:        pkg.ID,
			ServiceID:        pkg.ServiceID,
			OwnerID:          in.OwnerID,
			PetID:            in.PetID,
			Quantity:         pkg.Quantity,
			RemainingUses:    pkg.Quantity,
			PurchasedAt:      now,
			ExpiresAt:        now.AddDate(0, 0, pkg.ValidityDays),
			UsedAppointments: []string{},
			CreatedAt:        now,
		}
		if err := s.repo.CreateCustomerPackage(ctx, cp); err != nil {
			return err
		}

		if s.ledger != nil && pkg.DiscountedPrice.IsPositive() {
			if _, err := s.ledger.Record(ctx, finance.RecordInput{
				Type:        finance.TypeIncome,
				Category:    finance.CategoryPackage,
				Description: "Venda de pacote: " + pkg.Name,
				Amount:      pkg.DiscountedPrice,
				Date:        now,
			}); err != nil {
				return fmt.Errorf("record package income: %w", err)
			}
		}

		out = cp
		return nil
	})
	if err != nil {
		return CustomerPackage{}, err
	}
	return out, nil
}

// ConsumeCredit descuenta un uso para la cita. Atómico en el repo.
func (s *Service) ConsumeCredit(ctx context.Context, customerPackageID, appointmentID string) (CustomerPackage, error) {
	if strings.TrimSpace(customerPackageID) == "" {
		return CustomerPackage{}, errs.Invalid("customer_package_id", "required")
	}
	if strings.TrimSpace(appointmentID) == "" {
		return CustomerPackage{}, errs.Invalid("appointment_id", "required")
	}

	cp, err := s.repo.ConsumeCredit(ctx, customerPackageID, appointmentID, s.now().UTC())
	if err != nil {
		return CustomerPackage{}, fmt.Errorf("consume credit %s: %w", customerPackageID, err)
	}
	return cp, nil
}

func (s *Service) GetCustomerPackage(ctx context.Context, id string) (CustomerPackage, error) {
	if strings.TrimSpace(id) == "" {
		return CustomerPackage{}, errs.Invalid("customer_package_id", "required")
	}
	return s.repo.GetCustomerPackage(ctx, id)
}

func (s *Service) ListCustomerPackages(ctx context.Context, f CustomerFilter) ([]CustomerPackage, error) {
	return s.repo.ListCustomerPackages(ctx, f)
}

func (s *Service) ActiveCredits(ctx context.Context, f CustomerFilter) ([]CustomerPackage, error) {
	return s.repo.ActiveCredits(ctx, s.now().UTC(), f)
}

// CheckUsable valida que el crédito sirva para una cita de ese tutor, mascota y servicio.
// No descuenta; eso ocurre en el checkout.
func (s *Service) CheckUsable(ctx context.Context, customerPackageID, ownerID, petID, serviceID string) error {
	cp, err := s.GetCustomerPackage(ctx, customerPackageID)
	if err != nil {
		return err
	}
	switch {
	case cp.OwnerID != ownerID:
		return errs.Invalid("package_id", "package belongs to another owner")
	case cp.PetID != petID:
		return errs.Invalid("package_id", "package belongs to another pet")
	case cp.ServiceID != serviceID:
		return errs.Invalid("package_id", "package does not cover this service")
	}
	if !cp.Active(s.now().UTC()) {
		if cp.RemainingUses <= 0 {
			return fmt.Errorf("customer package %s: %w", cp.ID, errs.ErrInsufficientCredit)
		}
		return fmt.Errorf("customer package %s: %w", cp.ID, errs.ErrCreditExpired)
	}
	return nil
}

func validatePackage(p ServicePackage) error {
	if p.Name == "" {
		return errs.Invalid("name", "required")
	}
	if p.ServiceID == "" {
		return errs.Invalid("service_id", "required")
	}
	if p.Quantity <= 0 {
		return errs.Invalid("quantity", "must be > 0")
	}
	if p.ValidityDays <= 0 {
		return errs.Invalid("validity_days", "must be > 0")
	}
	if p.OriginalPrice.IsNegative() {
		return errs.Invalid("original_price", "must be >= 0")
	}
	if p.DiscountedPrice.IsNegative() || p.DiscountedPrice.GreaterThan(p.OriginalPrice) {
		return errs.Invalid("discounted_price", "must be between 0 and original_price")
	}
	return nil
}
