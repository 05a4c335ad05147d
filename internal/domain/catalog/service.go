package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/errs"
)

var hundred = decimal.NewFromInt(100)

// DepartmentToggles la implementa settings.Service (evita ciclo catalog <-> settings).
type DepartmentToggles interface {
	IsDepartmentEnabled(id DepartmentID) bool
}

type Service struct {
	repo    Repository
	toggles DepartmentToggles
	now     func() time.Time
}

// NewService: toggles puede ser nil (todos habilitados).
func NewService(repo Repository, toggles DepartmentToggles) *Service {
	return &Service{
		repo:    repo,
		toggles: toggles,
		now:     time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Departments lista los departamentos fijos con su flag de settings.
func (s *Service) Departments() []Department {
	out := make([]Department, 0, len(allDepartments))
	for i, id := range allDepartments {
		out = append(out, Department{
			ID:          id,
			Name:        departmentInfos[i].Name,
			Description: departmentInfos[i].Description,
			Enabled:     s.IsDepartmentEnabled(id),
		})
	}
	return out
}

func (s *Service) IsDepartmentEnabled(id DepartmentID) bool {
	if !id.IsValid() {
		return false
	}
	if s.toggles == nil {
		return true
	}
	return s.toggles.IsDepartmentEnabled(id)
}

type CreateInput struct {
	DepartmentID         DepartmentID
	Name                 string
	Description          string
	DurationMinutes      int
	Price                decimal.Decimal
	CommissionPercentage *decimal.Decimal
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Offering, error) {
	now := s.now()
	o := Offering{
		ID:                   uuid.NewString(),
		DepartmentID:         in.DepartmentID,
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		DurationMinutes:      in.DurationMinutes,
		Price:                in.Price,
		CommissionPercentage: in.CommissionPercentage,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := validate(o); err != nil {
		return Offering{}, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return Offering{}, err
	}
	return o, nil
}

// UpdateInput: punteros para PATCH real (nil = no tocar).
type UpdateInput struct {
	DepartmentID         *DepartmentID
	Name                 *string
	Description          *string
	DurationMinutes      *int
	Price                *decimal.Decimal
	CommissionPercentage *decimal.Decimal
	ClearCommission      bool
	Active               *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Offering, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Offering{}, err
	}

	if in.DepartmentID != nil {
		o.DepartmentID = *in.DepartmentID
	}
	if in.Name != nil {
		o.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		o.Description = strings.TrimSpace(*in.Description)
	}
	if in.DurationMinutes != nil {
		o.DurationMinutes = *in.DurationMinutes
	}
	if in.Price != nil {
		o.Price = *in.Price
	}
	if in.ClearCommission {
		o.CommissionPercentage = nil
	} else if in.CommissionPercentage != nil {
		c := *in.CommissionPercentage
		o.CommissionPercentage = &c
	}
	if in.Active != nil {
		o.Active = *in.Active
	}
	if err := validate(o); err != nil {
		return Offering{}, err
	}

	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return Offering{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Offering, error) {
	if strings.TrimSpace(id) == "" {
		return Offering{}, errs.Invalid("service_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Offering, error) {
	if f.DepartmentID != "" && !f.DepartmentID.IsValid() {
		return nil, errs.Invalid("department_id", "unknown department")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SeedDefaults crea el catálogo inicial salvo los que ya existen (mismo depto + nombre).
// Devuelve cuántos creó.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		seen[seedKey(o.DepartmentID, o.Name)] = struct{}{}
	}

	created := 0
	for _, in := range DefaultCreateInputs() {
		if _, ok := seen[seedKey(in.DepartmentID, in.Name)]; ok {
			continue
		}
		if _, err := s.Create(ctx, in); err != nil {
			if errors.Is(err, errs.ErrConflict) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

func seedKey(d DepartmentID, name string) string {
	return string(d) + "|" + strings.ToLower(strings.TrimSpace(name))
}

func validate(o Offering) error {
	if !o.DepartmentID.IsValid() {
		return errs.Invalid("department_id", "unknown department")
	}
	if o.Name == "" {
		return errs.Invalid("name", "required")
	}
	if o.DurationMinutes <= 0 {
		return errs.Invalid("duration_minutes", "must be > 0")
	}
	if o.Price.IsNegative() {
		return errs.Invalid("price", "must be >= 0")
	}
	if c := o.CommissionPercentage; c != nil && (c.IsNegative() || c.GreaterThan(hundred)) {
		return errs.Invalid("commission_percentage", "must be between 0 and 100")
	}
	return nil
}
