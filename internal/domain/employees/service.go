package employees

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type CreateInput struct {
	Name                 string
	Email                string
	Phone                string
	Role                 Role
	PhotoURL             string
	Departments          []catalog.DepartmentID
	CommissionEnabled    bool
	CommissionPercentage *decimal.Decimal
	UserID               string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Employee, error) {
	now := s.now()
	e := Employee{
		ID:                   uuid.NewString(),
		Name:                 strings.TrimSpace(in.Name),
		Email:                strings.TrimSpace(in.Email),
		Phone:                strings.TrimSpace(in.Phone),
		Role:                 in.Role,
		PhotoURL:             strings.TrimSpace(in.PhotoURL),
		Departments:          dedupe(in.Departments),
		CommissionEnabled:    in.CommissionEnabled,
		CommissionPercentage: in.CommissionPercentage,
		Active:               true,
		UserID:               strings.TrimSpace(in.UserID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := validate(e); err != nil {
		return Employee{}, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

type UpdateInput struct {
	Name                 *string
	Email                *string
	Phone                *string
	Role                 *Role
	PhotoURL             *string
	Departments          *[]catalog.DepartmentID
	CommissionEnabled    *bool
	CommissionPercentage *decimal.Decimal
	Active               *bool
	UserID               *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Employee, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	if in.Name != nil {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		e.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		e.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		e.Role = *in.Role
	}
	if in.PhotoURL != nil {
		e.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	if in.Departments != nil {
		e.Departments = dedupe(*in.Departments)
	}
	if in.CommissionEnabled != nil {
		e.CommissionEnabled = *in.CommissionEnabled
	}
	if in.CommissionPercentage != nil {
		c := *in.CommissionPercentage
		e.CommissionPercentage = &c
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	if in.UserID != nil {
		e.UserID = strings.TrimSpace(*in.UserID)
	}
	if err := validate(e); err != nil {
		return Employee{}, err
	}

	e.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	if strings.TrimSpace(id) == "" {
		return Employee{}, errs.Invalid("employee_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Employee, error) {
	if f.DepartmentID != "" && !f.DepartmentID.IsValid() {
		return nil, errs.Invalid("department_id", "unknown department")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("employee_id", "required")
	}
	return s.repo.Delete(ctx, id)
}

// Assignable valida que el funcionario pueda tomar una cita del departamento.
func (s *Service) Assignable(ctx context.Context, id string, dept catalog.DepartmentID) (Employee, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if !e.Active {
		return Employee{}, errs.Invalid("employee_id", "employee is inactive")
	}
	if !e.ServesDepartment(dept) {
		return Employee{}, errs.Invalid("employee_id", "employee does not serve department "+string(dept))
	}
	return e, nil
}

func validate(e Employee) error {
	if e.Name == "" {
		return errs.Invalid("name", "required")
	}
	if !e.Role.IsValid() {
		return errs.Invalid("role", "unknown role")
	}
	for _, d := range e.Departments {
		if !d.IsValid() {
			return errs.Invalid("departments", "unknown department "+string(d))
		}
	}
	if c := e.CommissionPercentage; c != nil && (c.IsNegative() || c.GreaterThan(decimal.NewFromInt(100))) {
		return errs.Invalid("commission_percentage", "must be between 0 and 100")
	}
	if e.CommissionEnabled && e.CommissionPercentage == nil {
		return errs.Invalid("commission_percentage", "required when commission is enabled")
	}
	return nil
}

func dedupe(in []catalog.DepartmentID) []catalog.DepartmentID {
	out := make([]catalog.DepartmentID, 0, len(in))
	seen := map[catalog.DepartmentID]struct{}{}
	for _, d := range in {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
