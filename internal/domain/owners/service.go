package owners

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

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
	Name     string
	Email    string
	Phone    string
	WhatsApp string
	Address  string
	TaxID    string
	Notes    string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Owner, error) {
	now := s.now()
	o := Owner{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		WhatsApp:  NormalizePhone(in.WhatsApp),
		Address:   strings.TrimSpace(in.Address),
		TaxID:     strings.TrimSpace(in.TaxID),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validate(o); err != nil {
		return Owner{}, err
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

type UpdateInput struct {
	Name     *string
	Email    *string
	Phone    *string
	WhatsApp *string
	Address  *string
	TaxID    *string
	Notes    *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Owner, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return Owner{}, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&o.Name, in.Name)
	set(&o.Email, in.Email)
	set(&o.Phone, in.Phone)
	set(&o.Address, in.Address)
	set(&o.TaxID, in.TaxID)
	set(&o.Notes, in.Notes)
	if in.WhatsApp != nil {
		o.WhatsApp = NormalizePhone(*in.WhatsApp)
	}
	if err := validate(o); err != nil {
		return Owner{}, err
	}

	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Owner, error) {
	if strings.TrimSpace(id) == "" {
		return Owner{}, errs.Invalid("owner_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

// Search busca por nombre, email, teléfono, whatsapp o CPF (substring, case-insensitive).
func (s *Service) Search(ctx context.Context, query string) ([]Owner, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query))
}

// Delete: las mascotas y citas del tutor las resuelve la base (FK ON DELETE).
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("owner_id", "required")
	}
	return s.repo.Delete(ctx, id)
}

// Exists cumple pets.OwnerRegistry.
func (s *Service) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

// NormalizePhone deja solo dígitos y un "+" inicial opcional.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validate(o Owner) error {
	if o.Name == "" {
		return errs.Invalid("name", "required")
	}
	if o.Email != "" {
		if _, err := mail.ParseAddress(o.Email); err != nil {
			return errs.Invalid("email", "invalid email")
		}
	}
	return nil
}
