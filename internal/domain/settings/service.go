package settings

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
)

// Service mantiene el snapshot vigente. Cada cambio valida, persiste y reemplaza.
type Service struct {
	store Store

	mu      sync.RWMutex
	current Settings
}

// Load lee el store una sola vez y mezcla sobre defaults.
func Load(ctx context.Context, store Store, defaults Settings) (*Service, error) {
	stored, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: load: %w", err)
	}

	cur := defaults.clone()
	if found {
		cur = mergeOver(stored, defaults)
	}
	return &Service{store: store, current: cur}, nil
}

func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

func (s *Service) IsDepartmentEnabled(id catalog.DepartmentID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, ok := s.current.Departments[id]
	return ok && enabled
}

func (s *Service) WebhookURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.WebhookURL
}

func (s *Service) BusinessName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.BusinessName
}

type UpdateInput struct {
	BusinessName    *string
	BusinessPhone   *string
	BusinessAddress *string
	Departments     map[catalog.DepartmentID]bool
	WebhookURL      *string
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		if in.BusinessName != nil {
			next.BusinessName = strings.TrimSpace(*in.BusinessName)
		}
		if in.BusinessPhone != nil {
			next.BusinessPhone = strings.TrimSpace(*in.BusinessPhone)
		}
		if in.BusinessAddress != nil {
			next.BusinessAddress = strings.TrimSpace(*in.BusinessAddress)
		}
		for id, enabled := range in.Departments {
			if !id.IsValid() {
				return errs.Invalid("departments", "unknown department "+string(id))
			}
			next.Departments[id] = enabled
		}
		if in.WebhookURL != nil {
			next.WebhookURL = strings.TrimSpace(*in.WebhookURL)
		}
		return nil
	})
}

func (s *Service) SetDepartmentEnabled(ctx context.Context, id catalog.DepartmentID, enabled bool) (Settings, error) {
	return s.mutate(ctx, func(next *Settings) error {
		if !id.IsValid() {
			return errs.Invalid("department_id", "unknown department")
		}
		next.Departments[id] = enabled
		return nil
	})
}

// ToggleDepartment invierte el flag y devuelve el nuevo valor.
func (s *Service) ToggleDepartment(ctx context.Context, id catalog.DepartmentID) (bool, error) {
	var enabled bool
	_, err := s.mutate(ctx, func(next *Settings) error {
		if !id.IsValid() {
			return errs.Invalid("department_id", "unknown department")
		}
		enabled = !next.Departments[id]
		next.Departments[id] = enabled
		return nil
	})
	return enabled, err
}

func (s *Service) mutate(ctx context.Context, fn func(next *Settings) error) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	if err := fn(&next); err != nil {
		return Settings{}, err
	}
	if err := validate(next); err != nil {
		return Settings{}, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return Settings{}, fmt.Errorf("settings: save: %w", err)
	}
	s.current = next
	return next.clone(), nil
}

func validate(s Settings) error {
	if s.BusinessName == "" {
		return errs.Invalid("business_name", "required")
	}
	if s.WebhookURL != "" {
		u, err := url.ParseRequestURI(s.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errs.Invalid("webhook_url", "must be an absolute http(s) url")
		}
	}
	return nil
}
