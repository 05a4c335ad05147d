package memory

import (
	"context"
	"maps"
	"sync"

	"petshop-manager/internal/domain/settings"
)

// SettingsStore guarda la configuración solo mientras vive el proceso.
type SettingsStore struct {
	mu    sync.Mutex
	saved *settings.Settings
}

var _ settings.Store = (*SettingsStore)(nil)

func NewSettingsStore() *SettingsStore { return &SettingsStore{} }

func (s *SettingsStore) Load(ctx context.Context) (settings.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved == nil {
		return settings.Settings{}, false, nil
	}
	out := *s.saved
	out.Departments = maps.Clone(s.saved.Departments)
	return out, true, nil
}

func (s *SettingsStore) Save(ctx context.Context, v settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.Departments = maps.Clone(v.Departments)
	s.saved = &v
	return nil
}
