package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/settings"
)

func newTestStore(t *testing.T, path string) *SettingsStore {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoad_EmptyFile(t *testing.T) {
	s := newTestStore(t, filepath.Join(t.TempDir(), "settings.db"))

	_, found, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSave_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	first, err := Open(path)
	require.NoError(t, err)

	v := settings.Defaults("Pet Feliz", "https://hooks.example.com/checkout")
	v.Departments[catalog.DepartmentLogistica] = false
	require.NoError(t, first.Save(ctx, v))
	// guardar lo mismo otra vez es un no-op
	require.NoError(t, first.Save(ctx, v))
	require.NoError(t, first.Close())

	second := newTestStore(t, path)
	got, found, err := second.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Pet Feliz", got.BusinessName)
	assert.False(t, got.Departments[catalog.DepartmentLogistica])
	assert.True(t, got.Departments[catalog.DepartmentEstetica])
}

func TestSettingsService_PersistsToggle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()
	defaults := settings.Defaults("PetShop Manager", "https://hooks.example.com/checkout")

	store := newTestStore(t, path)
	svc, err := settings.Load(ctx, store, defaults)
	require.NoError(t, err)

	enabled, err := svc.ToggleDepartment(ctx, catalog.DepartmentEstadia)
	require.NoError(t, err)
	assert.False(t, enabled)

	reloaded, err := settings.Load(ctx, store, defaults)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDepartmentEnabled(catalog.DepartmentEstadia))
}
