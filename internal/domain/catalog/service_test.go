package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID  map[string]Offering
	order []string
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Offering{}} }

func (r *testRepo) Create(ctx context.Context, o Offering) error {
	if _, ok := r.byID[o.ID]; ok {
		return errs.ErrConflict
	}
	r.byID[o.ID] = o
	r.order = append(r.order, o.ID)
	return nil
}

func (r *testRepo) Update(ctx context.Context, o Offering) error {
	if _, ok := r.byID[o.ID]; !ok {
		return errs.NotFound("service", o.ID)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Offering, error) {
	o, ok := r.byID[id]
	if !ok {
		return Offering{}, errs.NotFound("service", id)
	}
	return o, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Offering, error) {
	out := make([]Offering, 0)
	for _, id := range r.order {
		o, ok := r.byID[id]
		if !ok {
			continue
		}
		if f.DepartmentID != "" && o.DepartmentID != f.DepartmentID {
			continue
		}
		if f.ActiveOnly && !o.Active {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("service", id)
	}
	delete(r.byID, id)
	return nil
}

type toggles map[DepartmentID]bool

func (t toggles) IsDepartmentEnabled(id DepartmentID) bool { return t[id] }

// -------------------------
// Tests
// -------------------------

func TestDepartment_LabelsAndValidity(t *testing.T) {
	for _, d := range AllDepartments() {
		assert.True(t, d.IsValid(), d)
		assert.NotEmpty(t, d.Label(), d)
	}
	assert.False(t, DepartmentID("spa").IsValid())
	assert.Empty(t, DepartmentID("spa").Label())
	assert.Equal(t, "Saúde", DepartmentSaude.Label())
}

func TestService_Departments_ReflectToggles(t *testing.T) {
	svc := NewService(newTestRepo(), toggles{DepartmentEstetica: true})

	deps := svc.Departments()
	require.Len(t, deps, 5)
	assert.True(t, deps[0].Enabled)
	assert.False(t, deps[1].Enabled)

	all := NewService(newTestRepo(), nil)
	for _, d := range all.Departments() {
		assert.True(t, d.Enabled)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo(), nil)
	neg := decimal.NewFromInt(-1)
	tooMuch := decimal.NewFromInt(101)

	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"unknown department", CreateInput{DepartmentID: "spa", Name: "x", DurationMinutes: 10}, "department_id"},
		{"missing name", CreateInput{DepartmentID: DepartmentSaude, Name: "  ", DurationMinutes: 10}, "name"},
		{"zero duration", CreateInput{DepartmentID: DepartmentSaude, Name: "x"}, "duration_minutes"},
		{"negative price", CreateInput{DepartmentID: DepartmentSaude, Name: "x", DurationMinutes: 10, Price: neg}, "price"},
		{"commission > 100", CreateInput{DepartmentID: DepartmentSaude, Name: "x", DurationMinutes: 10, CommissionPercentage: &tooMuch}, "commission_percentage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			require.True(t, errors.Is(err, errs.ErrValidation), "got %v", err)
			assert.Equal(t, tc.field, errs.Field(err))
		})
	}
}

func TestService_UpdatePatchesOnlyGivenFields(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)
	t0 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return t0 })

	pct := decimal.NewFromInt(10)
	o, err := svc.Create(context.Background(), CreateInput{
		DepartmentID: DepartmentEstetica, Name: "Banho", DurationMinutes: 60,
		Price: decimal.NewFromInt(50), CommissionPercentage: &pct,
	})
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return t0.Add(time.Hour) })
	newPrice := decimal.RequireFromString("55.90")
	inactive := false
	updated, err := svc.Update(context.Background(), o.ID, UpdateInput{Price: &newPrice, Active: &inactive, ClearCommission: true})
	require.NoError(t, err)

	assert.Equal(t, "Banho", updated.Name)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Nil(t, updated.CommissionPercentage)
	assert.False(t, updated.Active)
	assert.Equal(t, t0, updated.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)

	active, err := svc.List(context.Background(), ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestService_SeedDefaults_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	n, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	n, err = svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	estetica, err := svc.List(context.Background(), ListFilter{DepartmentID: DepartmentEstetica})
	require.NoError(t, err)
	require.Len(t, estetica, 4)
	assert.Equal(t, "Banho", estetica[0].Name)
	assert.True(t, estetica[0].Price.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, estetica[0].CommissionPercentage)
	assert.True(t, estetica[0].CommissionPercentage.Equal(decimal.NewFromInt(10)))
}
