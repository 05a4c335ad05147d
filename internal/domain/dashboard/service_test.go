package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/packages"
)

type fakeAgenda struct {
	today, pending, inProgress []appointments.Appointment
	err                        error
}

func (f fakeAgenda) Today(ctx context.Context) ([]appointments.Appointment, error) {
	return f.today, f.err
}

func (f fakeAgenda) PendingCheckIn(ctx context.Context) ([]appointments.Appointment, error) {
	return f.pending, nil
}

func (f fakeAgenda) InProgress(ctx context.Context) ([]appointments.Appointment, error) {
	return f.inProgress, nil
}

type fakeCredits struct{ n int }

func (f fakeCredits) ActiveCredits(ctx context.Context, _ packages.CustomerFilter) ([]packages.CustomerPackage, error) {
	return make([]packages.CustomerPackage, f.n), nil
}

type fakeFinance struct{ got finance.Range }

func (f *fakeFinance) Summary(ctx context.Context, r finance.Range) (finance.Summary, error) {
	f.got = r
	return finance.Aggregate([]finance.Total{
		{Key: finance.Key{Type: finance.TypeIncome, Category: finance.CategoryService}, Amount: decimal.NewFromInt(150)},
		{Key: finance.Key{Type: finance.TypeExpense, Category: finance.CategoryCommission}, Amount: decimal.NewFromInt(30)},
	}), nil
}

func TestOverview(t *testing.T) {
	now := time.Date(2026, 7, 15, 14, 0, 0, 0, time.UTC)
	agenda := fakeAgenda{
		today: []appointments.Appointment{
			{ID: "a", DepartmentID: catalog.DepartmentEstetica},
			{ID: "b", DepartmentID: catalog.DepartmentEstetica},
			{ID: "c", DepartmentID: catalog.DepartmentSaude},
		},
		pending:    []appointments.Appointment{{ID: "a"}},
		inProgress: []appointments.Appointment{{ID: "b"}, {ID: "x"}},
	}
	fin := &fakeFinance{}
	svc := NewService(agenda, fakeCredits{n: 4}, fin, time.UTC)
	svc.SetClock(func() time.Time { return now })

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, o.TodayCount)
	assert.Equal(t, 1, o.PendingCheckInCount)
	assert.Equal(t, 2, o.InProgressCount)
	assert.Equal(t, 4, o.ActiveCreditsCount)
	assert.Equal(t, 2, o.TodayByDepartment[catalog.DepartmentEstetica])
	assert.Equal(t, 1, o.TodayByDepartment[catalog.DepartmentSaude])
	assert.Len(t, o.TodayByDepartment, len(catalog.AllDepartments()))
	assert.True(t, o.MonthTotal.Net.Equal(decimal.NewFromInt(120)))

	require.NotNil(t, fin.got.From)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *fin.got.From)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *fin.got.To)
}

func TestOverview_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(fakeAgenda{err: boom}, fakeCredits{}, &fakeFinance{}, time.UTC)

	_, err := svc.Overview(context.Background())
	assert.ErrorIs(t, err, boom)
}
