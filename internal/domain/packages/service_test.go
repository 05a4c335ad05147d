package packages

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/finance"
)

type testRepo struct {
	mu       sync.Mutex
	pkgs     map[string]ServicePackage
	customer map[string]CustomerPackage
}

func newTestRepo() *testRepo {
	return &testRepo{pkgs: map[string]ServicePackage{}, customer: map[string]CustomerPackage{}}
}

func (r *testRepo) CreatePackage(ctx context.Context, p ServicePackage) error {
	r.pkgs[p.ID] = p
	return nil
}

func (r *testRepo) UpdatePackage(ctx context.Context, p ServicePackage) error {
	r.pkgs[p.ID] = p
	return nil
}

func (r *testRepo) GetPackage(ctx context.Context, id string) (ServicePackage, error) {
	p, ok := r.pkgs[id]
	if !ok {
		return ServicePackage{}, errs.NotFound("service package", id)
	}
	return p, nil
}

func (r *testRepo) ListPackages(ctx context.Context, activeOnly bool) ([]ServicePackage, error) {
	out := make([]ServicePackage, 0)
	for _, p := range r.pkgs {
		if !activeOnly || p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) DeletePackage(ctx context.Context, id string) error {
	delete(r.pkgs, id)
	return nil
}

func (r *testRepo) CreateCustomerPackage(ctx context.Context, c CustomerPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customer[c.ID] = c
	return nil
}

func (r *testRepo) GetCustomerPackage(ctx context.Context, id string) (CustomerPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customer[id]
	if !ok {
		return CustomerPackage{}, errs.NotFound("customer package", id)
	}
	return c, nil
}

func (r *testRepo) ListCustomerPackages(ctx context.Context, f CustomerFilter) ([]CustomerPackage, error) {
	return r.ActiveCredits(ctx, time.Time{}, f)
}

func (r *testRepo) ActiveCredits(ctx context.Context, now time.Time, f CustomerFilter) ([]CustomerPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CustomerPackage, 0)
	for _, c := range r.customer {
		if !now.IsZero() && !c.Active(now) {
			continue
		}
		if f.OwnerID != "" && c.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *testRepo) ConsumeCredit(ctx context.Context, id, appointmentID string, now time.Time) (CustomerPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customer[id]
	if !ok {
		return CustomerPackage{}, errs.NotFound("customer package", id)
	}
	if err := c.CheckConsume(now, appointmentID); err != nil {
		return CustomerPackage{}, err
	}
	c.RemainingUses--
	c.UsedAppointments = append(append([]string{}, c.UsedAppointments...), appointmentID)
	r.customer[id] = c
	return c, nil
}

type serialTx struct{ mu sync.Mutex }

func (t *serialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type fakeOfferings struct{ ids map[string]bool }

func (f fakeOfferings) Get(ctx context.Context, id string) (catalog.Offering, error) {
	if !f.ids[id] {
		return catalog.Offering{}, errs.NotFound("service", id)
	}
	return catalog.Offering{ID: id}, nil
}

type fakeOwners struct{}

func (fakeOwners) Exists(ctx context.Context, id string) error {
	if id != "maria" {
		return errs.NotFound("owner", id)
	}
	return nil
}

type fakePets struct{}

func (fakePets) EnsureBelongsTo(ctx context.Context, petID, ownerID string) error {
	if petID == "thor" && ownerID == "maria" {
		return nil
	}
	return errs.Invalid("pet_id", "pet does not belong to owner")
}

type fakeLedger struct{ recorded []finance.RecordInput }

func (l *fakeLedger) Record(ctx context.Context, in finance.RecordInput) (finance.Transaction, error) {
	l.recorded = append(l.recorded, in)
	return finance.Transaction{}, nil
}

var t0 = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	repo   *testRepo
	ledger *fakeLedger
	now    time.Time
}

func newFixture() *fixture {
	f := &fixture{repo: newTestRepo(), ledger: &fakeLedger{}, now: t0}
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Tx:        &serialTx{},
		Offerings: fakeOfferings{ids: map[string]bool{"banho": true}},
		Owners:    fakeOwners{},
		Pets:      fakePets{},
		Ledger:    f.ledger,
	})
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) sell(t *testing.T, quantity, validity int) CustomerPackage {
	t.Helper()
	pkg, err := f.svc.CreatePackage(context.Background(), CreatePackageInput{
		Name: "Banho x4", ServiceID: "banho", Quantity: quantity, ValidityDays: validity,
		OriginalPrice: decimal.NewFromInt(200), DiscountedPrice: decimal.NewFromInt(160),
	})
	require.NoError(t, err)

	cp, err := f.svc.Sell(context.Background(), SellInput{PackageID: pkg.ID, OwnerID: "maria", PetID: "thor"})
	require.NoError(t, err)
	return cp
}

func TestSell_SetsBalanceExpiryAndIncome(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 4, 30)

	assert.Equal(t, 4, cp.RemainingUses)
	assert.Equal(t, t0.AddDate(0, 0, 30), cp.ExpiresAt)
	assert.Equal(t, "banho", cp.ServiceID)
	require.Len(t, f.ledger.recorded, 1)
	assert.Equal(t, finance.CategoryPackage, f.ledger.recorded[0].Category)
	assert.True(t, f.ledger.recorded[0].Amount.Equal(decimal.NewFromInt(160)))
}

func TestSell_RejectsForeignPet(t *testing.T) {
	f := newFixture()
	pkg, err := f.svc.CreatePackage(context.Background(), CreatePackageInput{
		Name: "Banho x4", ServiceID: "banho", Quantity: 4, ValidityDays: 30,
		OriginalPrice: decimal.NewFromInt(200), DiscountedPrice: decimal.NewFromInt(160),
	})
	require.NoError(t, err)

	_, err = f.svc.Sell(context.Background(), SellInput{PackageID: pkg.ID, OwnerID: "maria", PetID: "rex"})
	assert.Equal(t, "pet_id", errs.Field(err))

	_, err = f.svc.Sell(context.Background(), SellInput{PackageID: pkg.ID, OwnerID: "joao", PetID: "thor"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.Empty(t, f.ledger.recorded)
}

func TestConsumeCredit_Monotonic(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 4, 30)
	ctx := context.Background()

	got, err := f.svc.ConsumeCredit(ctx, cp.ID, "appt-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.RemainingUses)
	assert.Equal(t, []string{"appt-1"}, got.UsedAppointments)

	for _, id := range []string{"appt-2", "appt-3", "appt-4"} {
		_, err := f.svc.ConsumeCredit(ctx, cp.ID, id)
		require.NoError(t, err)
	}

	_, err = f.svc.ConsumeCredit(ctx, cp.ID, "appt-5")
	assert.True(t, errors.Is(err, errs.ErrInsufficientCredit))

	after, err := f.svc.GetCustomerPackage(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.RemainingUses)
	assert.Len(t, after.UsedAppointments, 4)
}

func TestConsumeCredit_SameAppointmentTwice(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 4, 30)

	_, err := f.svc.ConsumeCredit(context.Background(), cp.ID, "appt-1")
	require.NoError(t, err)
	_, err = f.svc.ConsumeCredit(context.Background(), cp.ID, "appt-1")
	assert.True(t, errors.Is(err, errs.ErrConflict))
}

func TestConsumeCredit_Expired(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 4, 30)

	f.now = cp.ExpiresAt
	_, err := f.svc.ConsumeCredit(context.Background(), cp.ID, "appt-1")
	assert.True(t, errors.Is(err, errs.ErrCreditExpired))
}

func TestConsumeCredit_ConcurrentNeverOverdraws(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 3, 30)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.ConsumeCredit(context.Background(), cp.ID, "appt-"+string(rune('a'+i))); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	after, err := f.svc.GetCustomerPackage(context.Background(), cp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.RemainingUses)
}

func TestActiveCredits_ExcludesExpired(t *testing.T) {
	f := newFixture()
	short := f.sell(t, 4, 5)
	long := f.sell(t, 4, 30)

	active, err := f.svc.ActiveCredits(context.Background(), CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, short.ID, active[0].ID)

	f.now = t0.AddDate(0, 0, 6)
	active, err = f.svc.ActiveCredits(context.Background(), CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, long.ID, active[0].ID)
	assert.Equal(t, 4, active[0].RemainingUses)
}

func TestCheckUsable(t *testing.T) {
	f := newFixture()
	cp := f.sell(t, 1, 30)
	ctx := context.Background()

	require.NoError(t, f.svc.CheckUsable(ctx, cp.ID, "maria", "thor", "banho"))
	assert.Equal(t, "package_id", errs.Field(f.svc.CheckUsable(ctx, cp.ID, "maria", "thor", "tosa")))

	_, err := f.svc.ConsumeCredit(ctx, cp.ID, "appt-1")
	require.NoError(t, err)
	assert.True(t, errors.Is(f.svc.CheckUsable(ctx, cp.ID, "maria", "thor", "banho"), errs.ErrInsufficientCredit))
}

func TestCreatePackage_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreatePackage(ctx, CreatePackageInput{
		Name: "x", ServiceID: "banho", Quantity: 4, ValidityDays: 30,
		OriginalPrice: decimal.NewFromInt(100), DiscountedPrice: decimal.NewFromInt(120),
	})
	assert.Equal(t, "discounted_price", errs.Field(err))

	_, err = f.svc.CreatePackage(ctx, CreatePackageInput{
		Name: "x", ServiceID: "banho", Quantity: 0, ValidityDays: 30,
	})
	assert.Equal(t, "quantity", errs.Field(err))

	_, err = f.svc.CreatePackage(ctx, CreatePackageInput{
		Name: "x", ServiceID: "ghost", Quantity: 1, ValidityDays: 30,
	})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
