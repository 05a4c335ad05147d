package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/history"
	"petshop-manager/internal/domain/notifications"
	"petshop-manager/internal/domain/owners"
	"petshop-manager/internal/domain/packages"
	"petshop-manager/internal/domain/pets"
)

// ---- fakes ----

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Appointment
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Appointment{}} }

func (r *testRepo) Create(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[a.ID]
	if !ok {
		return errs.NotFound("appointment", a.ID)
	}
	cur.DepartmentID, cur.ServiceID, cur.EmployeeID = a.DepartmentID, a.ServiceID, a.EmployeeID
	cur.PackageID, cur.ScheduledAt, cur.Notes, cur.UpdatedAt = a.PackageID, a.ScheduledAt, a.Notes, a.UpdatedAt
	r.byID[a.ID] = cur
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, errs.NotFound("appointment", id)
	}
	return a, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *testRepo) Transition(ctx context.Context, a Appointment, from Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[a.ID]
	if !ok {
		return errs.NotFound("appointment", a.ID)
	}
	if cur.Status != from {
		return errs.ErrConflict
	}
	cur.Status, cur.CheckInAt, cur.CheckOutAt = a.Status, a.CheckInAt, a.CheckOutAt
	cur.BeforePhotoURL, cur.AfterPhotoURL, cur.Notes, cur.UpdatedAt = a.BeforePhotoURL, a.AfterPhotoURL, a.Notes, a.UpdatedAt
	r.byID[a.ID] = cur
	return nil
}

type serialTx struct{ mu sync.Mutex }

func (t *serialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type fakeOfferings struct {
	byID     map[string]catalog.Offering
	disabled map[catalog.DepartmentID]bool
}

func (f *fakeOfferings) Get(ctx context.Context, id string) (catalog.Offering, error) {
	o, ok := f.byID[id]
	if !ok {
		return catalog.Offering{}, errs.NotFound("service", id)
	}
	return o, nil
}

func (f *fakeOfferings) IsDepartmentEnabled(id catalog.DepartmentID) bool { return !f.disabled[id] }

type fakeOwners struct{}

func (fakeOwners) Get(ctx context.Context, id string) (owners.Owner, error) {
	if id != "maria" {
		return owners.Owner{}, errs.NotFound("owner", id)
	}
	return owners.Owner{ID: "maria", Name: "Maria", WhatsApp: "+5511999990000"}, nil
}

// goneOwners simula un tutor borrado después de agendar.
type goneOwners struct{}

func (goneOwners) Get(ctx context.Context, id string) (owners.Owner, error) {
	return owners.Owner{}, errs.NotFound("owner", id)
}

type fakePets struct{}

func (fakePets) Get(ctx context.Context, id string) (pets.Pet, error) {
	if id != "thor" {
		return pets.Pet{}, errs.NotFound("pet", id)
	}
	return pets.Pet{ID: "thor", OwnerID: "maria", Name: "Thor"}, nil
}

func (p fakePets) EnsureBelongsTo(ctx context.Context, petID, ownerID string) error {
	pet, err := p.Get(ctx, petID)
	if err != nil {
		return err
	}
	if pet.OwnerID != ownerID {
		return errs.Invalid("pet_id", "pet does not belong to owner")
	}
	return nil
}

type fakeStaff struct{ byID map[string]employees.Employee }

func (f fakeStaff) Get(ctx context.Context, id string) (employees.Employee, error) {
	e, ok := f.byID[id]
	if !ok {
		return employees.Employee{}, errs.NotFound("employee", id)
	}
	return e, nil
}

func (f fakeStaff) Assignable(ctx context.Context, id string, dept catalog.DepartmentID) (employees.Employee, error) {
	e, err := f.Get(ctx, id)
	if err != nil {
		return e, err
	}
	if !e.ServesDepartment(dept) {
		return employees.Employee{}, errs.Invalid("employee_id", "employee does not serve department")
	}
	return e, nil
}

type fakeCredits struct {
	remaining map[string]int
	used      map[string][]string
}

func (f *fakeCredits) CheckUsable(ctx context.Context, id, ownerID, petID, serviceID string) error {
	if _, ok := f.remaining[id]; !ok {
		return errs.NotFound("customer package", id)
	}
	return nil
}

func (f *fakeCredits) ConsumeCredit(ctx context.Context, id, appointmentID string) (packages.CustomerPackage, error) {
	if f.remaining[id] <= 0 {
		return packages.CustomerPackage{}, errs.ErrInsufficientCredit
	}
	f.remaining[id]--
	f.used[id] = append(f.used[id], appointmentID)
	return packages.CustomerPackage{ID: id, RemainingUses: f.remaining[id]}, nil
}

type fakeLedger struct{ entries []finance.RecordInput }

func (l *fakeLedger) Record(ctx context.Context, in finance.RecordInput) (finance.Transaction, error) {
	l.entries = append(l.entries, in)
	return finance.Transaction{}, nil
}

type fakeNotifier struct {
	enabled    bool
	deliverErr error
	queued     []notifications.CheckoutPayload
	delivered  int

	deliverCtxErr error
	deliverDL     bool
}

func (n *fakeNotifier) Enabled() bool { return n.enabled }

func (n *fakeNotifier) EnqueueCheckout(ctx context.Context, appointmentID string, p notifications.CheckoutPayload) (notifications.Message, error) {
	n.queued = append(n.queued, p)
	return notifications.Message{ID: "msg-" + appointmentID}, nil
}

func (n *fakeNotifier) DeliverNow(ctx context.Context, id string) error {
	n.deliverCtxErr = ctx.Err()
	_, n.deliverDL = ctx.Deadline()
	if n.deliverErr != nil {
		return n.deliverErr
	}
	n.delivered++
	return nil
}

type fakeTimeline struct{ entries []history.Entry }

func (t *fakeTimeline) Append(ctx context.Context, e history.Entry) error {
	t.entries = append(t.entries, e)
	return nil
}

// ---- fixture ----

var t0 = time.Date(2026, 7, 6, 10, 0, 0, 0, time.UTC)

func pct(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

type fixture struct {
	svc      *Service
	repo     *testRepo
	offer    *fakeOfferings
	staff    fakeStaff
	credits  *fakeCredits
	ledger   *fakeLedger
	notifier *fakeNotifier
	timeline *fakeTimeline
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo: newTestRepo(),
		offer: &fakeOfferings{
			byID: map[string]catalog.Offering{
				"banho":  {ID: "banho", DepartmentID: catalog.DepartmentEstetica, Name: "Banho", Price: decimal.NewFromInt(60), CommissionPercentage: pct(10), Active: true},
				"tosa":   {ID: "tosa", DepartmentID: catalog.DepartmentEstetica, Name: "Tosa", Price: decimal.NewFromInt(120), CommissionPercentage: pct(15), Active: true},
				"vacina": {ID: "vacina", DepartmentID: catalog.DepartmentSaude, Name: "Vacina", Price: decimal.NewFromInt(90), Active: true},
			},
			disabled: map[catalog.DepartmentID]bool{},
		},
		credits:  &fakeCredits{remaining: map[string]int{"cp-1": 4}, used: map[string][]string{}},
		ledger:   &fakeLedger{},
		notifier: &fakeNotifier{enabled: true},
		timeline: &fakeTimeline{},
		now:      t0,
		staff: fakeStaff{byID: map[string]employees.Employee{
			"ana":   {ID: "ana", Name: "Ana", Departments: []catalog.DepartmentID{catalog.DepartmentEstetica}, Active: true},
			"bruno": {ID: "bruno", Name: "Bruno", CommissionEnabled: true, CommissionPercentage: pct(20), Active: true},
		}},
	}
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Tx:        &serialTx{},
		Offerings: f.offer,
		Owners:    fakeOwners{},
		Pets:      fakePets{},
		Staff:     f.staff,
		Credits:   f.credits,
		Ledger:    f.ledger,
		Notifier:  f.notifier,
		Timeline:  f.timeline,
		Location:  time.UTC,
	})
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) create(t *testing.T, mutate func(in *CreateInput)) Appointment {
	t.Helper()
	in := CreateInput{
		OwnerID: "maria", PetID: "thor",
		DepartmentID: catalog.DepartmentEstetica, ServiceID: "banho",
		ScheduledAt: t0.Add(time.Hour),
	}
	if mutate != nil {
		mutate(&in)
	}
	a, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return a
}

// ---- tests ----

func TestTransitionTable(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusConfirmed, StatusCheckedIn, StatusCancelled}, StatusScheduled.Next())

	// completed solo se alcanza desde checked_in o in_progress
	for _, from := range AllStatuses() {
		want := from == StatusCheckedIn || from == StatusInProgress
		assert.Equal(t, want, CanTransition(from, StatusCompleted), from)
	}
	// cancelled desde cualquier no terminal
	for _, from := range AllStatuses() {
		assert.Equal(t, !from.IsTerminal(), CanTransition(from, StatusCancelled), from)
	}
	assert.Empty(t, StatusCompleted.Next())
	assert.Empty(t, StatusCancelled.Next())
}

func TestStatusLabels(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.NotEmpty(t, s.Label(), s)
	}
}

func TestCreate_FreezesServicePrice(t *testing.T) {
	f := newFixture()
	a := f.create(t, nil)

	assert.Equal(t, StatusScheduled, a.Status)
	assert.True(t, a.Price.Equal(decimal.NewFromInt(60)))

	// cambio de precio en el catálogo no afecta
	o := f.offer.byID["banho"]
	o.Price = decimal.NewFromInt(999)
	f.offer.byID["banho"] = o

	got, err := f.svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(60)))
}

func TestUpdate_ServiceChangeKeepsPrice(t *testing.T) {
	f := newFixture()
	a := f.create(t, nil)

	tosa := "tosa"
	got, err := f.svc.Update(context.Background(), a.ID, UpdateInput{ServiceID: &tosa})
	require.NoError(t, err)
	assert.Equal(t, "tosa", got.ServiceID)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(60)))

	stored, err := f.svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(60)))
}

func TestUpdate_RejectsServiceFromOtherDepartment(t *testing.T) {
	f := newFixture()
	a := f.create(t, nil)

	vacina := "vacina"
	_, err := f.svc.Update(context.Background(), a.ID, UpdateInput{ServiceID: &vacina})
	assert.Equal(t, "service_id", errs.Field(err))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	base := CreateInput{
		OwnerID: "maria", PetID: "thor",
		DepartmentID: catalog.DepartmentEstetica, ServiceID: "banho",
		ScheduledAt: t0.Add(time.Hour),
	}

	in := base
	in.OwnerID = ""
	_, err := f.svc.Create(ctx, in)
	assert.Equal(t, "owner_id", errs.Field(err))

	in = base
	in.ScheduledAt = t0.Add(-2 * time.Minute)
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, "scheduled_at", errs.Field(err))

	in = base
	in.ServiceID = "vacina"
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, "service_id", errs.Field(err))

	in = base
	in.OwnerID = "joao"
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, "pet_id", errs.Field(err))

	in = base
	in.DepartmentID = catalog.DepartmentSaude
	in.ServiceID = "vacina"
	in.EmployeeID = "ana"
	_, err = f.svc.Create(ctx, in)
	assert.Equal(t, "employee_id", errs.Field(err))

	f.offer.disabled[catalog.DepartmentEstetica] = true
	_, err = f.svc.Create(ctx, base)
	assert.Equal(t, "department_id", errs.Field(err))
}

func TestCreate_SameSlotAllowed(t *testing.T) {
	f := newFixture()
	a := f.create(t, func(in *CreateInput) { in.EmployeeID = "ana" })
	b := f.create(t, func(in *CreateInput) { in.EmployeeID = "ana" })
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.ScheduledAt, b.ScheduledAt)
}

func TestLifecycle_HappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) { in.EmployeeID = "ana" })

	a, err := f.svc.Confirm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, a.Status)

	f.now = t0.Add(55 * time.Minute)
	a, err = f.svc.CheckIn(ctx, a.ID, "https://cdn/before.jpg")
	require.NoError(t, err)
	require.NotNil(t, a.CheckInAt)
	assert.Equal(t, f.now, *a.CheckInAt)
	assert.Equal(t, "https://cdn/before.jpg", a.BeforePhotoURL)

	a, err = f.svc.Start(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, a.Status)

	f.now = t0.Add(2 * time.Hour)
	notes := "comportou-se bem"
	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{AfterPhotoURL: "https://cdn/after.jpg", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Appointment.Status)
	require.NotNil(t, res.Appointment.CheckOutAt)
	assert.Equal(t, f.now, *res.Appointment.CheckOutAt)
	assert.Equal(t, NotificationDelivered, res.Notification)
	assert.Empty(t, res.Message)

	require.Len(t, f.notifier.queued, 1)
	p := f.notifier.queued[0]
	assert.Equal(t, "Thor", p.PetName)
	assert.Equal(t, "Maria", p.OwnerName)
	assert.Equal(t, "+5511999990000", p.OwnerWhatsApp)
	assert.Equal(t, "Banho", p.Service)
	assert.Equal(t, "https://cdn/after.jpg", p.AfterPhoto)
	assert.Equal(t, notes, p.Notes)
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, nil)

	_, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))

	_, err = f.svc.Start(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))

	_, err = f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, a.ID, "")
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))

	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))
	_, err = f.svc.Confirm(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrInvalidTransition))
}

func TestCheckOut_NotificationFailureStillCompletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.notifier.deliverErr = errors.Join(errs.ErrNotification, errors.New("connection refused"))

	a := f.create(t, nil)
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, NotificationPending, res.Notification)
	assert.Equal(t, SoftCheckoutMessage, res.Message)

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CheckOutAt)
}

func TestCheckOut_SkipsNotificationWhenDisabled(t *testing.T) {
	f := newFixture()
	f.notifier.enabled = false
	a := f.create(t, nil)
	_, err := f.svc.CheckIn(context.Background(), a.ID, "")
	require.NoError(t, err)

	res, err := f.svc.CheckOut(context.Background(), a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, NotificationSkipped, res.Notification)
	assert.Empty(t, f.notifier.queued)
}

func TestCheckOut_LedgerIncomeAndCommission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) {
		in.ServiceID = "tosa"
		in.EmployeeID = "ana"
	})
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)

	require.Len(t, f.ledger.entries, 2)
	income, commission := f.ledger.entries[0], f.ledger.entries[1]
	assert.Equal(t, finance.TypeIncome, income.Type)
	assert.Equal(t, finance.CategoryService, income.Category)
	assert.True(t, income.Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, a.ID, income.AppointmentID)

	assert.Equal(t, finance.TypeExpense, commission.Type)
	assert.Equal(t, finance.CategoryCommission, commission.Category)
	assert.True(t, commission.Amount.Equal(decimal.NewFromInt(18)), commission.Amount.String())
	assert.Equal(t, "ana", commission.EmployeeID)
}

func TestCheckOut_EmployeeOverrideCommission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) { in.EmployeeID = "bruno" })
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)

	require.Len(t, f.ledger.entries, 2)
	assert.True(t, f.ledger.entries[1].Amount.Equal(decimal.NewFromInt(12))) // 20% de 60
}

func TestCheckOut_DeletedEmployeeSkipsCommission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) { in.EmployeeID = "bruno" })
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	delete(f.staff.byID, "bruno")

	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Appointment.Status)
	assert.Equal(t, NotificationDelivered, res.Notification)

	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, finance.CategoryService, f.ledger.entries[0].Category)
	assert.Empty(t, f.ledger.entries[0].EmployeeID)
	require.Len(t, f.notifier.queued, 1)
	assert.Equal(t, "Thor", f.notifier.queued[0].PetName)
}

func TestCheckOut_MissingOwnerWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) {
		in.EmployeeID = "ana"
		in.PackageID = "cp-1"
	})
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	f.svc.owners = goneOwners{}
	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, stored.Status)
	assert.Nil(t, stored.CheckOutAt)
	assert.Equal(t, 4, f.credits.remaining["cp-1"])
	assert.Empty(t, f.ledger.entries)
	assert.Len(t, f.timeline.entries, 1) // solo la llegada
	assert.Empty(t, f.notifier.queued)

	// con el tutor de vuelta el checkout pasa
	f.svc.owners = fakeOwners{}
	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Appointment.Status)
	assert.Equal(t, 3, f.credits.remaining["cp-1"])
}

func TestCheckOut_NotClaimedReportsPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.notifier.deliverErr = fmt.Errorf("%w: msg", notifications.ErrNotClaimed)

	a := f.create(t, nil)
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, NotificationPending, res.Notification)
	assert.Equal(t, SoftCheckoutMessage, res.Message)
	assert.Equal(t, 0, f.notifier.delivered)
}

func TestCheckOut_DeliversAfterRequestCancelled(t *testing.T) {
	f := newFixture()
	a := f.create(t, nil)
	_, err := f.svc.CheckIn(context.Background(), a.ID, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, NotificationDelivered, res.Notification)
	assert.NoError(t, f.notifier.deliverCtxErr)
	assert.True(t, f.notifier.deliverDL)
	assert.Equal(t, 1, f.notifier.delivered)
}

func TestCheckOut_PackageConsumesCreditWithoutIncome(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) { in.PackageID = "cp-1" })
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)

	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.credits.remaining["cp-1"])
	assert.Equal(t, []string{a.ID}, f.credits.used["cp-1"])
	assert.Empty(t, f.ledger.entries)
}

func TestCheckOut_NoCreditLeavesAppointmentOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.credits.remaining["cp-2"] = 1

	a := f.create(t, func(in *CreateInput) { in.PackageID = "cp-2" })
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)
	f.credits.remaining["cp-2"] = 0

	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	assert.True(t, errors.Is(err, errs.ErrInsufficientCredit))

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedIn, stored.Status)
	assert.Empty(t, f.notifier.queued)
}

func TestCancel_DoesNotRefundCredit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, func(in *CreateInput) { in.PackageID = "cp-1" })
	_, err := f.svc.CheckIn(ctx, a.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{})
	require.NoError(t, err)

	b := f.create(t, func(in *CreateInput) { in.PackageID = "cp-1" })
	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, f.credits.remaining["cp-1"])
}

func TestConcurrentCheckIn_OnlyOneWins(t *testing.T) {
	f := newFixture()
	a := f.create(t, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.CheckIn(context.Background(), a.ID, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestQueries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	today := f.create(t, nil)
	later := f.create(t, func(in *CreateInput) { in.ScheduledAt = t0.Add(3 * time.Hour) })
	f.create(t, func(in *CreateInput) { in.ScheduledAt = t0.AddDate(0, 0, 1) })

	items, err := f.svc.Today(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = f.svc.CheckIn(ctx, later.ID, "")
	require.NoError(t, err)

	pending, err := f.svc.PendingCheckIn(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, today.ID, pending[0].ID)

	inProgress, err := f.svc.InProgress(ctx)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, later.ID, inProgress[0].ID)

	_, err = f.svc.List(ctx, ListFilter{Statuses: []Status{"done"}})
	assert.Equal(t, "status", errs.Field(err))
}

func TestDelete_AnyStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, nil)
	_, err := f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	_, err = f.svc.Get(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestPetHistory_RecordsArrivalAndDeparture(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.create(t, nil)

	_, err := f.svc.Confirm(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, a.ID, "https://cdn/before.jpg")
	require.NoError(t, err)
	notes := "unhas cortadas"
	_, err = f.svc.CheckOut(ctx, a.ID, CheckOutInput{AfterPhotoURL: "https://cdn/after.jpg", Notes: &notes})
	require.NoError(t, err)

	require.Len(t, f.timeline.entries, 2)
	in, out := f.timeline.entries[0], f.timeline.entries[1]
	assert.Equal(t, history.EntryCheckIn, in.Type)
	assert.Equal(t, "https://cdn/before.jpg", in.PhotoURL)
	assert.Equal(t, "thor", in.PetID)
	assert.Equal(t, history.EntryCheckOut, out.Type)
	assert.Equal(t, "Banho", out.Title)
	assert.Equal(t, notes, out.Notes)
	assert.Equal(t, a.ID, out.AppointmentID)

	b := f.create(t, nil)
	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, f.timeline.entries, 3)
	assert.Equal(t, history.EntryCancelled, f.timeline.entries[2].Type)
}
