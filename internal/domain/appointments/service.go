package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/history"
	"petshop-manager/internal/domain/notifications"
	"petshop-manager/internal/domain/owners"
	"petshop-manager/internal/domain/packages"
	"petshop-manager/internal/domain/pets"
	"petshop-manager/internal/platform/logger"
	"petshop-manager/internal/ports/tx"
)

type Offerings interface {
	Get(ctx context.Context, id string) (catalog.Offering, error)
	IsDepartmentEnabled(id catalog.DepartmentID) bool
}

type Owners interface {
	Get(ctx context.Context, id string) (owners.Owner, error)
}

type Pets interface {
	Get(ctx context.Context, id string) (pets.Pet, error)
	EnsureBelongsTo(ctx context.Context, petID, ownerID string) error
}

type Staff interface {
	Get(ctx context.Context, id string) (employees.Employee, error)
	Assignable(ctx context.Context, id string, dept catalog.DepartmentID) (employees.Employee, error)
}

type Credits interface {
	CheckUsable(ctx context.Context, customerPackageID, ownerID, petID, serviceID string) error
	ConsumeCredit(ctx context.Context, customerPackageID, appointmentID string) (packages.CustomerPackage, error)
}

type Ledger interface {
	Record(ctx context.Context, in finance.RecordInput) (finance.Transaction, error)
}

type Notifier interface {
	Enabled() bool
	EnqueueCheckout(ctx context.Context, appointmentID string, p notifications.CheckoutPayload) (notifications.Message, error)
	DeliverNow(ctx context.Context, id string) error
}

type Timeline interface {
	Append(ctx context.Context, e history.Entry) error
}

type Deps struct {
	Repo      Repository
	Tx        tx.Runner
	Offerings Offerings
	Owners    Owners
	Pets      Pets
	Staff     Staff
	Credits   Credits
	Ledger    Ledger   // nil => checkout no genera asientos
	Notifier  Notifier // nil => sin aviso al tutor
	Timeline  Timeline // nil => sin historial de la mascota
	Location  *time.Location

	// DeliveryTimeout acota el envío inmediato tras el checkout. 0 => 10s.
	DeliveryTimeout time.Duration
}

type Service struct {
	repo      Repository
	tx        tx.Runner
	offerings Offerings
	owners    Owners
	pets      Pets
	staff     Staff
	credits   Credits
	ledger    Ledger
	notifier  Notifier
	timeline  Timeline
	loc       *time.Location
	now       func() time.Time

	deliveryTimeout time.Duration
}

func NewService(d Deps) *Service {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := d.DeliveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		repo:      d.Repo,
		tx:        d.Tx,
		offerings: d.Offerings,
		owners:    d.Owners,
		pets:      d.Pets,
		staff:     d.Staff,
		credits:   d.Credits,
		ledger:    d.Ledger,
		notifier:  d.Notifier,
		timeline:  d.Timeline,
		loc:       loc,
		now:       time.Now,

		deliveryTimeout: timeout,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type CreateInput struct {
	OwnerID      string
	PetID        string
	DepartmentID catalog.DepartmentID
	ServiceID    string
	EmployeeID   string
	PackageID    string
	ScheduledAt  time.Time
	Price        *decimal.Decimal // nil => precio actual del servicio
	Notes        string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	now := s.now().UTC()
	a := Appointment{
		ID:           uuid.NewString(),
		OwnerID:      strings.TrimSpace(in.OwnerID),
		PetID:        strings.TrimSpace(in.PetID),
		DepartmentID: in.DepartmentID,
		ServiceID:    strings.TrimSpace(in.ServiceID),
		EmployeeID:   strings.TrimSpace(in.EmployeeID),
		PackageID:    strings.TrimSpace(in.PackageID),
		ScheduledAt:  in.ScheduledAt.UTC(),
		Status:       StatusScheduled,
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch {
	case a.OwnerID == "":
		return Appointment{}, errs.Invalid("owner_id", "required")
	case a.PetID == "":
		return Appointment{}, errs.Invalid("pet_id", "required")
	case a.ServiceID == "":
		return Appointment{}, errs.Invalid("service_id", "required")
	case in.ScheduledAt.IsZero():
		return Appointment{}, errs.Invalid("scheduled_at", "required")
	case a.ScheduledAt.Before(now.Truncate(time.Minute)):
		return Appointment{}, errs.Invalid("scheduled_at", "must not be in the past")
	}

	offering, err := s.checkService(ctx, a.DepartmentID, a.ServiceID)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.pets.EnsureBelongsTo(ctx, a.PetID, a.OwnerID); err != nil {
		return Appointment{}, err
	}
	if a.EmployeeID != "" {
		if _, err := s.staff.Assignable(ctx, a.EmployeeID, a.DepartmentID); err != nil {
			return Appointment{}, err
		}
	}
	if a.PackageID != "" {
		if err := s.credits.CheckUsable(ctx, a.PackageID, a.OwnerID, a.PetID, a.ServiceID); err != nil {
			return Appointment{}, err
		}
	}

	a.Price = offering.Price
	if in.Price != nil {
		if in.Price.IsNegative() {
			return Appointment{}, errs.Invalid("price", "must be >= 0")
		}
		a.Price = *in.Price
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// UpdateInput: nil = no tocar. EmployeeID/PackageID con "" desvinculan.
// Tutor, mascota, precio y status no se editan por aquí.
type UpdateInput struct {
	DepartmentID *catalog.DepartmentID
	ServiceID    *string
	EmployeeID   *string
	PackageID    *string
	ScheduledAt  *time.Time
	Notes        *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	serviceChanged := false
	if in.DepartmentID != nil && *in.DepartmentID != a.DepartmentID {
		a.DepartmentID = *in.DepartmentID
		serviceChanged = true
	}
	if in.ServiceID != nil && strings.TrimSpace(*in.ServiceID) != a.ServiceID {
		a.ServiceID = strings.TrimSpace(*in.ServiceID)
		serviceChanged = true
	}
	if serviceChanged {
		if _, err := s.checkService(ctx, a.DepartmentID, a.ServiceID); err != nil {
			return Appointment{}, err
		}
	}

	if in.EmployeeID != nil {
		a.EmployeeID = strings.TrimSpace(*in.EmployeeID)
	}
	if a.EmployeeID != "" && (in.EmployeeID != nil || serviceChanged) {
		if _, err := s.staff.Assignable(ctx, a.EmployeeID, a.DepartmentID); err != nil {
			return Appointment{}, err
		}
	}

	if in.PackageID != nil {
		a.PackageID = strings.TrimSpace(*in.PackageID)
	}
	if a.PackageID != "" && (in.PackageID != nil || serviceChanged) {
		if err := s.credits.CheckUsable(ctx, a.PackageID, a.OwnerID, a.PetID, a.ServiceID); err != nil {
			return Appointment{}, err
		}
	}

	if in.ScheduledAt != nil {
		if in.ScheduledAt.IsZero() {
			return Appointment{}, errs.Invalid("scheduled_at", "required")
		}
		a.ScheduledAt = in.ScheduledAt.UTC()
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return Appointment{}, errs.Invalid("appointment_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	for _, st := range f.Statuses {
		if !st.IsValid() {
			return nil, errs.Invalid("status", "unknown status "+string(st))
		}
	}
	if f.DepartmentID != "" && !f.DepartmentID.IsValid() {
		return nil, errs.Invalid("department_id", "unknown department")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, errs.Invalid("to", "must not be before from")
	}
	return s.repo.List(ctx, f)
}

// Delete es un borrado físico, en cualquier estado.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("appointment_id", "required")
	}
	return s.repo.Delete(ctx, id)
}

// Today: agendados para el día local actual.
func (s *Service) Today(ctx context.Context) ([]Appointment, error) {
	from, to := s.dayBounds()
	return s.repo.List(ctx, ListFilter{From: &from, To: &to})
}

// PendingCheckIn: de hoy, todavía scheduled o confirmed.
func (s *Service) PendingCheckIn(ctx context.Context) ([]Appointment, error) {
	from, to := s.dayBounds()
	return s.repo.List(ctx, ListFilter{
		Statuses: []Status{StatusScheduled, StatusConfirmed},
		From:     &from,
		To:       &to,
	})
}

// InProgress: ya llegaron y no salieron, por orden de llegada.
func (s *Service) InProgress(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx, ListFilter{
		Statuses:       []Status{StatusCheckedIn, StatusInProgress},
		OrderByCheckIn: true,
	})
}

func (s *Service) Confirm(ctx context.Context, id string) (Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, nil)
}

// CheckIn marca la llegada. Llamarlo dos veces falla: checked_in no vuelve a checked_in.
func (s *Service) CheckIn(ctx context.Context, id, beforePhotoURL string) (Appointment, error) {
	return s.transition(ctx, id, StatusCheckedIn, func(a *Appointment, now time.Time) {
		a.CheckInAt = &now
		if u := strings.TrimSpace(beforePhotoURL); u != "" {
			a.BeforePhotoURL = u
		}
	})
}

func (s *Service) Start(ctx context.Context, id string) (Appointment, error) {
	return s.transition(ctx, id, StatusInProgress, nil)
}

// Cancel no devuelve créditos de paquete ya consumidos.
func (s *Service) Cancel(ctx context.Context, id string) (Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, nil)
}

type CheckOutInput struct {
	AfterPhotoURL string
	Notes         *string // nil = conservar notas
}

// CheckOut completa la cita. En una sola tx: consumo del crédito, cambio de
// status, asientos del ledger y mensaje en el outbox. Todas las lecturas van
// antes de la primera escritura: el runner en memoria no tiene rollback.
// El aviso al tutor se intenta después del commit, fuera del ctx del request,
// y su fallo nunca revierte el checkout.
func (s *Service) CheckOut(ctx context.Context, id string, in CheckOutInput) (CheckoutResult, error) {
	if strings.TrimSpace(id) == "" {
		return CheckoutResult{}, errs.Invalid("appointment_id", "required")
	}

	var (
		out   Appointment
		msgID string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from := a.Status
		if !CanTransition(from, StatusCompleted) {
			return invalidTransition(a.ID, from, StatusCompleted)
		}
		offering, err := s.offerings.Get(ctx, a.ServiceID)
		if err != nil {
			return fmt.Errorf("load service: %w", err)
		}
		emp, err := s.performer(ctx, a)
		if err != nil {
			return err
		}
		notify := s.notifier != nil && s.notifier.Enabled()
		var contact checkoutContact
		if notify {
			if contact, err = s.loadContact(ctx, a); err != nil {
				return err
			}
		}

		if a.PackageID != "" {
			if _, err := s.credits.ConsumeCredit(ctx, a.PackageID, a.ID); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		a.Status = StatusCompleted
		a.CheckOutAt = &now
		if u := strings.TrimSpace(in.AfterPhotoURL); u != "" {
			a.AfterPhotoURL = u
		}
		if in.Notes != nil {
			a.Notes = strings.TrimSpace(*in.Notes)
		}
		a.UpdatedAt = now
		if err := s.repo.Transition(ctx, a, from); err != nil {
			return err
		}

		if err := s.recordLedger(ctx, a, offering, emp, now); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, a, offering.Name); err != nil {
			return err
		}

		if notify {
			m, err := s.notifier.EnqueueCheckout(ctx, a.ID, contact.payload(a, offering))
			if err != nil {
				return fmt.Errorf("enqueue notification: %w", err)
			}
			msgID = m.ID
		}

		out = a
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	res := CheckoutResult{Appointment: out, Notification: NotificationSkipped}
	if msgID == "" {
		return res, nil
	}
	// desacoplado del request: el checkout ya está confirmado
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
	defer cancel()
	if err := s.notifier.DeliverNow(deliverCtx, msgID); err != nil {
		fields := map[string]any{"appointment_id": out.ID, "message_id": msgID}
		if errors.Is(err, notifications.ErrNotClaimed) {
			logger.FromContext(ctx).Info("checkout notification left to dispatcher", fields)
		} else {
			fields["err"] = err
			logger.FromContext(ctx).Warn("checkout notification not delivered", fields)
		}
		res.Notification = NotificationPending
		res.Message = SoftCheckoutMessage
		return res, nil
	}
	res.Notification = NotificationDelivered
	return res, nil
}

// performer carga al profesional de la cita. Si ya no existe la comisión no
// aplica, igual que con el SET NULL de postgres.
func (s *Service) performer(ctx context.Context, a Appointment) (*employees.Employee, error) {
	if a.EmployeeID == "" {
		return nil, nil
	}
	emp, err := s.staff.Get(ctx, a.EmployeeID)
	if errors.Is(err, errs.ErrNotFound) {
		logger.FromContext(ctx).Warn("appointment employee missing, no commission", map[string]any{
			"appointment_id": a.ID,
			"employee_id":    a.EmployeeID,
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return &emp, nil
}

func (s *Service) recordLedger(ctx context.Context, a Appointment, offering catalog.Offering, emp *employees.Employee, now time.Time) error {
	if s.ledger == nil {
		return nil
	}

	var empID string
	if emp != nil {
		empID = emp.ID
	}

	// Pagado con crédito: el ingreso ya se registró al vender el paquete.
	if a.PackageID == "" && a.Price.IsPositive() {
		if _, err := s.ledger.Record(ctx, finance.RecordInput{
			Type:          finance.TypeIncome,
			Category:      finance.CategoryService,
			Description:   offering.Name,
			Amount:        a.Price,
			AppointmentID: a.ID,
			EmployeeID:    empID,
			Date:          now,
		}); err != nil {
			return fmt.Errorf("record service income: %w", err)
		}
	}

	if emp == nil {
		return nil
	}
	amount := employees.CommissionAmount(a.Price, emp.EffectiveCommission(offering.CommissionPercentage))
	if !amount.IsPositive() {
		return nil
	}
	if _, err := s.ledger.Record(ctx, finance.RecordInput{
		Type:          finance.TypeExpense,
		Category:      finance.CategoryCommission,
		Description:   "Comissão: " + emp.Name + " - " + offering.Name,
		Amount:        amount,
		AppointmentID: a.ID,
		EmployeeID:    emp.ID,
		Date:          now,
	}); err != nil {
		return fmt.Errorf("record commission: %w", err)
	}
	return nil
}

type checkoutContact struct {
	owner owners.Owner
	pet   pets.Pet
}

func (s *Service) loadContact(ctx context.Context, a Appointment) (checkoutContact, error) {
	owner, err := s.owners.Get(ctx, a.OwnerID)
	if err != nil {
		return checkoutContact{}, fmt.Errorf("load owner: %w", err)
	}
	pet, err := s.pets.Get(ctx, a.PetID)
	if err != nil {
		return checkoutContact{}, fmt.Errorf("load pet: %w", err)
	}
	return checkoutContact{owner: owner, pet: pet}, nil
}

func (c checkoutContact) payload(a Appointment, offering catalog.Offering) notifications.CheckoutPayload {
	whatsapp := c.owner.WhatsApp
	if whatsapp == "" {
		whatsapp = c.owner.Phone
	}
	return notifications.CheckoutPayload{
		PetName:       c.pet.Name,
		OwnerName:     c.owner.Name,
		OwnerWhatsApp: whatsapp,
		Service:       offering.Name,
		AfterPhoto:    a.AfterPhotoURL,
		Notes:         a.Notes,
		CheckoutAt:    *a.CheckOutAt,
	}
}

func (s *Service) transition(ctx context.Context, id string, to Status, mutate func(a *Appointment, now time.Time)) (Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return Appointment{}, errs.Invalid("appointment_id", "required")
	}

	var out Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from := a.Status
		if !CanTransition(from, to) {
			return invalidTransition(a.ID, from, to)
		}

		now := s.now().UTC()
		a.Status = to
		if mutate != nil {
			mutate(&a, now)
		}
		a.UpdatedAt = now
		if err := s.repo.Transition(ctx, a, from); err != nil {
			return err
		}
		if err := s.appendHistory(ctx, a, a.Status.Label()); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return out, nil
}

// appendHistory deja constancia en el historial de la mascota de la llegada,
// la salida o la cancelación. Otros cambios de status no se registran.
func (s *Service) appendHistory(ctx context.Context, a Appointment, title string) error {
	if s.timeline == nil {
		return nil
	}
	e := history.Entry{PetID: a.PetID, AppointmentID: a.ID, Title: title}
	switch a.Status {
	case StatusCheckedIn:
		e.Type, e.OccurredAt, e.PhotoURL = history.EntryCheckIn, *a.CheckInAt, a.BeforePhotoURL
	case StatusCompleted:
		e.Type, e.OccurredAt, e.PhotoURL, e.Notes = history.EntryCheckOut, *a.CheckOutAt, a.AfterPhotoURL, a.Notes
	case StatusCancelled:
		e.Type, e.OccurredAt = history.EntryCancelled, a.UpdatedAt
	default:
		return nil
	}
	if err := s.timeline.Append(ctx, e); err != nil {
		return fmt.Errorf("append pet history: %w", err)
	}
	return nil
}

func (s *Service) checkService(ctx context.Context, dept catalog.DepartmentID, serviceID string) (catalog.Offering, error) {
	if !dept.IsValid() {
		return catalog.Offering{}, errs.Invalid("department_id", "unknown department")
	}
	if !s.offerings.IsDepartmentEnabled(dept) {
		return catalog.Offering{}, errs.Invalid("department_id", "department is disabled")
	}
	o, err := s.offerings.Get(ctx, serviceID)
	if err != nil {
		return catalog.Offering{}, err
	}
	if o.DepartmentID != dept {
		return catalog.Offering{}, errs.Invalid("service_id", "service does not belong to department")
	}
	if !o.Active {
		return catalog.Offering{}, errs.Invalid("service_id", "service is inactive")
	}
	return o, nil
}

func (s *Service) dayBounds() (time.Time, time.Time) {
	n := s.now().In(s.loc)
	from := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 0, 1)
}

func invalidTransition(id string, from, to Status) error {
	return fmt.Errorf("appointment %s: %s -> %s: %w", id, from, to, errs.ErrInvalidTransition)
}
