package memory

import (
	"context"

	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/history"
	"petshop-manager/internal/domain/owners"
	"petshop-manager/internal/domain/packages"
	"petshop-manager/internal/domain/pets"
)

// Store agrupa los repos en memoria enlazados para que los borrados sigan
// las mismas reglas ON DELETE que el esquema de postgres:
//
//	owners       -> pets, appointments, customer_packages   CASCADE
//	pets         -> appointments, customer_packages, history CASCADE
//	employees    -> appointments, transactions              SET NULL
//	appointments -> transactions, history                   SET NULL
//	customer_packages -> appointments                       SET NULL
type Store struct {
	Owners       owners.Repository
	Pets         pets.Repository
	Employees    employees.Repository
	Packages     packages.Repository
	Finance      finance.Repository
	History      history.Repository
	Appointments appointments.Repository
}

func NewStore() *Store {
	c := &cascade{
		owners:       &ownerRepo{byID: make(map[string]owners.Owner)},
		pets:         &petRepo{byID: make(map[string]pets.Pet)},
		employees:    &employeeRepo{byID: make(map[string]employees.Employee)},
		packages:     NewPackageRepo().(*packageRepo),
		finance:      &transactionRepo{byID: make(map[string]finance.Transaction)},
		history:      &historyRepo{byID: make(map[string]history.Entry)},
		appointments: &appointmentRepo{byID: make(map[string]appointments.Appointment)},
	}
	c.owners.onDelete = c.ownerDeleted
	c.pets.onDelete = c.petDeleted
	c.employees.onDelete = c.employeeDeleted
	c.appointments.onDelete = c.appointmentDeleted

	return &Store{
		Owners:       c.owners,
		Pets:         c.pets,
		Employees:    c.employees,
		Packages:     c.packages,
		Finance:      c.finance,
		History:      c.history,
		Appointments: c.appointments,
	}
}

// cascade corre con el lock del repo origen tomado. El orden de locks es
// owners -> pets -> appointments -> finance/history, nunca al revés.
type cascade struct {
	owners       *ownerRepo
	pets         *petRepo
	employees    *employeeRepo
	packages     *packageRepo
	finance      *transactionRepo
	history      *historyRepo
	appointments *appointmentRepo
}

func (c *cascade) ownerDeleted(ctx context.Context, id string) {
	petIDs := removeWhere(&c.pets.mu, c.pets.byID, func(p pets.Pet) bool { return p.OwnerID == id })
	for _, petID := range petIDs {
		c.petDeleted(ctx, petID)
	}
	c.appointmentsRemoved(ctx, removeWhere(&c.appointments.mu, c.appointments.byID, func(a appointments.Appointment) bool {
		return a.OwnerID == id
	}))
	c.purchasesRemoved(ctx, removeWhere(&c.packages.mu, c.packages.purchases, func(cp packages.CustomerPackage) bool {
		return cp.OwnerID == id
	}))
}

func (c *cascade) petDeleted(ctx context.Context, id string) {
	c.appointmentsRemoved(ctx, removeWhere(&c.appointments.mu, c.appointments.byID, func(a appointments.Appointment) bool {
		return a.PetID == id
	}))
	c.purchasesRemoved(ctx, removeWhere(&c.packages.mu, c.packages.purchases, func(cp packages.CustomerPackage) bool {
		return cp.PetID == id
	}))
	removeWhere(&c.history.mu, c.history.byID, func(e history.Entry) bool { return e.PetID == id })
}

func (c *cascade) employeeDeleted(_ context.Context, id string) {
	updateWhere(&c.appointments.mu, c.appointments.byID, func(a *appointments.Appointment) bool {
		if a.EmployeeID != id {
			return false
		}
		a.EmployeeID = ""
		return true
	})
	updateWhere(&c.finance.mu, c.finance.byID, func(t *finance.Transaction) bool {
		if t.EmployeeID != id {
			return false
		}
		t.EmployeeID = ""
		return true
	})
}

func (c *cascade) appointmentDeleted(_ context.Context, id string) {
	updateWhere(&c.finance.mu, c.finance.byID, func(t *finance.Transaction) bool {
		if t.AppointmentID != id {
			return false
		}
		t.AppointmentID = ""
		return true
	})
	updateWhere(&c.history.mu, c.history.byID, func(e *history.Entry) bool {
		if e.AppointmentID != id {
			return false
		}
		e.AppointmentID = ""
		return true
	})
}

func (c *cascade) appointmentsRemoved(ctx context.Context, ids []string) {
	for _, id := range ids {
		c.appointmentDeleted(ctx, id)
	}
}

func (c *cascade) purchasesRemoved(_ context.Context, ids []string) {
	for _, id := range ids {
		updateWhere(&c.appointments.mu, c.appointments.byID, func(a *appointments.Appointment) bool {
			if a.PackageID != id {
				return false
			}
			a.PackageID = ""
			return true
		})
	}
}

type locker interface {
	Lock()
	Unlock()
}

func removeWhere[T any](mu locker, m map[string]T, match func(T) bool) []string {
	mu.Lock()
	defer mu.Unlock()

	var removed []string
	for id, v := range m {
		if match(v) {
			delete(m, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func updateWhere[T any](mu locker, m map[string]T, fn func(*T) bool) {
	mu.Lock()
	defer mu.Unlock()

	for id, v := range m {
		if fn(&v) {
			m[id] = v
		}
	}
}
