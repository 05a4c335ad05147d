package appointments

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
)

// Status del agendamiento.
// @Enum scheduled, confirmed, checked_in, in_progress, completed, cancelled
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = [...]Status{
	StatusScheduled, StatusConfirmed, StatusCheckedIn,
	StatusInProgress, StatusCompleted, StatusCancelled,
}

var statusLabels = [...]string{
	"Agendado", "Confirmado", "Check-in", "Em andamento", "Concluído", "Cancelado",
}

var _ = [1]struct{}{}[len(allStatuses)-len(statusLabels)]

// transitions: destinos directos permitidos desde cada estado.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCheckedIn, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:  {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

func AllStatuses() []Status { return allStatuses[:] }

func (s Status) IsValid() bool  { return slices.Contains(allStatuses[:], s) }
func (s Status) String() string { return string(s) }

func (s Status) Label() string {
	if i := slices.Index(allStatuses[:], s); i >= 0 {
		return statusLabels[i]
	}
	return ""
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next devuelve copia de los destinos permitidos.
func (s Status) Next() []Status {
	return slices.Clone(transitions[s])
}

func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

type Appointment struct {
	ID string

	PetID        string
	OwnerID      string
	DepartmentID catalog.DepartmentID
	ServiceID    string
	EmployeeID   string // opcional
	PackageID    string // CustomerPackage, opcional

	ScheduledAt time.Time
	Status      Status

	CheckInAt  *time.Time
	CheckOutAt *time.Time

	BeforePhotoURL string
	AfterPhotoURL  string
	Notes          string

	// Price se congela al crear; Update no lo toca.
	Price decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Statuses     []Status
	From         *time.Time // scheduled_at >= From
	To           *time.Time // scheduled_at < To
	OwnerID      string
	PetID        string
	EmployeeID   string
	DepartmentID catalog.DepartmentID

	// OrderByCheckIn ordena por check_in_at en vez de scheduled_at.
	OrderByCheckIn bool
}

// Matches aplica el filtro en memoria (adapter memory y tests).
func (f ListFilter) Matches(a Appointment) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	if f.From != nil && a.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.ScheduledAt.Before(*f.To) {
		return false
	}
	if f.OwnerID != "" && a.OwnerID != f.OwnerID {
		return false
	}
	if f.PetID != "" && a.PetID != f.PetID {
		return false
	}
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	if f.DepartmentID != "" && a.DepartmentID != f.DepartmentID {
		return false
	}
	return true
}

// NotificationStatus informa qué pasó con el aviso al tutor tras el checkout.
type NotificationStatus string

const (
	NotificationDelivered NotificationStatus = "delivered"
	NotificationPending   NotificationStatus = "pending" // queda en el outbox para reintento
	NotificationSkipped   NotificationStatus = "skipped" // sin canal configurado
)

const SoftCheckoutMessage = "checkout succeeded; notification may not have been delivered"

type CheckoutResult struct {
	Appointment  Appointment
	Notification NotificationStatus
	Message      string
}
