package notifications

import (
	"encoding/json"
	"slices"
	"time"
)

// Status del mensaje en el outbox.
// @Enum pending, delivered, failed
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed" // agotó intentos
)

var allStatuses = [...]Status{StatusPending, StatusDelivered, StatusFailed}

func (s Status) IsValid() bool { return slices.Contains(allStatuses[:], s) }

type Kind string

const KindCheckout Kind = "checkout"

// Message es una fila del outbox.
type Message struct {
	ID            string
	Kind          Kind
	AppointmentID string
	Payload       json.RawMessage

	Status        Status
	Attempts      int
	NextAttemptAt time.Time
	LastError     string

	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// CheckoutPayload es el body del webhook de checkout (contrato con el receptor).
type CheckoutPayload struct {
	Type          string    `json:"type"`
	PetName       string    `json:"petName"`
	OwnerName     string    `json:"ownerName"`
	OwnerWhatsApp string    `json:"ownerWhatsapp"`
	Service       string    `json:"service"`
	AfterPhoto    string    `json:"afterPhoto"`
	Notes         string    `json:"notes"`
	CheckoutAt    time.Time `json:"checkoutAt"`
}

type ListFilter struct {
	Status        Status
	AppointmentID string
	Limit         int
}

// DispatchResult resume una pasada del dispatcher.
type DispatchResult struct {
	Claimed   int
	Delivered int
	Retrying  int
	Failed    int
}
