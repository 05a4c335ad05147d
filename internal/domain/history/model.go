package history

import (
	"slices"
	"time"
)

// EntryType clasifica una entrada del historial de la mascota.
// @Enum check_in, check_out, cancelled, note
type EntryType string

const (
	EntryCheckIn   EntryType = "check_in"
	EntryCheckOut  EntryType = "check_out"
	EntryCancelled EntryType = "cancelled"
	EntryNote      EntryType = "note"
)

var allEntryTypes = [...]EntryType{EntryCheckIn, EntryCheckOut, EntryCancelled, EntryNote}

func (t EntryType) IsValid() bool { return slices.Contains(allEntryTypes[:], t) }

type ActorType string

const (
	ActorUser   ActorType = "user"   // alguien del equipo vía API
	ActorSystem ActorType = "system" // generado por el flujo de citas
)

type Actor struct {
	Type ActorType
	ID   string
}

type Status string

const (
	StatusActive Status = "active"
	StatusVoided Status = "voided"
)

// Entry es un registro inmutable; solo puede anularse.
type Entry struct {
	ID            string
	PetID         string
	AppointmentID string // vacío en notas manuales

	Type EntryType

	OccurredAt time.Time
	RecordedAt time.Time

	Title    string
	Notes    string
	PhotoURL string

	Actor  Actor
	Status Status
}

type ListFilter struct {
	Types         []EntryType
	From          *time.Time
	To            *time.Time
	Query         string
	IncludeVoided bool
	Limit         int
}

// Matches aplica el filtro salvo Limit.
func (f ListFilter) Matches(e Entry) bool {
	if !f.IncludeVoided && e.Status == StatusVoided {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	return true
}
