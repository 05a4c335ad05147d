package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"petshop-manager/internal/domain/errs"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type PetLookup interface {
	Exists(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
	pets PetLookup
	now  func() time.Time
}

func NewService(repo Repository, pets PetLookup) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type NoteInput struct {
	OccurredAt *time.Time // nil => ahora
	Title      string
	Notes      string
	PhotoURL   string
}

// AddNote registra una observación manual del equipo.
func (s *Service) AddNote(ctx context.Context, petID string, actor Actor, in NoteInput) (Entry, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Entry{}, errs.Invalid("pet_id", "required")
	}
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Notes) == "" {
		return Entry{}, errs.Invalid("notes", "title or notes required")
	}
	if actor.Type == "" || strings.TrimSpace(actor.ID) == "" {
		return Entry{}, errs.ErrUnauthorized
	}
	if err := s.pets.Exists(ctx, petID); err != nil {
		return Entry{}, err
	}

	now := s.now().UTC()
	occurred := now
	if in.OccurredAt != nil {
		if in.OccurredAt.After(now) {
			return Entry{}, errs.Invalid("occurred_at", "must not be in the future")
		}
		occurred = in.OccurredAt.UTC()
	}

	e := Entry{
		ID:         uuid.NewString(),
		PetID:      petID,
		Type:       EntryNote,
		OccurredAt: occurred,
		RecordedAt: now,
		Title:      strings.TrimSpace(in.Title),
		Notes:      strings.TrimSpace(in.Notes),
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		Actor:      actor,
		Status:     StatusActive,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Append graba una entrada generada por el sistema (check-in, check-out,
// cancelación). Dentro de RunInTx participa de la tx del ctx.
func (s *Service) Append(ctx context.Context, e Entry) error {
	if e.PetID == "" || !e.Type.IsValid() {
		return errs.Invalid("entry", "pet_id and type required")
	}
	now := s.now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	if e.Actor.Type == "" {
		e.Actor = Actor{Type: ActorSystem, ID: "appointments"}
	}
	e.RecordedAt = now
	e.Status = StatusActive
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	if strings.TrimSpace(id) == "" {
		return Entry{}, errs.Invalid("entry_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string, f ListFilter) ([]Entry, error) {
	if err := s.pets.Exists(ctx, petID); err != nil {
		return nil, err
	}
	for _, t := range f.Types {
		if !t.IsValid() {
			return nil, errs.Invalid("types", "unknown type "+string(t))
		}
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	f.Limit = min(f.Limit, maxLimit)
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.ListByPet(ctx, petID, f)
}

// Void anula la entrada (no se borra). Debe pertenecer a la mascota.
func (s *Service) Void(ctx context.Context, petID, id string) (Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if e.PetID != petID {
		return Entry{}, errs.NotFound("history entry", id)
	}
	if e.Status == StatusVoided {
		return e, nil
	}
	if err := s.repo.Void(ctx, id); err != nil {
		return Entry{}, err
	}
	e.Status = StatusVoided
	return e, nil
}
