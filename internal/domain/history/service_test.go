package history

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

type testRepo struct {
	byID map[string]Entry
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Entry{}} }

func (r *testRepo) Create(ctx context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, errs.NotFound("history entry", id)
	}
	return e, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string, f ListFilter) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range r.byID {
		if e.PetID == petID && f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) Void(ctx context.Context, id string) error {
	e := r.byID[id]
	e.Status = StatusVoided
	r.byID[id] = e
	return nil
}

type knownPets map[string]bool

func (k knownPets) Exists(ctx context.Context, id string) error {
	if !k[id] {
		return errs.NotFound("pet", id)
	}
	return nil
}

var staff = Actor{Type: ActorUser, ID: "u-1"}

func newTestService(now time.Time) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, knownPets{"thor": true})
	svc.SetClock(func() time.Time { return now })
	return svc, repo
}

func TestAddNote(t *testing.T) {
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	e, err := svc.AddNote(ctx, "thor", staff, NoteInput{Title: "Alergia", Notes: "  reagiu ao shampoo  "})
	require.NoError(t, err)
	assert.Equal(t, EntryNote, e.Type)
	assert.Equal(t, "reagiu ao shampoo", e.Notes)
	assert.Equal(t, now, e.OccurredAt)
	assert.Equal(t, StatusActive, e.Status)

	_, err = svc.AddNote(ctx, "thor", staff, NoteInput{})
	assert.Equal(t, "notes", errs.Field(err))

	future := now.Add(time.Hour)
	_, err = svc.AddNote(ctx, "thor", staff, NoteInput{Notes: "x", OccurredAt: &future})
	assert.Equal(t, "occurred_at", errs.Field(err))

	_, err = svc.AddNote(ctx, "rex", staff, NoteInput{Notes: "x"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = svc.AddNote(ctx, "thor", Actor{}, NoteInput{Notes: "x"})
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestAppend_FillsSystemDefaults(t *testing.T) {
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	svc, repo := newTestService(now)

	require.NoError(t, svc.Append(context.Background(), Entry{PetID: "thor", AppointmentID: "a-1", Type: EntryCheckIn}))
	require.Len(t, repo.byID, 1)
	for _, e := range repo.byID {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, ActorSystem, e.Actor.Type)
		assert.Equal(t, now, e.RecordedAt)
		assert.Equal(t, now, e.OccurredAt)
	}

	err := svc.Append(context.Background(), Entry{PetID: "thor", Type: "vacina"})
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestListAndVoid(t *testing.T) {
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	earlier := now.Add(-48 * time.Hour)
	old, err := svc.AddNote(ctx, "thor", staff, NoteInput{Notes: "primeira visita", OccurredAt: &earlier})
	require.NoError(t, err)
	recent, err := svc.AddNote(ctx, "thor", staff, NoteInput{Notes: "segunda visita"})
	require.NoError(t, err)

	items, err := svc.ListByPet(ctx, "thor", ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, recent.ID, items[0].ID)

	_, err = svc.Void(ctx, "rex", old.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	voided, err := svc.Void(ctx, "thor", old.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoided, voided.Status)

	items, err = svc.ListByPet(ctx, "thor", ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = svc.ListByPet(ctx, "thor", ListFilter{IncludeVoided: true})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.ListByPet(ctx, "thor", ListFilter{Types: []EntryType{"bath"}})
	assert.Equal(t, "types", errs.Field(err))
}
