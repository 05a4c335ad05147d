package pets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Pet{}} }

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return errs.NotFound("pet", p.ID)
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, errs.NotFound("pet", id)
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerID string) ([]Pet, error) {
	return r.Search(ctx, SearchFilter{OwnerID: ownerID})
}

func (r *testRepo) Search(ctx context.Context, f SearchFilter) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Species != "" && p.Species != f.Species {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type knownOwners map[string]bool

func (k knownOwners) Exists(ctx context.Context, id string) error {
	if !k[id] {
		return errs.NotFound("owner", id)
	}
	return nil
}

func newSvc() *Service {
	svc := NewService(newTestRepo(), knownOwners{"maria": true, "joao": true})
	svc.SetClock(func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) })
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_RequiresExistingOwner(t *testing.T) {
	svc := newSvc()

	_, err := svc.Create(context.Background(), CreateInput{OwnerID: "ghost", Name: "Thor", Species: SpeciesDog})
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	p, err := svc.Create(context.Background(), CreateInput{
		OwnerID:   "maria",
		Name:      "Thor",
		Species:   SpeciesDog,
		Size:      SizeLarge,
		Allergies: []string{"frango", " Frango ", "", "corante"},
		Behaviors: []Behavior{{Type: BehaviorFearsDryer, Notes: "usar toalha"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"frango", "corante"}, p.Allergies)
	assert.Equal(t, "maria", p.OwnerID)
}

func TestService_Create_Validation(t *testing.T) {
	svc := newSvc()
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		in    CreateInput
		field string
	}{
		{CreateInput{Name: "Thor", Species: SpeciesDog}, "owner_id"},
		{CreateInput{OwnerID: "maria", Species: SpeciesDog}, "name"},
		{CreateInput{OwnerID: "maria", Name: "Thor", Species: "dragon"}, "species"},
		{CreateInput{OwnerID: "maria", Name: "Thor", Species: SpeciesDog, Size: "huge"}, "size"},
		{CreateInput{OwnerID: "maria", Name: "Thor", Species: SpeciesDog, BirthDate: &future}, "birth_date"},
		{CreateInput{OwnerID: "maria", Name: "Thor", Species: SpeciesDog, Behaviors: []Behavior{{Type: "sleepy"}}}, "behaviors"},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.in)
		require.True(t, errors.Is(err, errs.ErrValidation), "field %s: %v", tc.field, err)
		assert.Equal(t, tc.field, errs.Field(err))
	}
}

func TestService_Update_KeepsOwnerAndClearsBirthDate(t *testing.T) {
	svc := newSvc()
	bd := time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(context.Background(), CreateInput{OwnerID: "maria", Name: "Thor", Species: SpeciesDog, BirthDate: &bd})
	require.NoError(t, err)

	name := "Thor II"
	updated, err := svc.Update(context.Background(), p.ID, UpdateInput{
		Name:      &name,
		BirthDate: PatchBirthDate{Present: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "Thor II", updated.Name)
	assert.Nil(t, updated.BirthDate)
	assert.Equal(t, "maria", updated.OwnerID)
}

func TestService_EnsureBelongsTo(t *testing.T) {
	svc := newSvc()
	p, err := svc.Create(context.Background(), CreateInput{OwnerID: "maria", Name: "Thor", Species: SpeciesDog})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureBelongsTo(context.Background(), p.ID, "maria"))

	err = svc.EnsureBelongsTo(context.Background(), p.ID, "joao")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	err = svc.EnsureBelongsTo(context.Background(), "missing", "maria")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestEnumLabels(t *testing.T) {
	for _, s := range allSpecies {
		assert.NotEmpty(t, s.Label())
	}
	for _, s := range allSizes {
		assert.NotEmpty(t, s.Label())
	}
	for _, b := range allBehaviors {
		assert.NotEmpty(t, b.Label())
	}
	assert.Equal(t, "Medo de secador", BehaviorFearsDryer.Label())
}
