package owners

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

type testRepo struct {
	byID map[string]Owner
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Owner{}} }

func (r *testRepo) Create(ctx context.Context, o Owner) error {
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) Update(ctx context.Context, o Owner) error {
	if _, ok := r.byID[o.ID]; !ok {
		return errs.NotFound("owner", o.ID)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Owner, error) {
	o, ok := r.byID[id]
	if !ok {
		return Owner{}, errs.NotFound("owner", id)
	}
	return o, nil
}

func (r *testRepo) Search(ctx context.Context, q string) ([]Owner, error) {
	out := make([]Owner, 0)
	for _, o := range r.byID {
		if q == "" || strings.Contains(strings.ToLower(o.Name), strings.ToLower(q)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func TestService_Create_NormalizesAndValidates(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	o, err := svc.Create(context.Background(), CreateInput{
		Name:     "  Maria Silva ",
		Email:    "maria@example.com",
		WhatsApp: "+55 (11) 99999-0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", o.Name)
	assert.Equal(t, "+5511999990000", o.WhatsApp)
	assert.Equal(t, now, o.CreatedAt)

	_, err = svc.Create(context.Background(), CreateInput{Name: ""})
	assert.Equal(t, "name", errs.Field(err))

	_, err = svc.Create(context.Background(), CreateInput{Name: "João", Email: "not-an-email"})
	assert.Equal(t, "email", errs.Field(err))
}

func TestService_UpdateAndExists(t *testing.T) {
	svc := NewService(newTestRepo())
	o, err := svc.Create(context.Background(), CreateInput{Name: "Maria"})
	require.NoError(t, err)

	addr := "Rua das Flores, 10"
	updated, err := svc.Update(context.Background(), o.ID, UpdateInput{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Maria", updated.Name)
	assert.Equal(t, addr, updated.Address)

	require.NoError(t, svc.Exists(context.Background(), o.ID))
	err = svc.Exists(context.Background(), "missing")
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = svc.Get(context.Background(), " ")
	assert.True(t, errors.Is(err, errs.ErrValidation))
}
