package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petshop-manager/internal/domain/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.Invalid("name", "required"), http.StatusBadRequest},
		{errs.NotFound("pet", "p1"), http.StatusNotFound},
		{fmt.Errorf("consume: %w", errs.ErrInsufficientCredit), http.StatusConflict},
		{errs.ErrCreditExpired, http.StatusConflict},
		{errs.ErrInvalidTransition, http.StatusConflict},
		{errs.ErrConflict, http.StatusConflict},
		{errs.ErrForbidden, http.StatusForbidden},
		{errs.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("x: %w", errs.ErrBackend), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("pq: secret detail"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Error)
}

func TestWriteError_ValidationCarriesField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errs.Invalid("scheduled_at", "must not be in the past"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "scheduled_at", body.Field)
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2025-01-10&to=2025-02-01T00:00:00Z&status=scheduled,,confirmed&active=true&bad=10/01", nil)

	from, err := QueryTime(req, "from")
	require.NoError(t, err)
	assert.Equal(t, 10, from.Day())

	to, err := QueryTime(req, "to")
	require.NoError(t, err)
	assert.Equal(t, 2, int(to.Month()))

	_, err = QueryTime(req, "bad")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	none, err := QueryTime(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Equal(t, []string{"scheduled", "confirmed"}, QueryList(req, "status"))
	assert.True(t, QueryBool(req, "active"))
	assert.False(t, QueryBool(req, "missing"))
}
