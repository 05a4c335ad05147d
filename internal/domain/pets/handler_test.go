package pets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePatchBirthDate(t *testing.T) {
	absent, err := decodePatchBirthDate(nil)
	require.NoError(t, err)
	assert.False(t, absent.Present)

	cleared, err := decodePatchBirthDate(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.True(t, cleared.Present)
	assert.Nil(t, cleared.Value)

	set, err := decodePatchBirthDate(json.RawMessage(`"2021-04-05"`))
	require.NoError(t, err)
	require.NotNil(t, set.Value)
	assert.Equal(t, 2021, set.Value.Year())

	_, err = decodePatchBirthDate(json.RawMessage(`"05/04/2021"`))
	assert.Error(t, err)

	_, err = decodePatchBirthDate(json.RawMessage(`12`))
	assert.Error(t, err)
}
