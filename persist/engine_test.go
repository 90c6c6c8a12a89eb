package persist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	e := MakeInMemory()

	require.NoError(t, e.Persist("driver-1", []byte("alpha")))
	require.NoError(t, e.Persist("driver-2", []byte("beta")))

	state, err := e.Read("driver-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), state)

	all, err := e.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryPersistReplaces(t *testing.T) {
	e := MakeInMemory()

	require.NoError(t, e.Persist("driver-1", []byte("alpha")))
	require.NoError(t, e.Persist("driver-1", []byte("beta")))

	state, err := e.Read("driver-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("beta"), state)

	all, err := e.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInMemoryExpunge(t *testing.T) {
	e := MakeInMemory()

	require.NoError(t, e.Persist("driver-1", []byte("alpha")))
	require.NoError(t, e.Expunge("driver-1"))

	_, err := e.Read("driver-1")
	assert.Equal(t, ErrNotFound, err)

	// expunging an absent id is fine
	assert.NoError(t, e.Expunge("driver-1"))
}

func TestBlackholeStoresNothing(t *testing.T) {
	e := MakeBlackhole()

	require.NoError(t, e.Persist("driver-1", []byte("alpha")))

	_, err := e.Read("driver-1")
	assert.Equal(t, ErrNotFound, err)

	all, err := e.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.NoError(t, e.Expunge("driver-1"))
}

func TestStorageFailureExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageFailure("persist", cause)

	assert.True(t, IsStorageFailure(err))
	assert.Equal(t, cause, err.Cause())
	assert.Contains(t, err.Error(), "persist")
	assert.False(t, IsStorageFailure(cause))
}
