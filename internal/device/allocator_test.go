package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAllocator_AllocFree(t *testing.T) {
	a := NewHostAllocator()

	buf, err := a.Alloc(Accel(0), 1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, buf.Len())
	assert.Equal(t, Accel(0), buf.Place)
	assert.Equal(t, int64(1024), a.LiveBytes())

	require.NoError(t, a.Free(Accel(0), buf))
	assert.Equal(t, int64(0), a.LiveBytes())
}

func TestHostAllocator_DistinctIDs(t *testing.T) {
	a := NewHostAllocator()

	first, err := a.Alloc(CPU(), 16)
	require.NoError(t, err)
	second, err := a.Alloc(CPU(), 16)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestHostAllocator_Errors(t *testing.T) {
	a := NewHostAllocator()

	_, err := a.Alloc(CPU(), 0)
	assert.Error(t, err)

	buf, err := a.Alloc(Accel(1), 8)
	require.NoError(t, err)

	// Wrong place.
	assert.Error(t, a.Free(Accel(0), buf))

	// Double free.
	require.NoError(t, a.Free(Accel(1), buf))
	assert.Error(t, a.Free(Accel(1), buf))
}
