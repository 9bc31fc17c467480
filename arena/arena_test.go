package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_InsertGetRemove(t *testing.T) {
	a := New[string](4)

	k1, err := a.Insert("a")
	require.NoError(t, err)
	k2, err := a.Insert("b")
	require.NoError(t, err)

	v, ok := a.Get(k1)
	require.True(t, ok)
	assert.Equal(t, "a", *v)

	removed, ok := a.Remove(k1)
	require.True(t, ok)
	assert.Equal(t, "a", removed)

	_, ok = a.Get(k1)
	assert.False(t, ok, "removed key must miss")

	v2, ok := a.Get(k2)
	require.True(t, ok)
	assert.Equal(t, "b", *v2)
}

func TestArena_StaleKeyMissesAfterReuse(t *testing.T) {
	a := New[int](1)
	k1, err := a.Insert(1)
	require.NoError(t, err)

	_, ok := a.Remove(k1)
	require.True(t, ok)

	k2, err := a.Insert(2)
	require.NoError(t, err)
	assert.Equal(t, k1.Index(), k2.Index(), "single-slot arena must reuse the index")
	assert.NotEqual(t, k1.Generation(), k2.Generation())

	_, ok = a.Get(k1)
	assert.False(t, ok, "stale key must never alias the new occupant")

	v, ok := a.Get(k2)
	require.True(t, ok)
	assert.Equal(t, 2, *v)
}

func TestArena_FullWhenCapacityExhausted(t *testing.T) {
	a := New[int](2)
	_, err := a.Insert(1)
	require.NoError(t, err)
	_, err = a.Insert(2)
	require.NoError(t, err)

	_, err = a.Insert(3)
	assert.ErrorIs(t, err, ErrArenaFull)
}

func TestArena_InsertWithKey_InvalidAndNotReserved(t *testing.T) {
	a := New[int](2)
	key, err := a.controller.TryReserve()
	require.NoError(t, err)

	require.NoError(t, a.InsertWithKey(key, 42))
	err = a.InsertWithKey(key, 43)
	assert.ErrorIs(t, err, ErrKeyNotReserved)

	stale := Key{index: key.index, generation: key.generation + 1}
	err = a.InsertWithKey(stale, 1)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestArena_IterationOrderMostRecentFirst(t *testing.T) {
	a := New[int](3)
	_, _ = a.Insert(1)
	_, _ = a.Insert(2)
	_, _ = a.Insert(3)

	var order []int
	a.ForEach(func(_ Key, v *int) {
		order = append(order, *v)
	})
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestArena_Retain(t *testing.T) {
	a := New[int](4)
	for i := 1; i <= 4; i++ {
		_, _ = a.Insert(i)
	}
	a.Retain(func(v *int) bool { return *v%2 == 0 })
	assert.Equal(t, 2, a.Len())
}

func TestController_TryReserveIsLockFreeAndBounded(t *testing.T) {
	a := New[int](1)
	c := a.Controller()
	_, err := c.TryReserve()
	require.NoError(t, err)
	_, err = c.TryReserve()
	assert.ErrorIs(t, err, ErrArenaFull)
}
