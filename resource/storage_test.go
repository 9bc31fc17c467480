package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_NewItemsCrossAndUnusedItemsComeBack(t *testing.T) {
	storage, controller := NewStorage[int](4, 0)

	key, err := controller.Reserve()
	require.NoError(t, err)
	require.NoError(t, controller.Add(key, 7))

	// Not installed until RemoveAndAdd runs.
	_, ok := storage.Arena.Get(key)
	assert.False(t, ok)

	storage.RemoveAndAdd(func(*int) bool { return true })

	v, ok := storage.Arena.Get(key)
	require.True(t, ok)
	assert.Equal(t, 7, *v)

	// Now let it die.
	storage.RemoveAndAdd(func(v *int) bool { return *v != 7 })
	_, ok = storage.Arena.Get(key)
	assert.False(t, ok)

	dead, ok := controller.PopUnused()
	require.True(t, ok)
	assert.Equal(t, 7, dead)
}

func TestStorage_NoItemIsBothAliveAndUnused(t *testing.T) {
	storage, controller := NewStorage[int](4, 0)
	keys := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		key, err := controller.Reserve()
		require.NoError(t, err)
		require.NoError(t, controller.Add(key, i))
		keys = append(keys, int(key.Index()))
	}
	storage.RemoveAndAdd(func(*int) bool { return true })
	require.Equal(t, 3, storage.Arena.Len())

	storage.RemoveAndAdd(func(v *int) bool { return *v != 1 })
	assert.Equal(t, 2, storage.Arena.Len())

	dead, ok := controller.PopUnused()
	require.True(t, ok)
	assert.Equal(t, 1, dead)

	_, ok = controller.PopUnused()
	assert.False(t, ok, "only the one removed item should have crossed back")
}
