package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_OverwritesAndConsumesOnce(t *testing.T) {
	w, r := NewLatest[int]()

	_, ok := r.Read()
	assert.False(t, ok)

	w.Write(1)
	w.Write(2)

	v, ok := r.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v, "only the latest write should be observed")

	_, ok = r.Read()
	assert.False(t, ok)
}

func TestRing_DeliversEveryMessageInOrder(t *testing.T) {
	w, r := NewRing[int](4)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(i))
	}
	var got []int
	r.DrainAll(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestRing_FullReturnsErrInsteadOfBlocking(t *testing.T) {
	w, _ := NewRing[int](1)
	require.NoError(t, w.Write(1))
	err := w.Write(2)
	assert.Error(t, err)
}
