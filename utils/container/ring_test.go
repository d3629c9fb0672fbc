package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/container"
)

func TestRingInit(t *testing.T) {
	r := container.NewRing[int](3)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 3, r.Cap())
	assert.Empty(t, r.Oldest())
	assert.Panics(t, func() { container.NewRing[int](0) })
}

func TestRingOverwrite(t *testing.T) {
	r := container.NewRing[int](3)

	// 1, 2
	r.Push(1)
	r.Push(2)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []int{1, 2}, r.Oldest())

	// 1, 2, 3
	r.Push(3)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{1, 2, 3}, r.Oldest())

	// 4 覆盖 1
	r.Push(4)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{2, 3, 4}, r.Oldest())
	assert.Equal(t, 4, r.At(0))

	// 5, 6 覆盖 2, 3
	r.Push(5)
	r.Push(6)
	assert.Equal(t, []int{4, 5, 6}, r.Oldest())
	assert.Equal(t, []int{6, 4}, r.Pick([]int{2, 0}))
}
