package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/container"
)

type testItem struct {
	v, length float64
}

func (i *testItem) V() float64      { return i.v }
func (i *testItem) Length() float64 { return i.length }

func newNode(theta float64) *container.RingNode[*testItem, struct{}] {
	return &container.RingNode[*testItem, struct{}]{
		Theta: theta,
		Value: &testItem{v: theta * 10, length: 5},
	}
}

func TestRingMerge(t *testing.T) {
	ring := &container.Ring[*testItem, struct{}]{ID: "test"}
	ring.Merge([]*container.RingNode[*testItem, struct{}]{
		newNode(3), newNode(1), newNode(2),
	})
	assert.Equal(t, []float64{1, 2, 3}, ring.Keys())
	assert.Equal(t, 3, ring.Len())

	// 归并到已有链表中间与两端
	ring.Merge([]*container.RingNode[*testItem, struct{}]{
		newNode(2.5), newNode(.5), newNode(4),
	})
	assert.Equal(t, []float64{.5, 1, 2, 2.5, 3, 4}, ring.Keys())
}

func TestRingCyclic(t *testing.T) {
	ring := &container.Ring[*testItem, struct{}]{}
	a, b, c := newNode(1), newNode(2), newNode(3)
	ring.Merge([]*container.RingNode[*testItem, struct{}]{a, b, c})

	assert.Nil(t, c.Next())
	assert.Same(t, a, c.NextCyclic())
	assert.Nil(t, a.Prev())
	assert.Same(t, c, a.PrevCyclic())
	assert.Same(t, b, a.NextCyclic())

	// 单结点环的前驱后继均为自身
	single := &container.Ring[*testItem, struct{}]{}
	only := newNode(1)
	single.PushBack(only)
	assert.Same(t, only, only.NextCyclic())
	assert.Same(t, only, only.PrevCyclic())
}

func TestRingPopUnsorted(t *testing.T) {
	ring := &container.Ring[*testItem, struct{}]{}
	a, b, c, d := newNode(1), newNode(2), newNode(3), newNode(4)
	ring.Merge([]*container.RingNode[*testItem, struct{}]{a, b, c, d})

	// d跨越2π回绕到最前，b前进越过c
	d.Theta = .5
	b.Theta = 3.5
	unsorted := ring.PopUnsorted()
	ring.Merge(unsorted)
	assert.Equal(t, []float64{.5, 1, 3, 3.5}, ring.Keys())
	assert.Equal(t, 4, ring.Len())
}

func TestRingRemove(t *testing.T) {
	ring := &container.Ring[*testItem, struct{}]{}
	a, b := newNode(1), newNode(2)
	ring.Merge([]*container.RingNode[*testItem, struct{}]{a, b})
	ring.Remove(a)
	assert.Equal(t, 1, ring.Len())
	assert.Same(t, b, ring.First())
	assert.Nil(t, a.Parent())
	// 移除后可重新插入
	ring.Merge([]*container.RingNode[*testItem, struct{}]{a})
	assert.Equal(t, []float64{1, 2}, ring.Keys())
}
