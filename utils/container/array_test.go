package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/container"
)

type arrayItem struct {
	container.IncrementalItemBase
	name string
}

func TestIncrementalArray(t *testing.T) {
	a := container.NewIncrementalArray[*arrayItem]()
	x, y, z := &arrayItem{name: "x"}, &arrayItem{name: "y"}, &arrayItem{name: "z"}
	a.Add(x)
	a.Add(y)
	a.Add(z)
	assert.Equal(t, 0, a.Len())
	a.Prepare()
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 1, y.Index())

	// 稳定压缩：删除中间元素后保持相对顺序
	a.Remove(y)
	a.Prepare()
	assert.Equal(t, []*arrayItem{x, z}, a.Data())
	assert.Equal(t, 0, x.Index())
	assert.Equal(t, 1, z.Index())
}

func TestIncrementalArrayRemoveUncommitted(t *testing.T) {
	a := container.NewIncrementalArray[*arrayItem]()
	x := &arrayItem{name: "x"}
	a.Add(x)
	a.Prepare()

	// 同一周期内添加并删除：不得误删已有元素
	y := &arrayItem{name: "y"}
	a.Add(y)
	a.Remove(y)
	a.Prepare()
	assert.Equal(t, []*arrayItem{x}, a.Data())
}
