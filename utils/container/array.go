package container

import (
	"sync"
)

// IIncrementalItem 支持增量维护的元素接口
// 功能：元素需要能跟踪自己在数组中的位置，删除时用尾部元素换位填充
type IIncrementalItem interface {
	Index() int         // 获取元素的下标
	SetIndex(index int) // 设置元素的下标
}

// IncrementalItemBase 增量元素基类
// 说明：作为嵌入字段，快速实现IIncrementalItem接口
type IncrementalItemBase struct {
	index int // 元素在数组中的下标
}

// Index 获取元素的下标
func (b *IncrementalItemBase) Index() int {
	return b.index
}

// SetIndex 设置元素的下标
func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：支持缓冲式批量添加和删除的数组，车辆集合在一个时步内的驶入（匝道并线）
// 与驶出（出口匝道、强制清除）先写入缓冲，在准备阶段统一提交
// 说明：更新阶段的并行车辆计算可能同时发起添加/删除，缓冲写入需要加锁
type IncrementalArray[T IIncrementalItem] struct {
	data        []T        // 主数据数组
	add         []T        // 待添加的元素列表
	remove      []T        // 待删除的元素列表
	addMutex    sync.Mutex // 添加操作的互斥锁
	removeMutex sync.Mutex // 删除操作的互斥锁
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T IIncrementalItem]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 获取当前数组长度（不含缓冲）
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 获取当前数据
// 说明：返回的是已提交所有增量操作的数据切片，调用方不得修改
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Add 增加元素（等到Prepare时才会真正增加）
func (a *IncrementalArray[T]) Add(value T) {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.add = append(a.add, value)
}

// Remove 删除元素（等到Prepare时才会真正删除）
func (a *IncrementalArray[T]) Remove(value T) {
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()
	a.remove = append(a.remove, value)
}

// Prepare 提交增量操作
// 功能：统一执行所有待处理的添加和删除操作
// 算法说明：
// 1. 以下标集合标记待删除元素（按元素身份校验下标，
//    未提交即被删除的元素改从添加缓冲中剔除），稳定压缩主数组并重写存活元素下标
// 2. 余下的待添加元素按提交顺序追加到数组末尾
// 说明：保持元素相对顺序不变，使固定种子下按数组顺序的遍历结果可复现
func (a *IncrementalArray[T]) Prepare() {
	var pending []T
	if len(a.remove) > 0 {
		removed := make(map[int]struct{}, len(a.remove))
		for _, x := range a.remove {
			if i := x.Index(); i >= 0 && i < len(a.data) && any(a.data[i]) == any(x) {
				removed[i] = struct{}{}
			} else {
				pending = append(pending, x)
			}
		}
		kept := a.data[:0]
		for i, x := range a.data {
			if _, ok := removed[i]; ok {
				continue
			}
			x.SetIndex(len(kept))
			kept = append(kept, x)
		}
		a.data = kept
	}
	for _, x := range a.add {
		skip := false
		for _, p := range pending {
			if any(p) == any(x) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}

	a.add = []T{}
	a.remove = []T{}
}
