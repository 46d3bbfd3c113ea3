package container

import (
	"fmt"
	"log"
)

// IHasVAndLength 具有速度和长度属性的接口
// 功能：定义车辆作为链表元素时需要的关键信息接口
// 说明：便于在链表中快速查找和访问元素的速度和长度信息
type IHasVAndLength interface {
	V() float64      // 获取速度
	Length() float64 // 获取长度
}

// RingNode 环形占位链表中的节点
// 功能：表示按角坐标升序排列的链表中的一个节点
// 说明：键值为车辆在环道上的角位置θ∈[0,2π)，支持泛型存储任意值和支链信息
type RingNode[T IHasVAndLength, E any] struct {
	parent     *Ring[T, E]     // 所属链表
	prev, next *RingNode[T, E] // 前驱和后继节点
	Theta      float64         // 键值（角位置，弧度）
	Value      T               // 主要值
	Extra      E               // 支链信息
}

func (n *RingNode[T, E]) String() string {
	return fmt.Sprintf("Node{Theta:%v, Value:%+v, Extra:%+v}", n.Theta, n.Value, n.Extra)
}

// Prev 获取节点的前一个节点（线性，不回绕）
func (n *RingNode[T, E]) Prev() *RingNode[T, E] {
	return n.prev
}

// Next 获取节点的下一个节点（线性，不回绕）
func (n *RingNode[T, E]) Next() *RingNode[T, E] {
	return n.next
}

// NextCyclic 获取节点在环上的下一个节点
// 功能：越过2π回绕到链表头，模拟环道的闭合拓扑
// 返回：环上的后继节点；链表只有本节点时返回自身
func (n *RingNode[T, E]) NextCyclic() *RingNode[T, E] {
	if n.next != nil {
		return n.next
	}
	return n.parent.head
}

// PrevCyclic 获取节点在环上的前一个节点
// 功能：越过0回绕到链表尾
// 返回：环上的前驱节点；链表只有本节点时返回自身
func (n *RingNode[T, E]) PrevCyclic() *RingNode[T, E] {
	if n.prev != nil {
		return n.prev
	}
	return n.parent.tail
}

// Parent 获取节点所在的链表
func (n *RingNode[T, E]) Parent() *Ring[T, E] {
	return n.parent
}

// V 获取节点值的速度
func (n *RingNode[T, E]) V() float64 {
	return n.Value.V()
}

// L 获取节点值的长度
func (n *RingNode[T, E]) L() float64 {
	return n.Value.Length()
}

// InsertBefore 在节点前插入新节点
// 功能：在当前节点之前插入一个新节点并维护头指针与计数
func (n *RingNode[T, E]) InsertBefore(add *RingNode[T, E]) {
	if add.parent != nil {
		log.Panic("insert node who already in ring")
	}
	add.parent = n.parent
	add.next = n
	add.prev = n.prev
	n.prev = add
	if add.prev != nil {
		add.prev.next = add
	} else {
		add.parent.head = add
	}
	n.parent.length++
}

// InsertAfter 在节点后插入新节点
// 功能：在当前节点之后插入一个新节点并维护尾指针与计数
func (n *RingNode[T, E]) InsertAfter(add *RingNode[T, E]) {
	if add.parent != nil {
		log.Panic("insert node who already in ring")
	}
	add.parent = n.parent
	add.prev = n
	add.next = n.next
	n.next = add
	if add.next != nil {
		add.next.prev = add
	} else {
		add.parent.tail = add
	}
	n.parent.length++
}

// Ring 环道占位链表
// 功能：按角位置升序维护一条车道上的所有车辆
// 说明：链表本身是线性的（头为角位置最小的车），环的闭合通过NextCyclic/PrevCyclic体现；
// 车辆跨越2π回绕后键值变小，由PopUnsorted+Merge在准备阶段修复顺序
type Ring[T IHasVAndLength, E any] struct {
	ID         string          // 链表标识符
	head, tail *RingNode[T, E] // 头尾节点指针
	length     int             // 链表长度
}

func (l *Ring[T, E]) String() string {
	return fmt.Sprintf("Ring{ID:%v}", l.ID)
}

// Keys 获取链表中所有节点的角位置
func (l *Ring[T, E]) Keys() []float64 {
	keys := make([]float64, l.length)
	for i, node := 0, l.head; node != nil; i, node = i+1, node.next {
		keys[i] = node.Theta
	}
	return keys
}

// Values 获取链表中所有节点的值
func (l *Ring[T, E]) Values() []T {
	values := make([]T, l.length)
	for i, node := 0, l.head; node != nil; i, node = i+1, node.next {
		values[i] = node.Value
	}
	return values
}

// Len 获取链表长度
func (l *Ring[T, E]) Len() int {
	return l.length
}

// PushFront 向链表头部插入节点
func (l *Ring[T, E]) PushFront(add *RingNode[T, E]) {
	if add.parent != nil {
		log.Panic("push node who already in ring")
	}
	add.next = nil
	add.prev = nil
	if l.head == nil {
		add.parent = l
		l.head = add
		l.tail = add
		l.length++
	} else {
		// length++和add.parent在InsertBefore中处理
		l.head.InsertBefore(add)
		l.head = add
	}
}

// PushBack 向链表尾部插入节点
func (l *Ring[T, E]) PushBack(add *RingNode[T, E]) {
	if add.parent != nil {
		log.Panic("push node who already in ring")
	}
	add.next = nil
	add.prev = nil
	if l.tail == nil {
		add.parent = l
		l.head = add
		l.tail = add
		l.length++
	} else {
		// length++和add.parent在InsertAfter中处理
		l.tail.InsertAfter(add)
		l.tail = add
	}
}

// Remove 从链表中移除节点
func (l *Ring[T, E]) Remove(node *RingNode[T, E]) {
	if node.parent != l {
		log.Panic("remove node from wrong ring")
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	node.parent = nil
	l.length--
}

// First 获取链表头部节点（角位置最小）
func (l *Ring[T, E]) First() *RingNode[T, E] {
	return l.head
}

// Last 获取链表尾部节点（角位置最大）
func (l *Ring[T, E]) Last() *RingNode[T, E] {
	return l.tail
}

// PopUnsorted 移除逆序节点
// 功能：移除链表中键值逆序的节点（前驱节点的键值大于当前节点）
// 返回：被移除的逆序节点数组
// 说明：车辆前进或跨越2π回绕会造成局部逆序，准备阶段取出后经Merge重新归位
func (l *Ring[T, E]) PopUnsorted() (unsorted []*RingNode[T, E]) {
	for node := l.head; node != nil; {
		next := node.next
		if node.prev != nil && node.prev.Theta > node.Theta {
			l.Remove(node)
			unsorted = append(unsorted, node)
		}
		node = next
	}
	return unsorted
}

// Merge 批量插入节点
// 功能：将一组节点按角位置归并进链表，保持升序
// 算法说明：
// 1. 对待插入节点按键值排序
// 2. 单次扫描链表完成归并插入
func (l *Ring[T, E]) Merge(adds []*RingNode[T, E]) {
	for i := 0; i < len(adds)-1; i++ {
		for j := i + 1; j < len(adds); j++ {
			if adds[i].Theta > adds[j].Theta {
				adds[i], adds[j] = adds[j], adds[i]
			}
		}
	}
	node := l.head
	for _, add := range adds {
		for node != nil && node.Theta < add.Theta {
			node = node.next
		}
		if node != nil {
			node.InsertBefore(add)
		} else {
			l.PushBack(add)
		}
	}
}
