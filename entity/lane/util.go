package lane

import (
	"sync"

	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
)

// vehicleList 带缓冲的车道车辆链表
// 功能：更新阶段的并行车辆计算只向缓冲区写入增删请求，
// 准备阶段串行提交，保证单步内链表内容一致
type vehicleList struct {
	list         entity.VehicleRing
	addBuffer    []*entity.VehicleNode // 待添加结点缓冲
	removeBuffer []*entity.VehicleNode // 待移除结点缓冲
	mtx          sync.Mutex
}

// Add 添加结点（缓冲）
func (l *vehicleList) Add(node *entity.VehicleNode) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.addBuffer = append(l.addBuffer, node)
}

// Remove 移除结点（缓冲）
func (l *vehicleList) Remove(node *entity.VehicleNode) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.removeBuffer = append(l.removeBuffer, node)
}

// prepareRemove 提交移除缓冲
// 说明：结点可能已被车道删除迁移提前移除，需判断归属；
// 跨车道迁移的结点先在旧车道移除、后在新车道添加，
// 因此全部车道的移除阶段必须先于任何添加阶段完成
func (l *vehicleList) prepareRemove() {
	for _, node := range l.removeBuffer {
		if node.Parent() == &l.list {
			l.list.Remove(node)
		}
	}
	l.removeBuffer = nil
}

// prepareAdd 提交添加缓冲并修复排序
// 算法说明：
// 1. 取出因车辆前进或跨越2π回绕产生的逆序结点
// 2. 将逆序结点与添加缓冲一起归并回链表
func (l *vehicleList) prepareAdd() {
	adds := l.list.PopUnsorted()
	for _, node := range l.addBuffer {
		if node.Parent() == nil {
			adds = append(adds, node)
		}
	}
	l.list.Merge(adds)
	l.addBuffer = nil
}
