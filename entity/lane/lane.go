// Package lane 提供环道车道实体功能
package lane

import (
	"fmt"

	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
)

// Lane 环形车道实体
// 说明：车道是完整的圆环，几何参数（半径、限速）每步从运行时配置按值读取，
// 车道上的车辆由按角位置升序的环形链表维护
type Lane struct {
	ctx   entity.ITaskContext
	index int // 车道序号，0为最内侧

	// 车道上的车辆链表（含变道车辆的影子结点）
	vehicles vehicleList
	// 非影子车辆数，prepare2时统计
	vehicleCount int
}

func newLane(ctx entity.ITaskContext, index int) *Lane {
	l := &Lane{ctx: ctx, index: index}
	l.vehicles.list.ID = fmt.Sprintf("lane-%d", index)
	return l
}

// Index 获取车道序号
func (l *Lane) Index() int {
	return l.index
}

// Radius 获取车道中心线半径
func (l *Lane) Radius() float64 {
	return l.ctx.RuntimeConfig().Roadway.LaneRadius(l.index)
}

// Ring 获取车道车辆链表
func (l *Lane) Ring() *entity.VehicleRing {
	return &l.vehicles.list
}

// VehicleCount 获取车道上非影子车辆数
func (l *Lane) VehicleCount() int {
	return l.vehicleCount
}

// NeighborLane 获取side侧相邻车道
func (l *Lane) NeighborLane(side int) entity.ILane {
	m := l.ctx.LaneManager()
	switch side {
	case entity.INWARD:
		if l.index == 0 {
			return nil
		}
		return m.Lane(l.index - 1)
	case entity.OUTWARD:
		if l.index >= m.LaneCount()-1 {
			return nil
		}
		return m.Lane(l.index + 1)
	default:
		log.Panicf("bad side %d", side)
		return nil
	}
}

// AddVehicle 添加车辆结点（缓冲，Prepare时生效）
func (l *Lane) AddVehicle(node *entity.VehicleNode) {
	l.vehicles.Add(node)
}

// RemoveVehicle 移除车辆结点（缓冲，Prepare时生效）
func (l *Lane) RemoveVehicle(node *entity.VehicleNode) {
	l.vehicles.Remove(node)
}

// prepareRemove 提交车辆链表移除缓冲
func (l *Lane) prepareRemove() {
	l.vehicles.prepareRemove()
}

// prepareAdd 提交车辆链表添加缓冲并修复排序
func (l *Lane) prepareAdd() {
	l.vehicles.prepareAdd()
}

// prepare2 构建侧向链接并统计车辆数
// 功能：为本车道每个结点记录相邻车道中前后最近的结点，
// 供变道决策在不加锁的情况下直接读取邻车道环境
// 算法说明：本车道与邻车道链表均按角位置升序，双指针单次扫描完成匹配
func (l *Lane) prepare2() {
	count := 0
	for node := l.vehicles.list.First(); node != nil; node = node.Next() {
		if node.Value.Lane() != nil && node.Value.Lane().Index() == l.index {
			count++
		}
	}
	l.vehicleCount = count
	for side := 0; side < 2; side++ {
		neighbor := l.NeighborLane(side)
		if neighbor == nil {
			continue
		}
		other := neighbor.Ring()
		if other.Len() == 0 {
			continue
		}
		p := other.First()
		for node := l.vehicles.list.First(); node != nil; node = node.Next() {
			for p != nil && p.Theta <= node.Theta {
				p = p.Next()
			}
			// p为邻车道中第一个角位置大于node的结点，nil表示应回绕
			if p != nil {
				node.Extra.Links[side][entity.BEFORE] = p
				node.Extra.Links[side][entity.AFTER] = p.PrevCyclic()
			} else {
				node.Extra.Links[side][entity.BEFORE] = other.First()
				node.Extra.Links[side][entity.AFTER] = other.Last()
			}
		}
	}
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane{index=%d, vehicles=%d}", l.index, l.vehicles.list.Len())
}
