// Package vehicle 提供主路车辆实体功能，包含跟驰与变道控制
package vehicle

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/container"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/randengine"
)

// Vehicle 主路车辆实体
type Vehicle struct {
	container.IncrementalItemBase

	ctx entity.ITaskContext
	m   *Manager

	id        int32
	archetype entity.Archetype
	profile   Profile
	length    float64
	width     float64
	// 车辆专属随机引擎，种子为车辆ID，保证固定种子下逐车可复现
	generator *randengine.Engine
	controller *controller

	// 最小行驶里程（米），达到后才允许驶出出口匝道
	minTravelDistance float64
	// 目标出口匝道ID，-1表示无目标
	exitTarget int32

	runtime  runtime
	snapshot runtime

	// 所在车道链表中的结点
	node *entity.VehicleNode
	// 变道期间占据原车道的影子结点
	shadowNode *entity.VehicleNode
}

func newVehicle(ctx entity.ITaskContext, m *Manager, id int32, option entity.VehicleOption) *Vehicle {
	roadway := ctx.RuntimeConfig().Roadway
	v := &Vehicle{
		ctx:        ctx,
		m:          m,
		id:         id,
		archetype:  option.Archetype,
		profile:    ProfileOf(option.Archetype),
		length:     roadway.VehicleLength,
		width:      roadway.VehicleWidth,
		generator:  randengine.New(uint64(id)),
		exitTarget: -1,
	}
	lane := ctx.LaneManager().Lane(option.LaneIndex)
	v.runtime = runtime{
		Theta:       utils.WrapTheta(option.Theta),
		V:           math.Max(option.V, 0),
		Lane:        lane,
		YieldRampID: -1,
	}
	// 行驶里程目标按最内侧车道周长折算
	laps := v.generator.RangeFloat64(v.profile.MinTravelLaps[0], v.profile.MinTravelLaps[1])
	v.minTravelDistance = laps * roadway.Circumference(0)
	if exits := ctx.RampManager().ExitIDs(); len(exits) > 0 &&
		v.generator.PTrue(v.profile.ExitSeekProbability) {
		v.exitTarget = exits[v.generator.Intn(len(exits))]
	}
	v.snapshot = v.runtime
	v.node = &entity.VehicleNode{Theta: v.runtime.Theta, Value: v}
	v.shadowNode = &entity.VehicleNode{Theta: v.runtime.Theta, Value: v}
	v.controller = newController(v, option.Merged)
	return v
}

// ID 获取车辆ID
func (v *Vehicle) ID() int32 {
	return v.id
}

// Archetype 获取驾驶风格
func (v *Vehicle) Archetype() entity.Archetype {
	return v.archetype
}

// Theta 获取快照角位置
func (v *Vehicle) Theta() float64 {
	return v.snapshot.Theta
}

// V 获取快照速度
func (v *Vehicle) V() float64 {
	return v.snapshot.V
}

// A 获取快照加速度
func (v *Vehicle) A() float64 {
	return v.snapshot.A
}

// Length 获取车长
func (v *Vehicle) Length() float64 {
	return v.length
}

// Lane 获取快照所在车道（变道中为目标车道）
func (v *Vehicle) Lane() entity.ILane {
	return v.snapshot.Lane
}

// LaneIndex 获取法定车道序号
// 功能：变道完成度过半前对外报告原车道，之后报告目标车道
func (v *Vehicle) LaneIndex() int {
	if v.snapshot.LC.InOriginLane() {
		return v.snapshot.LC.Origin.Index()
	}
	return v.snapshot.Lane.Index()
}

// IsLC 判断是否处于变道过程
func (v *Vehicle) IsLC() bool {
	return v.snapshot.LC.IsLC
}

// LCRatio 获取变道完成度
func (v *Vehicle) LCRatio() float64 {
	return v.snapshot.LC.CompletedRatio
}

// LCOrigin 获取变道原车道
func (v *Vehicle) LCOrigin() entity.ILane {
	return v.snapshot.LC.Origin
}

// DistanceTraveled 获取累计行驶里程
func (v *Vehicle) DistanceTraveled() float64 {
	return v.snapshot.Distance
}

// Laps 获取完成圈数
func (v *Vehicle) Laps() int {
	return v.snapshot.Laps
}

// ExitTarget 获取目标出口匝道ID
func (v *Vehicle) ExitTarget() (int32, bool) {
	return v.exitTarget, v.exitTarget >= 0
}

// ExitEligible 判断行驶里程是否达到驶出门槛
func (v *Vehicle) ExitEligible() bool {
	return v.snapshot.Distance >= v.minTravelDistance
}

// SetYield 标记为匝道让行状态，匝道管理器在串行阶段调用
func (v *Vehicle) SetYield(rampID int32, rampTheta float64) {
	if v.runtime.YieldRampID >= 0 {
		return
	}
	v.runtime.YieldRampID = rampID
	v.runtime.YieldTheta = rampTheta
}

// IsRemoved 判断是否已标记移除
func (v *Vehicle) IsRemoved() bool {
	return v.runtime.Removed
}

// RuntimeLaneIndex 获取运行时所在车道序号
func (v *Vehicle) RuntimeLaneIndex() int {
	return v.runtime.Lane.Index()
}

// RuntimeLane 获取运行时所在车道（变道中为目标车道）
func (v *Vehicle) RuntimeLane() entity.ILane {
	return v.runtime.Lane
}

// RuntimeLCOrigin 获取运行时变道原车道，非变道时为nil
func (v *Vehicle) RuntimeLCOrigin() entity.ILane {
	if !v.runtime.LC.IsLC {
		return nil
	}
	return v.runtime.LC.Origin
}

// RuntimeTheta 获取运行时角位置
func (v *Vehicle) RuntimeTheta() float64 {
	return v.runtime.Theta
}

// RuntimeV 获取运行时速度
func (v *Vehicle) RuntimeV() float64 {
	return v.runtime.V
}

// ResolveSlowdown 碰撞消解：行进中的后车压速至前车八成并硬制动
func (v *Vehicle) ResolveSlowdown(leaderV float64) {
	v.runtime.V = math.Min(v.runtime.V, .8*leaderV)
	v.runtime.A = v.profile.MaxBrakingA
}

// ResolveStop 碰撞消解：静止重叠的后车速度与加速度清零
func (v *Vehicle) ResolveStop() {
	v.runtime.V = 0
	v.runtime.A = 0
}

// ResolvePushBack 碰撞消解：将运行时角位置回退dTheta
func (v *Vehicle) ResolvePushBack(dTheta float64) {
	v.runtime.Theta = utils.WrapTheta(v.runtime.Theta - dTheta)
}

// ResolveStuck 碰撞消解反馈：累积拥堵挫败计时，提升后车的变道意愿
func (v *Vehicle) ResolveStuck(dt float64) {
	v.controller.stuckTime += dt
}

// ForceLane 强制迁移到指定车道
// 功能：车道删除时由车道管理器在串行阶段调用，中止变道并立即完成链表迁移
func (v *Vehicle) ForceLane(target entity.ILane) {
	if v.shadowNode.Parent() != nil {
		v.shadowNode.Parent().Remove(v.shadowNode)
	}
	v.runtime.LC = lcRuntime{}
	if v.node.Parent() != nil {
		v.node.Parent().Remove(v.node)
	}
	v.runtime.Lane = target
	v.node.Theta = v.runtime.Theta
	target.Ring().Merge([]*entity.VehicleNode{v.node})
	v.snapshot.Lane = target
	v.snapshot.LC = lcRuntime{}
}

// prepareNode 更新链表结点键值并清空侧向链接
func (v *Vehicle) prepareNode() {
	v.node.Theta = v.runtime.Theta
	v.node.Extra.Clear()
	if v.shadowNode.Parent() != nil {
		v.shadowNode.Theta = v.runtime.Theta
		v.shadowNode.Extra.Clear()
	}
}

// prepare 将运行时状态拷贝为快照
func (v *Vehicle) prepare() {
	v.snapshot = v.runtime
}

// update 单步更新
// 算法说明：
// 1. 控制器基于快照环境计算加速度与变道指令
// 2. 积分更新运行时位置与速度，推进变道过程
// 3. 根据车道变化向链表缓冲提交结点迁移
func (v *Vehicle) update(dt float64) {
	if v.runtime.Removed {
		return
	}
	ac := v.controller.update(dt)
	ds := v.refreshRuntime(ac, dt)
	v.updateLaneNodes()
	v.m.globalRuntime.record(dt, ds)
}

// computeVAndDistance 运动学积分
// 功能：按恒定加速度推进单步，减速到0后停止，不允许倒车
// 返回：新速度与行驶距离
func computeVAndDistance(v, a, dt float64) (float64, float64) {
	if a < 0 && v+a*dt < 0 {
		// 在本步内刹停
		t0 := -v / a
		return 0, math.Max(v*t0/2, 0)
	}
	ds := v*dt + a*dt*dt/2
	if ds < 0 {
		ds = 0
	}
	return v + a*dt, ds
}

func (v *Vehicle) refreshRuntime(ac Action, dt float64) float64 {
	rt := &v.runtime
	newV, ds := computeVAndDistance(rt.V, ac.A, dt)
	rt.A = ac.A
	rt.V = newV
	rt.Distance += ds
	theta := rt.Theta + ds/rt.Lane.Radius()
	if theta >= utils.TwoPi {
		rt.Laps++
	}
	rt.Theta = utils.WrapTheta(theta)
	// 推进变道过程
	if rt.LC.IsLC {
		rt.LC.CompletedRatio += dt / v.profile.LCDuration
		if rt.LC.CompletedRatio >= 1 {
			rt.LC = lcRuntime{}
			v.controller.onLCDone()
		}
	}
	// 启动新变道
	if ac.LCTarget != nil && !rt.LC.IsLC {
		rt.LC = lcRuntime{IsLC: true, Origin: rt.Lane}
		rt.Lane = ac.LCTarget
	}
	// 让行解除：匝道已被甩到身后
	if rt.YieldRampID >= 0 && utils.ForwardDelta(rt.Theta, rt.YieldTheta) > math.Pi {
		rt.YieldRampID = -1
	}
	return ds
}

// updateLaneNodes 根据运行时与快照的车道差异维护链表结点
func (v *Vehicle) updateLaneNodes() {
	s, rt := &v.snapshot, &v.runtime
	if s.Lane != rt.Lane {
		s.Lane.RemoveVehicle(v.node)
		rt.Lane.AddVehicle(v.node)
	}
	if !s.LC.IsLC && rt.LC.IsLC {
		// 变道开始，在原车道留下影子结点
		rt.LC.Origin.AddVehicle(v.shadowNode)
	} else if s.LC.IsLC && !rt.LC.IsLC {
		// 变道结束，撤销影子结点
		s.LC.Origin.RemoveVehicle(v.shadowNode)
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, archetype=%s, lane=%d, theta=%.3f, v=%.2f}",
		v.id, v.archetype, v.snapshot.Lane.Index(), v.snapshot.Theta, v.snapshot.V)
}
