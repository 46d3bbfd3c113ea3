// Package entity 定义实体间交互接口，实现依赖反转
package entity

import (
	"github.com/tsinghua-fib-lab/ringroad-sim/clock"
	"github.com/tsinghua-fib-lab/ringroad-sim/metrics"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/container"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/randengine"
)

// VehicleSideLinks 车辆在相邻车道链表中的投影链接
// Links[side][BEFORE]为side侧车道中本车前方最近车辆结点
// 字段类型不能写成VehicleNode别名，别名展开会形成非法的泛型自引用
type VehicleSideLinks struct {
	Links [2][2]*container.RingNode[IVehicle, VehicleSideLinks]
}

// Clear 清空侧向链接
func (l *VehicleSideLinks) Clear() {
	l.Links = [2][2]*container.RingNode[IVehicle, VehicleSideLinks]{}
}

// VehicleNode 车道链表中的车辆结点
type VehicleNode = container.RingNode[IVehicle, VehicleSideLinks]

// VehicleRing 车道上按角位置排序的车辆环形链表
type VehicleRing = container.Ring[IVehicle, VehicleSideLinks]

// IVehicle 车辆实体接口
type IVehicle interface {
	// ID 获取车辆ID
	ID() int32
	// Archetype 获取驾驶风格
	Archetype() Archetype
	// Theta 获取快照角位置（弧度）
	Theta() float64
	// V 获取快照速度（米/秒）
	V() float64
	// A 获取快照加速度（米/秒²）
	A() float64
	// Length 获取车长（米）
	Length() float64
	// Lane 获取快照所在车道（变道中为目标车道）
	Lane() ILane
	// LaneIndex 获取法定车道序号（变道完成度过半前为原车道）
	LaneIndex() int
	// IsLC 判断是否处于变道过程
	IsLC() bool
	// LCRatio 获取变道完成度∈[0, 1)
	LCRatio() float64
	// LCOrigin 获取变道原车道，非变道时为nil
	LCOrigin() ILane
	// DistanceTraveled 获取累计行驶里程（米）
	DistanceTraveled() float64
	// Laps 获取完成圈数
	Laps() int
	// ExitTarget 获取目标出口匝道ID，无目标时ok为false
	ExitTarget() (id int32, ok bool)
	// ExitEligible 判断行驶里程是否达到驶出门槛
	ExitEligible() bool
	// SetYield 标记为匝道让行状态（匝道管理器串行调用）
	SetYield(rampID int32, rampTheta float64)
	// RuntimeLaneIndex 获取运行时所在车道序号，仅限串行阶段调用
	RuntimeLaneIndex() int
	// RuntimeLane 获取运行时所在车道（变道中为目标车道），仅限串行阶段调用
	RuntimeLane() ILane
	// RuntimeLCOrigin 获取运行时变道原车道，非变道时为nil，仅限串行阶段调用
	RuntimeLCOrigin() ILane
	// RuntimeTheta 获取运行时角位置，仅限串行碰撞消解阶段调用
	RuntimeTheta() float64
	// RuntimeV 获取运行时速度，仅限串行碰撞消解阶段调用
	RuntimeV() float64
	// ResolveSlowdown 碰撞消解：行进中后车压速至前车八成并硬制动
	ResolveSlowdown(leaderV float64)
	// ResolveStop 碰撞消解：静止重叠的后车速度与加速度清零
	ResolveStop()
	// ResolvePushBack 碰撞消解：将运行时角位置回退dTheta
	ResolvePushBack(dTheta float64)
	// ResolveStuck 碰撞消解反馈：为后车累积拥堵挫败计时
	ResolveStuck(dt float64)
	// ForceLane 强制迁移到指定车道（车道删除时调用，中止变道）
	ForceLane(lane ILane)
	// IsRemoved 判断是否已标记移除
	IsRemoved() bool

	String() string
}

// ILane 车道实体接口
type ILane interface {
	// Index 获取车道序号，0为最内侧
	Index() int
	// Radius 获取车道中心线半径（米）
	Radius() float64
	// Ring 获取车道上按角位置排序的车辆环形链表
	Ring() *VehicleRing
	// VehicleCount 获取车道上非影子车辆数
	VehicleCount() int
	// NeighborLane 获取side侧相邻车道，不存在时为nil
	NeighborLane(side int) ILane
	// AddVehicle 添加车辆结点（缓冲，Prepare时生效）
	AddVehicle(node *VehicleNode)
	// RemoveVehicle 移除车辆结点（缓冲，Prepare时生效）
	RemoveVehicle(node *VehicleNode)

	String() string
}

// ILaneManager 车道管理器接口
type ILaneManager interface {
	// Lane 获取指定序号车道
	Lane(index int) ILane
	// Lanes 获取全部车道，按序号从内到外排列
	Lanes() []ILane
	// LaneCount 获取车道数
	LaneCount() int
	// OuterLane 获取最外侧车道
	OuterLane() ILane
	// QueryNear 通过空间索引查询指定车道theta附近的车辆结点
	// spread为向前后各扩展的桶数
	QueryNear(theta float64, laneIndex int, spread int) []*VehicleNode
	// NearestAround 查询指定车道theta前后最近车辆及其沿弧线距离
	NearestAround(theta float64, laneIndex int) (ahead *VehicleNode, aheadDist float64, behind *VehicleNode, behindDist float64)
	// IsLaneChangeSafe 判断目标车道theta附近角窗口内是否无车（不计self）
	IsLaneChangeSafe(target ILane, theta float64, self IVehicle) bool
}

// VehicleOption 车辆生成参数
type VehicleOption struct {
	// 角位置（弧度）
	Theta float64
	// 车道序号
	LaneIndex int
	// 初速度（米/秒）
	V float64
	// 驾驶风格
	Archetype Archetype
	// 是否由匝道汇入（享受汇入加速宽限）
	Merged bool
}

// IVehicleManager 车辆管理器接口
type IVehicleManager interface {
	// Get 获取指定ID车辆
	Get(id int32) (IVehicle, bool)
	// Count 获取在道车辆数
	Count() int
	// Vehicles 获取全部在道车辆
	Vehicles() []IVehicle
	// DrawArchetype 按配置白名单抽取驾驶风格，仅限串行阶段调用
	DrawArchetype() Archetype
	// Spawn 生成车辆（下一步Prepare时加入车道链表）
	Spawn(option VehicleOption) IVehicle
	// Despawn 移除车辆（下一步Prepare时从车道链表移除）
	Despawn(v IVehicle)
}

// IRampManager 匝道管理器接口
type IRampManager interface {
	// ExitIDs 获取全部出口匝道ID
	ExitIDs() []int32
	// ExitTheta 获取指定出口匝道角位置
	ExitTheta(id int32) (theta float64, ok bool)
	// QueuedCount 获取全部入口匝道排队车辆总数
	QueuedCount() int
}

// ITaskContext 模拟任务上下文接口
type ITaskContext interface {
	// Clock 获取模拟时钟
	Clock() *clock.Clock
	// RuntimeConfig 获取运行时配置
	RuntimeConfig() *config.RuntimeConfig
	// LaneManager 获取车道管理器
	LaneManager() ILaneManager
	// VehicleManager 获取车辆管理器
	VehicleManager() IVehicleManager
	// RampManager 获取匝道管理器
	RampManager() IRampManager
	// Metrics 获取指标收集器
	Metrics() *metrics.Metrics
	// Generator 获取全局随机引擎（仅限串行阶段使用）
	Generator() *randengine.Engine
}
