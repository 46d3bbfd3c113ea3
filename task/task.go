// Package task 提供模拟任务编排功能
package task

import (
	"sync/atomic"

	"github.com/tsinghua-fib-lab/ringroad-sim/clock"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity/lane"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity/ramp"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/ringroad-sim/metrics"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/randengine"
)

// Context 模拟任务上下文
// 功能：包含一次模拟任务的所有组件与状态
// 说明：模拟循环为单线程驱动，控制接口只允许在两步之间调用
type Context struct {
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 全局随机引擎，供生成与匝道等串行逻辑使用
	generator *randengine.Engine

	// 车道管理器
	laneManager *lane.Manager
	// 车辆管理器
	vehicleManager *vehicle.Manager
	// 匝道管理器
	rampManager *ramp.Manager
	// 指标收集器
	metrics *metrics.Metrics
}

// NewContext 创建模拟任务上下文
// 算法说明：
// 1. 构建运行时配置与时钟
// 2. 以配置种子创建全局随机引擎
// 3. 创建各实体管理器
func NewContext(c config.Config) *Context {
	ctx := &Context{
		clock:         clock.New(0, c.Control.Step.Total, c.Control.Step.Interval),
		runtimeConfig: config.NewRuntimeConfig(c),
		metrics:       metrics.New(),
		generator:     randengine.New(c.Control.Seed),
	}
	ctx.laneManager = lane.NewManager(ctx)
	ctx.vehicleManager = vehicle.NewManager(ctx)
	ctx.rampManager = ramp.NewManager(ctx)
	return ctx
}

// Init 初始化各实体管理器
// 说明：先建车道，再建匝道（出口目标抽取依赖匝道表），最后撒布初始车辆
func (ctx *Context) Init() {
	ctx.laneManager.Init()
	ctx.rampManager.Init()
	ctx.vehicleManager.Init()
	log.Infof("init: %d lanes, %d ramps, %d vehicles",
		ctx.laneManager.LaneCount(), len(ctx.rampManager.Ramps()), ctx.vehicleManager.Count())
}

// Clock 获取模拟时钟
func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// RuntimeConfig 获取运行时配置
func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Generator 获取全局随机引擎
func (ctx *Context) Generator() *randengine.Engine {
	return ctx.generator
}

// LaneManager 获取车道管理器
func (ctx *Context) LaneManager() entity.ILaneManager {
	return ctx.laneManager
}

// VehicleManager 获取车辆管理器
func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

// RampManager 获取匝道管理器
func (ctx *Context) RampManager() entity.IRampManager {
	return ctx.rampManager
}

// Metrics 获取指标收集器
func (ctx *Context) Metrics() *metrics.Metrics {
	return ctx.metrics
}

// SetSpeedLimit 设置全局限速
func (ctx *Context) SetSpeedLimit(v float64) {
	if v <= 0 {
		log.Warnf("ignore non-positive speed limit %f", v)
		return
	}
	ctx.runtimeConfig.Roadway.SpeedLimit = v
	log.Infof("speed limit set to %.1f", v)
}

// SetSpawnRate 设置主路自然生成流量
func (ctx *Context) SetSpawnRate(rate float64) {
	if rate < 0 {
		rate = 0
	}
	ctx.runtimeConfig.SpawnRate = rate
	log.Infof("spawn rate set to %.3f", rate)
}

// AddLane 在最外侧新增车道
// 返回：新车道序号
func (ctx *Context) AddLane() int {
	return ctx.laneManager.AddLane()
}

// RemoveLane 删除最外侧车道，车道上的车辆迁移到新的最外侧车道
func (ctx *Context) RemoveLane() {
	ctx.laneManager.RemoveLane()
}

// AddEntranceRamp 新增入口匝道
func (ctx *Context) AddEntranceRamp(theta, flowRate float64) int32 {
	return ctx.rampManager.AddRamp(entity.RampEntrance, theta, flowRate)
}

// AddExitRamp 新增出口匝道
// 说明：只有此后生成的车辆才会抽取该出口为目标
func (ctx *Context) AddExitRamp(theta float64) int32 {
	return ctx.rampManager.AddRamp(entity.RampExit, theta, 0)
}

// RemoveRamp 删除匝道
func (ctx *Context) RemoveRamp(id int32) {
	ctx.rampManager.RemoveRamp(id)
}

// SetAllowedArchetypes 设置允许生成的驾驶风格白名单，已在道车辆不受影响
func (ctx *Context) SetAllowedArchetypes(names []string) {
	ctx.vehicleManager.SetArchetypes(names)
}

// Reset 重置模拟
// 功能：清空主路与匝道车辆，恢复配置文件中的车道与匝道布局，归零时钟与指标
func (ctx *Context) Reset() {
	ctx.vehicleManager.Clear()
	ctx.laneManager.Reset()
	ctx.rampManager.Reset()
	ctx.metrics.Reset()
	ctx.clock.Reset()
	log.Info("reset")
}

// SpawnBurst 沿各车道等角距撒布一批车辆
func (ctx *Context) SpawnBurst(count int) {
	ctx.vehicleManager.SpawnEvenly(count)
}

// ClearVehicles 清空主路全部车辆
func (ctx *Context) ClearVehicles() {
	ctx.vehicleManager.Clear()
}

// Stop 请求停止运行
func (ctx *Context) Stop() {
	ctx.closed.Store(true)
}
