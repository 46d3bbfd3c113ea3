package task

import (
	"flag"
	"time"
)

var (
	heartBeatInterval = flag.Int64("log.heartbeat_interval", 1000, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：提交上一步产生的全部增量，建立本步的一致快照
// 算法说明：
// 1. 车辆管理器提交集合增量并刷新链表结点键值
// 2. 车道管理器提交链表缓冲并修复排序
// 3. 车辆运行时状态拷贝为快照
// 4. 车道管理器构建侧向链接、统计车辆数并重建空间索引
func (ctx *Context) prepare() {
	ctx.vehicleManager.PrepareNodes()
	ctx.laneManager.Prepare()
	ctx.vehicleManager.Prepare()
	ctx.laneManager.Prepare2()
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 并行更新全部车辆（只读快照，写各自运行时）
// 2. 串行碰撞消解
// 3. 串行匝道更新（到达、汇入、让行、出口捕获）
// 4. 主路自然生成
func (ctx *Context) update() {
	dt := ctx.clock.DT
	ctx.vehicleManager.Update(dt)
	ctx.laneManager.ResolveOverlaps(dt)
	ctx.rampManager.Update(dt)
	ctx.vehicleManager.TrySpawnNatural(dt)
}

// Step 推进一个模拟步
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
	ctx.clock.Tick()
	if *heartBeatInterval > 0 && ctx.clock.Step%*heartBeatInterval == 0 {
		log.Infof("%s vehicles=%d queued=%d throughput=%d",
			ctx.clock, ctx.vehicleManager.Count(), ctx.rampManager.QueuedCount(),
			ctx.metrics.Throughput(ctx.clock.T))
	}
}

// RunFrame 按墙钟帧推进
// 功能：供宿主按动画帧驱动，墙钟时间经累加器折算为整数个模拟步，
// 单帧墙钟超过0.1秒的部分被丢弃
// 参数：
//
//	frameDt: 距上一帧的墙钟时间（秒）
//
// 返回：本帧实际执行的模拟步数
func (ctx *Context) RunFrame(frameDt float64) int {
	n := ctx.clock.Accumulate(frameDt)
	executed := 0
	for i := 0; i < n; i++ {
		if ctx.closed.Load() || ctx.clock.Done() {
			break
		}
		ctx.Step()
		executed++
	}
	return executed
}

// Run 全速运行
// 功能：批处理模式，不间断推进直到到达结束步或收到停止指令
func (ctx *Context) Run() {
	start := time.Now()
	startStep := ctx.clock.Step
	for !ctx.closed.Load() && !ctx.clock.Done() {
		ctx.Step()
	}
	elapsed := time.Since(start)
	steps := ctx.clock.Step - startStep
	log.Infof("run complete: %d steps in %v", steps, elapsed)
}
