// Package ramp 提供入口/出口匝道实体功能
package ramp

import (
	"fmt"

	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
)

// 匝道行为常量
const (
	// 入口匝道排队上限
	queueCap = 5
	// 汇入净距门槛（车长倍数）
	mergeAheadGapLengths  = 3.
	mergeBehindGapLengths = 4.
	// 相邻两次汇入的最小间隔（秒）
	mergeInterval = 1.5
	// 汇入初速度与限速之比
	mergeSpeedRatio = .8
	// 排队蠕行速率（进度/秒）与相邻位次的停车间隔（进度）
	creepRate = .5
	creepStep = .15
	// 出口捕获距离（车长倍数）
	exitCaptureLengths = 1.
	// 驶离动画速率（进度/秒）
	exitAdvanceRate = .5
	// 让行扫描距离（米）
	yieldScanDistance = 60.
)

// Ramp 匝道实体
type Ramp struct {
	ctx entity.ITaskContext

	id       int32
	kind     entity.RampKind
	theta    float64
	flowRate float64

	// 入口匝道排队队列，下标0为队首
	queue []*RampVehicle
	// 上次放行汇入时间
	lastMergeT float64
}

func newRamp(ctx entity.ITaskContext, id int32, kind entity.RampKind, theta, flowRate float64) *Ramp {
	return &Ramp{
		ctx:        ctx,
		id:         id,
		kind:       kind,
		theta:      utils.WrapTheta(theta),
		flowRate:   flowRate,
		lastMergeT: -mergeInterval,
	}
}

// ID 获取匝道ID
func (r *Ramp) ID() int32 {
	return r.id
}

// Kind 获取匝道类型
func (r *Ramp) Kind() entity.RampKind {
	return r.kind
}

// Theta 获取匝道角位置
func (r *Ramp) Theta() float64 {
	return r.theta
}

// FlowRate 获取到达流量
func (r *Ramp) FlowRate() float64 {
	return r.flowRate
}

// QueueLen 获取排队车辆数
func (r *Ramp) QueueLen() int {
	return len(r.queue)
}

// Queue 获取排队车辆，下标0为队首
func (r *Ramp) Queue() []*RampVehicle {
	return r.queue
}

// enqueue 入队
// 边界情况：队列已满时丢弃到达车辆
func (r *Ramp) enqueue(rv *RampVehicle) bool {
	if len(r.queue) >= queueCap {
		log.Debugf("ramp %d queue full, arrival dropped", r.id)
		return false
	}
	rv.queueRank = len(r.queue)
	r.queue = append(r.queue, rv)
	return true
}

// dequeue 队首出队并重排位次
func (r *Ramp) dequeue() *RampVehicle {
	head := r.queue[0]
	r.queue = append(r.queue[:0], r.queue[1:]...)
	for i, rv := range r.queue {
		rv.queueRank = i
	}
	return head
}

// creep 排队车辆向停车线蠕行
// 说明：各位次的目标进度按排队位次递减，仅用于表现
func (r *Ramp) creep(dt float64) {
	for i, rv := range r.queue {
		target := 1 - creepStep*float64(i)
		rv.progress += creepRate * dt
		if rv.progress > target {
			rv.progress = target
		}
	}
}

func (r *Ramp) String() string {
	return fmt.Sprintf("Ramp{id=%d, kind=%s, theta=%.3f, queue=%d}",
		r.id, r.kind, r.theta, len(r.queue))
}
