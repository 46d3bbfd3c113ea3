package ramp

import (
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
)

// Manager 匝道管理器
// 功能：管理全部匝道，在每步更新阶段之后的串行阶段执行
// 到达排队、汇入放行、让行标记与出口捕获
type Manager struct {
	ctx entity.ITaskContext

	data  map[int32]*Ramp
	ramps []*Ramp
	// 正在驶离的出口匝道车辆
	exiting []*RampVehicle

	nextRampID int32
	nextVehID  int32
}

// NewManager 创建匝道管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:  ctx,
		data: make(map[int32]*Ramp),
	}
}

// Init 按配置初始化匝道
func (m *Manager) Init() {
	for _, rc := range m.ctx.RuntimeConfig().File.Ramps {
		switch rc.Kind {
		case "entrance":
			m.AddRamp(entity.RampEntrance, rc.Angle, rc.FlowRate)
		case "exit":
			m.AddRamp(entity.RampExit, rc.Angle, rc.FlowRate)
		default:
			log.Errorf("ignore ramp with bad kind %q", rc.Kind)
		}
	}
}

// Get 获取指定ID匝道
func (m *Manager) Get(id int32) (*Ramp, bool) {
	r, ok := m.data[id]
	return r, ok
}

// Ramps 获取全部匝道，按创建顺序排列
func (m *Manager) Ramps() []*Ramp {
	return m.ramps
}

// RampVehicles 获取全部匝道车辆（排队与驶离中）
func (m *Manager) RampVehicles() []*RampVehicle {
	var rvs []*RampVehicle
	for _, r := range m.ramps {
		rvs = append(rvs, r.queue...)
	}
	return append(rvs, m.exiting...)
}

// AddRamp 新增匝道
// 返回：新匝道ID
func (m *Manager) AddRamp(kind entity.RampKind, theta, flowRate float64) int32 {
	id := m.nextRampID
	m.nextRampID++
	r := newRamp(m.ctx, id, kind, theta, flowRate)
	m.data[id] = r
	m.ramps = append(m.ramps, r)
	log.Infof("add %s", r)
	return id
}

// RemoveRamp 删除匝道
// 功能：排队车辆随之丢弃，驶离中的车辆继续走完动画，
// 以该匝道为目标的主路车辆保留目标，查找落空时按无目标处理
func (m *Manager) RemoveRamp(id int32) {
	r, ok := m.data[id]
	if !ok {
		log.Warnf("remove unknown ramp %d", id)
		return
	}
	if n := len(r.queue); n > 0 {
		log.Infof("drop %d queued vehicles of ramp %d", n, id)
	}
	delete(m.data, id)
	kept := m.ramps[:0]
	for _, x := range m.ramps {
		if x.id != id {
			kept = append(kept, x)
		}
	}
	m.ramps = kept
	log.Infof("remove ramp %d", id)
}

// ExitIDs 获取全部出口匝道ID
func (m *Manager) ExitIDs() []int32 {
	var ids []int32
	for _, r := range m.ramps {
		if r.kind == entity.RampExit {
			ids = append(ids, r.id)
		}
	}
	return ids
}

// ExitTheta 获取指定出口匝道角位置
func (m *Manager) ExitTheta(id int32) (float64, bool) {
	r, ok := m.data[id]
	if !ok || r.kind != entity.RampExit {
		return 0, false
	}
	return r.theta, true
}

// Reset 恢复配置文件中的匝道布局
// 功能：丢弃全部排队与驶离中的车辆以及动态增删的匝道，按配置重建
func (m *Manager) Reset() {
	m.data = make(map[int32]*Ramp)
	m.ramps = nil
	m.exiting = nil
	m.nextRampID = 0
	m.nextVehID = 0
	m.Init()
}

// QueuedCount 获取全部入口匝道排队车辆总数
func (m *Manager) QueuedCount() int {
	n := 0
	for _, r := range m.ramps {
		n += len(r.queue)
	}
	return n
}

// Update 单步匝道更新，仅在串行阶段调用
func (m *Manager) Update(dt float64) {
	for _, r := range m.ramps {
		switch r.kind {
		case entity.RampEntrance:
			m.updateEntrance(r, dt)
		case entity.RampExit:
			m.updateExit(r)
		}
	}
	m.advanceExiting(dt)
}

// updateEntrance 入口匝道单步更新
// 算法说明：
// 1. 按到达流量随机产生排队车辆，队满丢弃
// 2. 排队车辆向停车线蠕行
// 3. 队首等待汇入：距上次放行超过最小间隔且主路外道缺口满足门槛时，
//    生成主路车辆并出队
// 4. 队列非空时向主路外道上游车辆散布让行标记
func (m *Manager) updateEntrance(r *Ramp, dt float64) {
	gen := m.ctx.Generator()
	vm := m.ctx.VehicleManager()
	if r.flowRate > 0 && gen.PTrue(r.flowRate*dt) {
		rv := &RampVehicle{
			id:        m.nextVehID,
			rampID:    r.id,
			rampTheta: r.theta,
			phase:     PhaseQueued,
			archetype: vm.DrawArchetype(),
		}
		if r.enqueue(rv) {
			m.nextVehID++
		}
	}
	r.creep(dt)
	if len(r.queue) > 0 {
		head := r.queue[0]
		head.waitTime += dt
		now := m.ctx.Clock().T
		if now-r.lastMergeT >= mergeInterval && m.CheckMergeGap(r.theta) {
			limit := m.ctx.RuntimeConfig().Roadway.SpeedLimit
			vm.Spawn(entity.VehicleOption{
				Theta:     r.theta,
				LaneIndex: m.ctx.LaneManager().LaneCount() - 1,
				V:         mergeSpeedRatio * limit,
				Archetype: head.archetype,
				Merged:    true,
			})
			r.dequeue()
			r.lastMergeT = now
			log.Debugf("ramp %d merges %s after %.1fs wait", r.id, head, head.waitTime)
		}
		m.markYields(r, dt)
	}
}

// CheckMergeGap 汇入缺口检测
// 功能：检查主路最外侧车道汇入点的前后缺口是否满足门槛
// 返回：前方净距≥3车长且后方净距≥4车长时为true
func (m *Manager) CheckMergeGap(theta float64) bool {
	roadway := m.ctx.RuntimeConfig().Roadway
	lm := m.ctx.LaneManager()
	ahead, aheadDist, behind, behindDist := lm.NearestAround(theta, lm.LaneCount()-1)
	if ahead != nil && aheadDist < mergeAheadGapLengths*roadway.VehicleLength {
		return false
	}
	if behind != nil && behindDist < mergeBehindGapLengths*roadway.VehicleLength {
		return false
	}
	return true
}

// markYields 让行标记
// 功能：对汇入点上游一段距离内的外道车辆按其风格的让行意愿随机标记，
// 被标记车辆降低期望速度为排队车辆让出缺口
func (m *Manager) markYields(r *Ramp, dt float64) {
	lm := m.ctx.LaneManager()
	outer := lm.OuterLane()
	radius := outer.Radius()
	window := yieldScanDistance / radius
	spread := int(window/(utils.TwoPi/entity.SpatialBuckets)) + 1
	gen := m.ctx.Generator()
	for _, node := range lm.QueryNear(r.theta, outer.Index(), spread) {
		v := node.Value
		if v.IsRemoved() {
			continue
		}
		// 仅限上游来车
		back := utils.ForwardDelta(node.Theta, r.theta)
		if back <= 0 || back > window {
			continue
		}
		p := vehicle.ProfileOf(v.Archetype()).YieldProbability
		if gen.PTrue(p * dt) {
			v.SetYield(r.id, r.theta)
		}
	}
}

// updateExit 出口匝道捕获
// 功能：将法定车道为最外侧、以本匝道为目标且里程达标的车辆
// 在捕获窗口内移出主路，转为驶离中的匝道车辆
func (m *Manager) updateExit(r *Ramp) {
	lm := m.ctx.LaneManager()
	vm := m.ctx.VehicleManager()
	outer := lm.OuterLane()
	roadway := m.ctx.RuntimeConfig().Roadway
	window := exitCaptureLengths * roadway.VehicleLength / outer.Radius()
	spread := int(window/(utils.TwoPi/entity.SpatialBuckets)) + 1
	for _, node := range lm.QueryNear(r.theta, outer.Index(), spread) {
		v := node.Value
		if v.IsRemoved() || v.IsLC() {
			continue
		}
		if id, ok := v.ExitTarget(); !ok || id != r.id {
			continue
		}
		if !v.ExitEligible() || v.LaneIndex() != outer.Index() {
			continue
		}
		if utils.AbsDelta(v.Theta(), r.theta) > window {
			continue
		}
		vm.Despawn(v)
		m.exiting = append(m.exiting, &RampVehicle{
			id:        m.nextVehID,
			rampID:    r.id,
			rampTheta: r.theta,
			phase:     PhaseExiting,
			archetype: v.Archetype(),
		})
		m.nextVehID++
		log.Debugf("ramp %d captures %s", r.id, v)
	}
}

// advanceExiting 推进驶离动画，走完后销毁并计入吞吐
func (m *Manager) advanceExiting(dt float64) {
	t := m.ctx.Clock().T
	kept := m.exiting[:0]
	for _, rv := range m.exiting {
		rv.progress += exitAdvanceRate * dt
		if rv.progress >= 1 {
			m.ctx.Metrics().RecordExit(t)
			continue
		}
		kept = append(kept, rv)
	}
	m.exiting = kept
}
