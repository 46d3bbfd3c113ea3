package vehicle

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/randengine"
)

// 驾驶行为常量
const (
	// 让行时的期望速度折减系数
	yieldSlowFactor = .8
	// 激进型开阔路段期望速度提升系数与触发净距（米）
	openRoadBoostFactor = 1.1
	openRoadGap         = 60.
	// 谨慎型分心的期望速度折减强度
	distractionSlowFactor = .3
	// 分心发作/清醒时长抽取区间（秒）
	distractionOnLow, distractionOnHigh   = 1.5, 4.
	distractionOffLow, distractionOffHigh = 6., 14.
	// 分心发作期的随机点刹概率（/秒）
	distractionBrakeRate = .6

	// 补空加速的触发净距（米）与加速度占比
	gapFillerMinGap = 40.
	gapFillerFactor = .95
	// 汇入/变道完成后的加速宽限时长（秒）与加速度提升系数
	mergeGraceWindow = 3.
	mergeBoostFactor = 1.2

	// 拥堵判定：速度低于期望速度的该比例且前方净距小于该值（米）
	stuckSpeedRatio = .5
	stuckGapLimit   = 25.
	// 拥堵计时的冷却速率（相对累积速率）
	stuckDecayRate = 2.

	// 变道冷却时长抽取区间（秒）
	lcCooldownLow, lcCooldownHigh = 4., 6.

	// 加速度噪声：相对幅度标准差与截断，接近0的加速度不加噪声
	accNoiseStd     = .05
	accNoiseLimit   = .15
	zeroAThreshold  = .1
	minDesiredSpeed = .1
)

// env 单条车道上的局部环境
type env struct {
	lane entity.ILane
	// 前车及保险杠净距（米），无前车时gap为INF
	leader  entity.IVehicle
	gap     float64
	leaderV float64
	// 后车及保险杠净距（米）
	follower    entity.IVehicle
	followerGap float64
}

// controller 车辆控制器
// 功能：每步基于快照环境计算加速度指令与变道指令
type controller struct {
	ctx  entity.ITaskContext
	self *Vehicle

	generator *randengine.Engine

	// 上次变道（开始或完成）时间
	lastLCTime float64
	// 当前变道冷却时长（秒），每次变道后重新抽取
	lcCooldown float64
	// 拥堵挫败计时（秒）
	stuckTime float64
	// 汇入/变道加速宽限截止时间
	graceUntil float64

	// 分心状态（仅谨慎型）
	distracted           bool
	distractionUntil     float64
	distractionIntensity float64

	// 每步缓存
	dt       float64
	now      float64
	desiredV float64
}

func newController(self *Vehicle, merged bool) *controller {
	c := &controller{
		ctx:        self.ctx,
		self:       self,
		generator:  self.generator,
		lastLCTime: -mathutil.INF,
		lcCooldown: self.generator.RangeFloat64(lcCooldownLow, lcCooldownHigh),
	}
	now := self.ctx.Clock().T
	if merged {
		c.graceUntil = now + mergeGraceWindow
	}
	c.distractionUntil = now + self.generator.RangeFloat64(distractionOffLow, distractionOffHigh)
	return c
}

// onLCDone 变道完成回调
func (c *controller) onLCDone() {
	c.lastLCTime = c.now
	c.graceUntil = c.now + mergeGraceWindow
	c.stuckTime = 0
}

// inGrace 判断是否处于汇入/变道加速宽限期
func (c *controller) inGrace() bool {
	return c.now < c.graceUntil
}

// update 单步控制计算
// 算法说明：
// 1. 解析当前（及变道原）车道环境
// 2. 计算期望速度（让行、风格修正、分心）
// 3. IDM跟驰加速度，变道期间按完成度混合两条车道的结果
// 4. 补空加速与汇入加速宽限
// 5. 最小净距硬减速保护
// 6. 非变道状态下规划变道
// 7. 加速度截断与噪声
func (c *controller) update(dt float64) Action {
	c.dt = dt
	c.now = c.ctx.Clock().T
	s := &c.self.snapshot
	e, eOrigin := c.resolveEnv()
	c.desiredV = c.computeDesiredV(e)
	c.updateStuck(e)

	ac := Action{A: c.followBlended(e, eOrigin)}
	c.applyGapFiller(&ac, e)
	c.applyDistraction(&ac)
	if e.gap < c.self.profile.MinGap {
		ac.A = c.self.profile.MaxBrakingA
	}
	if !s.LC.IsLC {
		c.planLaneChange(&ac, e)
	}
	maxA := c.self.profile.MaxA
	if c.inGrace() {
		maxA *= mergeBoostFactor
	}
	ac.A = lo.Clamp(ac.A, c.self.profile.MaxBrakingA, maxA)
	c.applyNoise(&ac)
	return ac
}

// resolveEnv 解析车道环境
// 返回：当前车道环境；变道期间另返回原车道环境，否则为nil
func (c *controller) resolveEnv() (*env, *env) {
	s := &c.self.snapshot
	e := c.nodeEnv(c.self.node, s.Lane)
	if s.LC.IsLC {
		eOrigin := c.nodeEnv(c.self.shadowNode, s.LC.Origin)
		return e, eOrigin
	}
	return e, nil
}

// nodeEnv 从链表结点解析所在车道的前后车环境
func (c *controller) nodeEnv(node *entity.VehicleNode, lane entity.ILane) *env {
	e := &env{lane: lane, gap: mathutil.INF, followerGap: mathutil.INF}
	if node.Parent() == nil {
		return e
	}
	r := lane.Radius()
	theta := c.self.snapshot.Theta
	if p := node.NextCyclic(); p != node && p.Value.ID() != c.self.id {
		e.leader = p.Value
		e.leaderV = p.Value.V()
		e.gap = utils.ForwardDelta(theta, p.Theta)*r - p.Value.Length()
	}
	if p := node.PrevCyclic(); p != node && p.Value.ID() != c.self.id {
		e.follower = p.Value
		e.followerGap = utils.ForwardDelta(p.Theta, theta)*r - c.self.length
	}
	return e
}

// sideEnv 从侧向链接解析side侧相邻车道的前后车环境
// 返回：相邻车道环境，无相邻车道时为nil
func (c *controller) sideEnv(side int) *env {
	s := &c.self.snapshot
	lane := s.Lane.NeighborLane(side)
	if lane == nil {
		return nil
	}
	e := &env{lane: lane, gap: mathutil.INF, followerGap: mathutil.INF}
	r := lane.Radius()
	theta := s.Theta
	links := c.self.node.Extra.Links[side]
	if before := links[entity.BEFORE]; before != nil && before.Value.ID() != c.self.id {
		e.leader = before.Value
		e.leaderV = before.Value.V()
		e.gap = utils.ForwardDelta(theta, before.Theta)*r - before.Value.Length()
	}
	if after := links[entity.AFTER]; after != nil && after.Value.ID() != c.self.id {
		e.follower = after.Value
		e.followerGap = utils.ForwardDelta(after.Theta, theta)*r - c.self.length
	}
	return e
}

// computeDesiredV 计算期望速度
func (c *controller) computeDesiredV(e *env) float64 {
	s := &c.self.snapshot
	p := &c.self.profile
	desired := c.ctx.RuntimeConfig().Roadway.SpeedLimit * p.DesiredSpeedRatio
	// 汇入加速宽限期内不让行，宽限要求全力提速脱离汇入区
	if s.YieldRampID >= 0 && !c.inGrace() {
		desired *= yieldSlowFactor
	}
	switch c.self.archetype {
	case entity.ArchetypeAggressive:
		if e.gap > openRoadGap {
			desired *= openRoadBoostFactor
		}
	case entity.ArchetypeCautious:
		c.updateDistraction()
		if c.distracted && !c.inGrace() {
			desired *= 1 - distractionSlowFactor*c.distractionIntensity
		}
	}
	return math.Max(desired, minDesiredSpeed)
}

// updateDistraction 推进分心状态机
func (c *controller) updateDistraction() {
	if c.now < c.distractionUntil {
		return
	}
	c.distracted = !c.distracted
	if c.distracted {
		c.distractionIntensity = c.generator.RangeFloat64(
			c.self.profile.DistractionIntensity[0], c.self.profile.DistractionIntensity[1])
		c.distractionUntil = c.now + c.generator.RangeFloat64(distractionOnLow, distractionOnHigh)
	} else {
		c.distractionUntil = c.now + c.generator.RangeFloat64(distractionOffLow, distractionOffHigh)
	}
}

// updateStuck 推进拥堵挫败计时
func (c *controller) updateStuck(e *env) {
	if c.self.snapshot.V < stuckSpeedRatio*c.desiredV && e.gap < stuckGapLimit {
		c.stuckTime += c.dt
	} else {
		c.stuckTime = math.Max(0, c.stuckTime-stuckDecayRate*c.dt)
	}
}

// applyGapFiller 补空加速
// 功能：前方净距很大却低于期望速度时强制加速收拢车流，宽限期内提升上限
func (c *controller) applyGapFiller(ac *Action, e *env) {
	if e.gap <= gapFillerMinGap || c.self.snapshot.V >= .98*c.desiredV {
		return
	}
	boost := gapFillerFactor * c.self.profile.MaxA
	if c.inGrace() {
		boost = mergeBoostFactor * c.self.profile.MaxA
	}
	if ac.A < boost {
		ac.A = boost
	}
}

// applyDistraction 分心发作期的随机点刹
func (c *controller) applyDistraction(ac *Action) {
	if !c.distracted || c.inGrace() {
		return
	}
	if c.generator.PTrue(distractionBrakeRate * c.dt) {
		ac.A = math.Min(ac.A, c.self.profile.ComfortBrakingA)
	}
}

// applyNoise 加速度噪声
// 说明：幅度与加速度成正比且不翻转符号，接近0的加速度不加噪声，
// 保证稳态巡航速度不漂移
func (c *controller) applyNoise(ac *Action) {
	if math.Abs(ac.A) < zeroAThreshold {
		return
	}
	ac.A *= 1 + c.generator.NormClamped(accNoiseStd, accNoiseLimit)
}
