package vehicle

import (
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
)

// 变道决策常量
const (
	// 安全门基准减速度（米/秒²），按间隙接受系数缩放
	maxSafeBraking = 4.
	// MOBIL增益阈值（米/秒²）
	lcIncentiveThreshold = .1
	// 车道密度差增益系数（米/秒²/辆）
	densityGain = .15
	// 拥堵挫败变道要求的邻道净距放大倍数
	frustrationGapFactor = 1.2
)

// planLaneChange 变道规划
// 功能：按出口导向、拥堵挫败、速度增益三级优先规划变道
// 算法说明：
// 1. 冷却期内不规划
// 2. 有出口目标且里程达标时，只要外侧安全即向外变道
// 3. 挫败计时超阈值时放宽条件，邻道净距明显更大且安全即变道
// 4. 否则按MOBIL计算两侧增益，扣除礼让代价、叠加密度差收益，
//    超过阈值且通过安全门的最优侧变道
func (c *controller) planLaneChange(ac *Action, e *env) {
	if c.now-c.lastLCTime < c.lcCooldown {
		return
	}
	// 出口导向：向外侧靠拢
	if _, ok := c.self.ExitTarget(); ok && c.self.ExitEligible() {
		if side := c.sideEnv(entity.OUTWARD); side != nil {
			if c.isSafeToEnter(side) {
				c.commitLC(ac, side.lane)
			}
			// 已在最外侧或本步不安全，交给出口匝道管理器或下一步
			return
		}
	}
	// 拥堵挫败：条件放宽
	if c.stuckTime > c.self.profile.FrustrationThreshold {
		for _, side := range []int{entity.INWARD, entity.OUTWARD} {
			se := c.sideEnv(side)
			if se == nil {
				continue
			}
			if se.gap > e.gap*frustrationGapFactor && c.isSafeToEnter(se) {
				c.commitLC(ac, se.lane)
				return
			}
		}
	}
	// MOBIL速度增益
	aCur := c.followEnv(e)
	var best *env
	bestIncentive := lcIncentiveThreshold
	for _, side := range []int{entity.INWARD, entity.OUTWARD} {
		se := c.sideEnv(side)
		if se == nil {
			continue
		}
		incentive := c.followEnv(se) - aCur + c.densityBias(e.lane, se.lane)
		if se.follower != nil {
			fa := c.followImpl(se.follower.V(), c.desiredV, c.self.snapshot.V, se.followerGap)
			if fa < 0 {
				incentive += c.self.profile.Politeness * fa
			}
		}
		if incentive > bestIncentive {
			bestIncentive = incentive
			best = se
		}
	}
	if best != nil && c.isSafeToEnter(best) {
		c.commitLC(ac, best.lane)
	}
}

// densityBias 车道密度差收益
// 功能：目标车道车辆数明显更少时提供额外变道动机，促进车道均衡
func (c *controller) densityBias(cur, target entity.ILane) float64 {
	return densityGain * float64(cur.VehicleCount()-target.VehicleCount())
}

// isSafeToEnter 变道安全门
// 算法说明：
// 1. 目标车道前后净距不得小于静止最小净距
// 2. 目标位置角窗口内不得有车（空间索引查询）
// 3. 以本车参数推断新后车被迫减速度，不得超过按间隙接受系数缩放的上限
func (c *controller) isSafeToEnter(e *env) bool {
	p := &c.self.profile
	if e.gap < p.MinGap || e.followerGap < p.MinGap {
		return false
	}
	if !c.ctx.LaneManager().IsLaneChangeSafe(e.lane, c.self.snapshot.Theta, c.self) {
		return false
	}
	if e.follower != nil {
		fa := c.followImpl(e.follower.V(), c.desiredV, c.self.snapshot.V, e.followerGap)
		if fa < -maxSafeBraking/p.GapAcceptance {
			return false
		}
	}
	return true
}

// commitLC 提交变道指令并重置冷却
func (c *controller) commitLC(ac *Action, target entity.ILane) {
	ac.LCTarget = target
	c.lastLCTime = c.now
	c.lcCooldown = c.generator.RangeFloat64(lcCooldownLow, lcCooldownHigh)
	c.stuckTime = 0
	log.Debugf("%s starts lane change to %s", c.self, target)
}
