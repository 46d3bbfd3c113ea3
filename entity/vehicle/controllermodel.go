package vehicle

import (
	"math"

	"github.com/samber/lo"
)

// IDM跟驰模型常量
const (
	// 自由流项速度比指数
	idmTheta = 4.
	// 间隙下限（米），避免除零
	idmGapEps = .1
)

// followImpl IDM跟驰模型
// 功能：根据前车速度与净距计算跟驰加速度
// 参数：
//
//	selfV: 本车速度（米/秒）
//	targetV: 期望速度（米/秒）
//	leaderV: 前车速度（米/秒），无前车时传入selfV
//	gap: 与前车的保险杠净距（米），无前车时为INF
//
// 算法说明：
// 期望间隙 s* = s0 + max(0, v·T + v·Δv/(2·√(a·b)))
// 加速度 acc = a·(1 - (v/v0)^θ - (s*/max(g, ε))²)
func (c *controller) followImpl(selfV, targetV, leaderV, gap float64) float64 {
	p := &c.self.profile
	if gap <= 0 {
		return p.MaxBrakingA
	}
	if targetV < minDesiredSpeed {
		targetV = minDesiredSpeed
	}
	sqrtAB := 2 * math.Sqrt(-p.ComfortBrakingA*p.MaxA)
	sStar := p.MinGap + math.Max(0, selfV*p.Headway+selfV*(selfV-leaderV)/sqrtAB)
	acc := p.MaxA * (1 - math.Pow(selfV/targetV, idmTheta) -
		math.Pow(sStar/math.Max(gap, idmGapEps), 2))
	return lo.Clamp(acc, p.MaxBrakingA, p.MaxA)
}

// followEnv 对指定车道环境执行IDM跟驰
// 说明：净距先经过感知系数修正，体现风格差异
func (c *controller) followEnv(e *env) float64 {
	selfV := c.self.snapshot.V
	if e.leader == nil {
		return c.followImpl(selfV, c.desiredV, selfV, e.gap)
	}
	return c.followImpl(selfV, c.desiredV, e.leaderV, e.gap*c.self.profile.PerceivedGapFactor)
}

// followBlended 变道期间按完成度混合原车道与目标车道的跟驰结果
// 说明：混合权重w = min(1, 2·完成度)，完成过半后完全以目标车道为准
func (c *controller) followBlended(e, eOrigin *env) float64 {
	a := c.followEnv(e)
	if eOrigin == nil {
		return a
	}
	w := math.Min(1, 2*c.self.snapshot.LC.CompletedRatio)
	return (1-w)*c.followEnv(eOrigin) + w*a
}
