package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/clock"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/metrics"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/config"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/randengine"
)

// stubContext 控制器单元测试用的最小上下文
type stubContext struct {
	rc *config.RuntimeConfig
}

func (s *stubContext) Clock() *clock.Clock                    { return nil }
func (s *stubContext) RuntimeConfig() *config.RuntimeConfig   { return s.rc }
func (s *stubContext) LaneManager() entity.ILaneManager       { return nil }
func (s *stubContext) VehicleManager() entity.IVehicleManager { return nil }
func (s *stubContext) RampManager() entity.IRampManager       { return nil }
func (s *stubContext) Metrics() *metrics.Metrics              { return nil }
func (s *stubContext) Generator() *randengine.Engine          { return nil }

func TestComputeVAndDistance(t *testing.T) {
	// 匀加速
	v, ds := computeVAndDistance(10, 2, .1)
	assert.InDelta(t, 10.2, v, 1e-9)
	assert.InDelta(t, 1.01, ds, 1e-9)

	// 匀减速
	v, ds = computeVAndDistance(10, -2, .1)
	assert.InDelta(t, 9.8, v, 1e-9)
	assert.InDelta(t, .99, ds, 1e-9)

	// 本步内刹停，不倒车
	v, ds = computeVAndDistance(1, -20, .1)
	assert.Equal(t, 0., v)
	assert.InDelta(t, .025, ds, 1e-9)

	// 静止且减速指令，保持静止
	v, ds = computeVAndDistance(0, -2, .1)
	assert.Equal(t, 0., v)
	assert.Equal(t, 0., ds)
}

func TestFollowModel(t *testing.T) {
	c := &controller{self: &Vehicle{profile: ProfileOf(entity.ArchetypeNormal)}}
	p := c.self.profile

	// 自由流：期望速度下加速度趋近0
	a := c.followImpl(30, 30, 30, 1e9)
	assert.InDelta(t, 0, a, .01)
	// 低于期望速度时加速
	assert.Positive(t, c.followImpl(10, 30, 10, 1e9))

	// 接近速度越大制动越强
	aClosing := c.followImpl(20, 30, 10, 30)
	aSteady := c.followImpl(20, 30, 20, 30)
	assert.Less(t, aClosing, aSteady)

	// 净距不足时强制动
	assert.Less(t, c.followImpl(20, 30, 0, 3), p.ComfortBrakingA)
	// 净距耗尽时最大制动
	assert.Equal(t, p.MaxBrakingA, c.followImpl(20, 30, 0, 0))

	// 输出被截断在[最大制动, 最大加速]内
	for _, gap := range []float64{.01, 1, 10, 100} {
		a := c.followImpl(25, 30, 0, gap)
		assert.GreaterOrEqual(t, a, p.MaxBrakingA)
		assert.LessOrEqual(t, a, p.MaxA)
	}
}

func TestCollisionResolution(t *testing.T) {
	v := &Vehicle{profile: ProfileOf(entity.ArchetypeNormal)}
	v.controller = &controller{self: v}

	// 行进中消解：压速至前车八成并硬制动
	v.runtime.V = 10
	v.ResolveSlowdown(5)
	assert.InDelta(t, 4, v.runtime.V, 1e-9)
	assert.Equal(t, v.profile.MaxBrakingA, v.runtime.A)
	// 前车更快时不提速
	v.ResolveSlowdown(100)
	assert.InDelta(t, 4, v.runtime.V, 1e-9)

	// 静止消解：位置回退，速度与加速度清零
	v.runtime.Theta = 1
	v.ResolvePushBack(.25)
	assert.InDelta(t, .75, v.runtime.Theta, 1e-12)
	v.ResolveStop()
	assert.Equal(t, 0., v.runtime.V)
	assert.Equal(t, 0., v.runtime.A)

	// 消解反馈累积拥堵挫败计时
	v.ResolveStuck(.1)
	v.ResolveStuck(.1)
	assert.InDelta(t, .2, v.controller.stuckTime, 1e-12)
}

func TestYieldSuppressedDuringGrace(t *testing.T) {
	rc := config.NewRuntimeConfig(config.Config{
		Roadway: config.RoadwayConfig{SpeedLimit: 30},
	})
	self := &Vehicle{archetype: entity.ArchetypeNormal, profile: ProfileOf(entity.ArchetypeNormal)}
	self.snapshot.YieldRampID = 1
	c := &controller{ctx: &stubContext{rc: rc}, self: self}
	e := &env{gap: 1e9}

	// 宽限期内让行标记不生效
	c.now, c.graceUntil = 0, 3
	assert.InDelta(t, 30, c.computeDesiredV(e), 1e-9)
	// 宽限结束后恢复让行减速
	c.now = 5
	assert.InDelta(t, 24, c.computeDesiredV(e), 1e-9)
}

func TestProfileOf(t *testing.T) {
	p := ProfileOf("B")
	assert.Greater(t, p.DesiredSpeedRatio, 1.)
	assert.Less(t, p.Headway, ProfileOf("A").Headway)
	// 普通型高估间隙两成，跟车更紧
	assert.InDelta(t, 1.2, ProfileOf("A").PerceivedGapFactor, 1e-9)
	// 未知风格回退到普通型
	assert.Equal(t, ProfileOf("A"), ProfileOf("X"))
	// 制动加速度为负值
	for _, a := range entity.Archetypes() {
		assert.Negative(t, ProfileOf(a).ComfortBrakingA)
		assert.Negative(t, ProfileOf(a).MaxBrakingA)
	}
}
