package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity/ramp"
	"github.com/tsinghua-fib-lab/ringroad-sim/task"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/config"
)

func baseConfig() config.Config {
	return config.Config{
		Roadway: config.RoadwayConfig{
			Lanes:         3,
			BaseRadius:    100,
			LaneWidth:     3.75,
			SpeedLimit:    30,
			VehicleLength: 4.5,
			VehicleWidth:  1.8,
		},
		Control: config.ControlConfig{
			Step: config.StepConfig{Interval: .1},
			Seed: 42,
		},
	}
}

func run(ctx *task.Context, steps int) {
	for i := 0; i < steps; i++ {
		ctx.Step()
	}
}

// 自由流收敛：每条车道一辆普通型车辆，长时间运行后速度收敛到期望速度
func TestFreeFlowConvergence(t *testing.T) {
	c := baseConfig()
	c.Roadway.SpeedLimit = 80
	ctx := task.NewContext(c)
	ctx.Init()
	for li := 0; li < 3; li++ {
		ctx.VehicleManager().Spawn(entity.VehicleOption{
			Theta:     float64(li),
			LaneIndex: li,
			V:         40,
			Archetype: entity.ArchetypeNormal,
		})
	}
	run(ctx, 10000)
	motions := ctx.RenderVehicles()
	require.Len(t, motions, 3)
	for _, m := range motions {
		assert.InDelta(t, 80, m.V, .8, "vehicle %d", m.ID)
	}
}

// 汇入缺口门槛：前方2.5车长拒绝、3.1车长放行；后方3.5车长拒绝、4.2车长放行
func TestMergeGapGate(t *testing.T) {
	check := func(offsetLengths float64, ahead bool) bool {
		c := baseConfig()
		c.Roadway.Lanes = 1
		ctx := task.NewContext(c)
		ctx.Init()
		const rampTheta = 1.
		ctx.AddEntranceRamp(rampTheta, 0)
		roadway := ctx.RuntimeConfig().Roadway
		dTheta := offsetLengths * roadway.VehicleLength / roadway.LaneRadius(0)
		theta := rampTheta + dTheta
		if !ahead {
			theta = rampTheta - dTheta
		}
		ctx.VehicleManager().Spawn(entity.VehicleOption{
			Theta:     utils.WrapTheta(theta),
			LaneIndex: 0,
			V:         0,
			Archetype: entity.ArchetypeNormal,
		})
		ctx.Step()
		return ctx.RampManager().(*ramp.Manager).CheckMergeGap(rampTheta)
	}
	assert.False(t, check(2.5, true))
	assert.True(t, check(3.1, true))
	assert.False(t, check(3.5, false))
	assert.True(t, check(4.2, false))
}

// 入口匝道：空载道路上到达车辆应在短时间内完成汇入，排队不超过上限
func TestRampMerge(t *testing.T) {
	c := baseConfig()
	c.Ramps = []config.RampConfig{{Kind: "entrance", Angle: 1, FlowRate: .5}}
	ctx := task.NewContext(c)
	ctx.Init()
	merged := false
	for i := 0; i < 200; i++ {
		ctx.Step()
		assert.LessOrEqual(t, ctx.MetricsSnapshot().QueuedCount, 5)
		if ctx.VehicleManager().Count() > 0 {
			merged = true
		}
	}
	assert.True(t, merged, "no vehicle merged within 20s")
}

// 排队上限：到达流量远超放行能力时队列饱和于上限并丢弃后续到达
func TestQueueBound(t *testing.T) {
	c := baseConfig()
	c.Ramps = []config.RampConfig{{Kind: "entrance", Angle: 1, FlowRate: 5}}
	ctx := task.NewContext(c)
	ctx.Init()
	saturated := false
	for i := 0; i < 600; i++ {
		ctx.Step()
		q := ctx.MetricsSnapshot().QueuedCount
		assert.LessOrEqual(t, q, 5)
		if q == 5 {
			saturated = true
		}
	}
	assert.True(t, saturated)
}

// 车道均衡：拥挤内道上的车辆逐渐向空闲外道迁移
func TestLaneBalancing(t *testing.T) {
	c := baseConfig()
	c.Roadway.Lanes = 2
	ctx := task.NewContext(c)
	ctx.Init()
	const n = 14
	for k := 0; k < n; k++ {
		ctx.VehicleManager().Spawn(entity.VehicleOption{
			Theta:     utils.TwoPi * float64(k) / n,
			LaneIndex: 0,
			V:         10,
			Archetype: entity.ArchetypeNormal,
		})
	}
	run(ctx, 600)
	motions := ctx.RenderVehicles()
	require.Len(t, motions, n)
	outer := 0
	for _, m := range motions {
		if m.LaneIndex == 1 {
			outer++
		}
	}
	assert.Positive(t, outer, "no vehicle moved to the empty lane")
}

// 出口驶出：有出口目标的车辆在里程达标后驶出并计入吞吐
func TestExitFlow(t *testing.T) {
	c := baseConfig()
	c.Ramps = []config.RampConfig{{Kind: "exit", Angle: 4}}
	ctx := task.NewContext(c)
	ctx.Init()
	ctx.SpawnBurst(20)
	run(ctx, 3000)
	snap := ctx.MetricsSnapshot()
	assert.Positive(t, snap.TotalExits)
	assert.Less(t, ctx.VehicleManager().Count(), 20)
}

// 吞吐量统计只计入最近60秒
func TestThroughputDecays(t *testing.T) {
	c := baseConfig()
	c.Ramps = []config.RampConfig{{Kind: "exit", Angle: 4}}
	ctx := task.NewContext(c)
	ctx.Init()
	ctx.SpawnBurst(20)
	run(ctx, 3000)
	require.Positive(t, ctx.MetricsSnapshot().TotalExits)
	// 停止生成并清空道路，60秒后窗口吞吐量归零
	ctx.ClearVehicles()
	run(ctx, 700)
	snap := ctx.MetricsSnapshot()
	assert.Equal(t, 0, snap.Throughput)
	assert.Positive(t, snap.TotalExits)
}

// 限速指令：调低限速后车辆收敛到新的期望速度
func TestSpeedLimitCommand(t *testing.T) {
	c := baseConfig()
	c.Roadway.Lanes = 1
	ctx := task.NewContext(c)
	ctx.Init()
	ctx.VehicleManager().Spawn(entity.VehicleOption{
		LaneIndex: 0,
		V:         20,
		Archetype: entity.ArchetypeNormal,
	})
	run(ctx, 1000)
	require.InDelta(t, 30, ctx.RenderVehicles()[0].V, 1)
	ctx.SetSpeedLimit(10)
	run(ctx, 1000)
	assert.InDelta(t, 10, ctx.RenderVehicles()[0].V, .5)
}

// 车道增删指令：删除外道时车辆迁入新的最外道，仅剩一条车道时删除被忽略
func TestLaneCommands(t *testing.T) {
	ctx := task.NewContext(baseConfig())
	ctx.Init()
	ctx.SpawnBurst(9)
	run(ctx, 50)

	ctx.RemoveLane()
	assert.Equal(t, 2, ctx.LaneManager().LaneCount())
	for _, m := range ctx.RenderVehicles() {
		assert.LessOrEqual(t, m.LaneIndex, 1)
	}
	run(ctx, 100)
	assert.Equal(t, 9, ctx.VehicleManager().Count())

	ctx.RemoveLane()
	ctx.RemoveLane() // 仅剩一条，忽略
	assert.Equal(t, 1, ctx.LaneManager().LaneCount())
	run(ctx, 100)

	assert.Equal(t, 1, ctx.AddLane())
	assert.Equal(t, 2, ctx.LaneManager().LaneCount())
	run(ctx, 100)
	assert.Equal(t, 9, ctx.VehicleManager().Count())
}

// 删除车道时正在向被删车道变道的车辆必须一并迁回：
// 变道发起后的一步内运行时车道已指向目标而快照还停留在原车道，
// 恰在此窗口删除车道不得遗留越界车辆
func TestRemoveLaneDuringLaneChange(t *testing.T) {
	c := baseConfig()
	c.Roadway.Lanes = 2
	ctx := task.NewContext(c)
	ctx.Init()
	const n = 14
	for k := 0; k < n; k++ {
		ctx.VehicleManager().Spawn(entity.VehicleOption{
			Theta:     utils.TwoPi * float64(k) / n,
			LaneIndex: 0,
			V:         10,
			Archetype: entity.ArchetypeNormal,
		})
	}
	// 推进到恰有车辆刚发起变道（运行时已在外道、快照仍在内道）的步界
	hit := false
	for i := 0; i < 400 && !hit; i++ {
		ctx.Step()
		for _, v := range ctx.VehicleManager().Vehicles() {
			if v.RuntimeLane().Index() == 1 && v.Lane().Index() == 0 {
				hit = true
				break
			}
		}
	}
	require.True(t, hit, "no lane change started")

	ctx.RemoveLane()
	require.Equal(t, 1, ctx.LaneManager().LaneCount())
	run(ctx, 200)

	motions := ctx.RenderVehicles()
	require.Len(t, motions, n)
	for _, m := range motions {
		assert.Equal(t, 0, m.LaneIndex, "vehicle %d", m.ID)
		assert.False(t, m.IsLC, "vehicle %d", m.ID)
	}
}

// 角位置回绕：跑满一整圈时圈数恰好加一，角位置与累计里程保持模2π一致
func TestLapWraparound(t *testing.T) {
	c := baseConfig()
	c.Roadway.Lanes = 1
	ctx := task.NewContext(c)
	ctx.Init()
	v := ctx.VehicleManager().Spawn(entity.VehicleOption{
		Theta:     0,
		LaneIndex: 0,
		V:         20,
		Archetype: entity.ArchetypeNormal,
	})
	r := ctx.RuntimeConfig().Roadway.LaneRadius(0)

	prevLaps, prevTheta := v.Laps(), v.Theta()
	for steps := 0; v.Laps() < 2; steps++ {
		require.Less(t, steps, 20000, "vehicle never completed two laps")
		ctx.Step()
		if v.Laps() != prevLaps {
			// 圈数单步至多加一，且伴随角位置回绕
			assert.Equal(t, prevLaps+1, v.Laps())
			assert.Less(t, v.Theta(), prevTheta)
		}
		prevLaps, prevTheta = v.Laps(), v.Theta()
	}
	circ := utils.TwoPi * r
	assert.InDelta(t, 2, v.DistanceTraveled()/circ, .02)
	assert.InDelta(t, utils.WrapTheta(v.DistanceTraveled()/r), v.Theta(), 1e-6)
}

// 匝道增删指令：删除未知匝道仅告警，删除入口匝道时排队车辆一并丢弃
func TestRampCommands(t *testing.T) {
	ctx := task.NewContext(baseConfig())
	ctx.Init()
	ctx.RemoveRamp(99)

	id := ctx.AddEntranceRamp(1, 5)
	run(ctx, 100)
	ctx.RemoveRamp(id)
	assert.Equal(t, 0, ctx.MetricsSnapshot().QueuedCount)
	run(ctx, 50)
}

// 主路自然生成
func TestNaturalSpawn(t *testing.T) {
	c := baseConfig()
	c.Control.SpawnRate = 1
	ctx := task.NewContext(c)
	ctx.Init()
	run(ctx, 600)
	assert.Positive(t, ctx.VehicleManager().Count())
}

// 清空与撒布指令
func TestBurstAndClear(t *testing.T) {
	ctx := task.NewContext(baseConfig())
	ctx.Init()
	ctx.SpawnBurst(10)
	ctx.Step()
	assert.Equal(t, 10, ctx.VehicleManager().Count())
	ctx.ClearVehicles()
	assert.Equal(t, 0, ctx.VehicleManager().Count())
	assert.Empty(t, ctx.RenderVehicles())
	run(ctx, 10)
}

// 重置指令：清空车辆与匝道队列、恢复配置布局、归零时钟与指标
func TestReset(t *testing.T) {
	c := baseConfig()
	c.Control.InitialVehicles = 6
	c.Ramps = []config.RampConfig{{Kind: "entrance", Angle: 1, FlowRate: 5}}
	ctx := task.NewContext(c)
	ctx.Init()
	run(ctx, 200)
	require.Positive(t, ctx.VehicleManager().Count())

	// 动态改动布局后重置，布局恢复为配置文件状态
	ctx.AddLane()
	ctx.AddExitRamp(4)
	run(ctx, 50)

	ctx.Reset()
	assert.Equal(t, 0, ctx.VehicleManager().Count())
	assert.Equal(t, 0, ctx.MetricsSnapshot().QueuedCount)
	assert.Equal(t, int64(0), ctx.Clock().Step)
	assert.Equal(t, int64(0), ctx.MetricsSnapshot().TotalExits)
	assert.Equal(t, 3, ctx.LaneManager().LaneCount())
	assert.Len(t, ctx.RampManager().(*ramp.Manager).Ramps(), 1)
	run(ctx, 50)
}

// 风格白名单指令：此后生成的车辆只抽取白名单内的风格
func TestSetAllowedArchetypes(t *testing.T) {
	ctx := task.NewContext(baseConfig())
	ctx.Init()
	ctx.SetAllowedArchetypes([]string{"C"})
	ctx.SpawnBurst(8)
	ctx.Step()
	for _, m := range ctx.RenderVehicles() {
		assert.Equal(t, entity.ArchetypeCautious, m.Archetype)
	}
	// 非法白名单恢复默认构成，生成不中断
	ctx.SetAllowedArchetypes([]string{"Z"})
	ctx.SpawnBurst(4)
	ctx.Step()
	assert.Equal(t, 12, ctx.VehicleManager().Count())
}

// 复现性：相同配置与种子下两次运行逐比特一致
func TestDeterminism(t *testing.T) {
	c := baseConfig()
	c.Control.Seed = 7
	c.Control.SpawnRate = .2
	c.Control.InitialVehicles = 12
	c.Ramps = []config.RampConfig{
		{Kind: "entrance", Angle: 1, FlowRate: .5},
		{Kind: "exit", Angle: 4},
	}
	ctx1 := task.NewContext(c)
	ctx1.Init()
	ctx2 := task.NewContext(c)
	ctx2.Init()
	run(ctx1, 500)
	run(ctx2, 500)
	assert.Equal(t, ctx1.RenderVehicles(), ctx2.RenderVehicles())
	assert.Equal(t, ctx1.MetricsSnapshot(), ctx2.MetricsSnapshot())
}

// RunFrame按墙钟折算步数
func TestRunFrame(t *testing.T) {
	ctx := task.NewContext(baseConfig())
	ctx.Init()
	assert.Equal(t, 0, ctx.RunFrame(.05))
	assert.Equal(t, 1, ctx.RunFrame(.06))
	// 单帧超过0.1秒的部分被丢弃
	assert.Equal(t, 1, ctx.RunFrame(3))
	assert.Equal(t, int64(2), ctx.Clock().Step)
	ctx.Stop()
	assert.Equal(t, 0, ctx.RunFrame(.1))
}
