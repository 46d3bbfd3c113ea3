package task

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
	"github.com/tsinghua-fib-lab/ringroad-sim/metrics"
)

// VehicleMotion 主路车辆渲染快照
type VehicleMotion struct {
	ID        int32
	Archetype entity.Archetype
	// 平面位置，环心为原点
	Position geometry.Point
	// 航向角（弧度），沿角度增大方向行驶
	Heading float64
	// 角位置（弧度）
	Theta float64
	// 速度（米/秒）
	V float64
	// 法定车道序号
	LaneIndex int
	// 变道状态与完成度
	IsLC    bool
	LCRatio float64
}

// RampVehicleMotion 匝道车辆渲染快照
type RampVehicleMotion struct {
	ID        int32
	RampID    int32
	Archetype entity.Archetype
	Phase     string
	// 沿匝道行进进度∈[0, 1]
	Progress float64
	// 排队位次，队首为0
	QueueRank int
}

// RenderVehicles 导出主路车辆渲染快照
// 说明：变道车辆的半径按完成度在原车道与目标车道间插值，
// 表现出连续的横向滑移
func (ctx *Context) RenderVehicles() []VehicleMotion {
	vehicles := ctx.vehicleManager.Vehicles()
	motions := make([]VehicleMotion, 0, len(vehicles))
	for _, v := range vehicles {
		if v.IsRemoved() {
			continue
		}
		theta := v.Theta()
		pos := onLane(theta, v.Lane())
		if v.IsLC() {
			pos = geometry.Blend(onLane(theta, v.LCOrigin()), pos, v.LCRatio())
		}
		motions = append(motions, VehicleMotion{
			ID:        v.ID(),
			Archetype: v.Archetype(),
			Position:  pos,
			Heading:   theta + math.Pi/2,
			Theta:     theta,
			V:         v.V(),
			LaneIndex: v.LaneIndex(),
			IsLC:      v.IsLC(),
			LCRatio:   v.LCRatio(),
		})
	}
	return motions
}

func onLane(theta float64, lane entity.ILane) geometry.Point {
	r := lane.Radius()
	return geometry.Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// RenderRampVehicles 导出匝道车辆渲染快照
func (ctx *Context) RenderRampVehicles() []RampVehicleMotion {
	rvs := ctx.rampManager.RampVehicles()
	motions := make([]RampVehicleMotion, 0, len(rvs))
	for _, rv := range rvs {
		motions = append(motions, RampVehicleMotion{
			ID:        rv.ID(),
			RampID:    rv.RampID(),
			Archetype: rv.Archetype(),
			Phase:     rv.Phase().String(),
			Progress:  rv.Progress(),
			QueueRank: rv.QueueRank(),
		})
	}
	return motions
}

// MetricsSnapshot 导出指标快照
func (ctx *Context) MetricsSnapshot() metrics.Snapshot {
	vehicles := ctx.vehicleManager.Vehicles()
	speeds := make([]float64, 0, len(vehicles))
	for _, v := range vehicles {
		if v.IsRemoved() {
			continue
		}
		speeds = append(speeds, v.V())
	}
	return metrics.Snapshot{
		VehicleCount: len(speeds),
		QueuedCount:  ctx.rampManager.QueuedCount(),
		MeanV:        metrics.MeanV(speeds),
		Throughput:   ctx.metrics.Throughput(ctx.clock.T),
		TotalExits:   ctx.metrics.TotalExits(),
	}
}
