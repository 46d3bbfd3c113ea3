package ramp

import (
	"fmt"

	"github.com/tsinghua-fib-lab/ringroad-sim/entity"
)

// Phase 匝道车辆阶段
type Phase int32

const (
	// PhaseQueued 在入口匝道排队等待汇入
	PhaseQueued Phase = iota
	// PhaseExiting 沿出口匝道驶离
	PhaseExiting
)

func (p Phase) String() string {
	switch p {
	case PhaseQueued:
		return "queued"
	case PhaseExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// RampVehicle 匝道车辆
// 说明：仅用于匝道上的排队与驶离表现，不参与主路动力学；
// 入口匝道车辆汇入成功后销毁并生成主路车辆，
// 出口匝道车辆由主路车辆驶出时生成，进度走完后销毁
type RampVehicle struct {
	id        int32
	rampID    int32
	rampTheta float64
	phase     Phase
	archetype entity.Archetype

	// 沿匝道行进进度∈[0, 1]
	progress float64
	// 排队位次，队首为0
	queueRank int
	// 队首等待时长（秒）
	waitTime float64
}

// ID 获取匝道车辆ID
func (rv *RampVehicle) ID() int32 {
	return rv.id
}

// RampID 获取所属匝道ID
func (rv *RampVehicle) RampID() int32 {
	return rv.rampID
}

// RampTheta 获取所属匝道角位置
func (rv *RampVehicle) RampTheta() float64 {
	return rv.rampTheta
}

// Phase 获取阶段
func (rv *RampVehicle) Phase() Phase {
	return rv.phase
}

// Archetype 获取驾驶风格
func (rv *RampVehicle) Archetype() entity.Archetype {
	return rv.archetype
}

// Progress 获取行进进度
func (rv *RampVehicle) Progress() float64 {
	return rv.progress
}

// QueueRank 获取排队位次
func (rv *RampVehicle) QueueRank() int {
	return rv.queueRank
}

// WaitTime 获取队首等待时长
func (rv *RampVehicle) WaitTime() float64 {
	return rv.waitTime
}

func (rv *RampVehicle) String() string {
	return fmt.Sprintf("RampVehicle{id=%d, ramp=%d, phase=%s, progress=%.2f}",
		rv.id, rv.rampID, rv.phase, rv.progress)
}
