package vehicle

import "github.com/tsinghua-fib-lab/ringroad-sim/entity"

// lcRuntime 变道过程状态
type lcRuntime struct {
	// 是否处于变道过程
	IsLC bool
	// 变道原车道
	Origin entity.ILane
	// 变道完成度∈[0, 1)
	CompletedRatio float64
}

// InOriginLane 判断法定车道是否仍为原车道（完成度过半前）
func (lc *lcRuntime) InOriginLane() bool {
	return lc.IsLC && lc.CompletedRatio < .5
}

// runtime 车辆运行时状态
// 说明：更新阶段并行计算写入runtime，准备阶段拷贝为snapshot，
// 车辆间交互一律读取对方的snapshot
type runtime struct {
	// 角位置（弧度），始终∈[0, 2π)
	Theta float64
	// 速度（米/秒）
	V float64
	// 加速度（米/秒²）
	A float64
	// 所在车道（变道中为目标车道）
	Lane entity.ILane
	// 变道状态
	LC lcRuntime
	// 累计行驶里程（米）
	Distance float64
	// 完成圈数
	Laps int
	// 是否已标记移除（驶出出口匝道或被强制清除）
	Removed bool
	// 让行目标入口匝道ID，-1表示未在让行
	YieldRampID int32
	// 让行目标匝道角位置
	YieldTheta float64
}
