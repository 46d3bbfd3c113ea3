// Package metrics 提供模拟运行指标统计功能
package metrics

import (
	"gonum.org/v1/gonum/stat"
)

// 吞吐量统计滑动窗口长度（秒）
const throughputWindow = 60

// Metrics 指标收集器
// 仅在模拟循环的串行阶段读写，不加锁
type Metrics struct {
	// 出口驶出事件时间戳，按时间升序
	exitTimes []float64
	// 累计驶出车辆数
	totalExits int64
}

// New 创建指标收集器
func New() *Metrics {
	return &Metrics{}
}

// Reset 清空全部统计数据
func (m *Metrics) Reset() {
	m.exitTimes = m.exitTimes[:0]
	m.totalExits = 0
}

// RecordExit 记录一次出口驶出事件
// 参数：
//
//	t: 事件发生的模拟时间（秒）
func (m *Metrics) RecordExit(t float64) {
	m.exitTimes = append(m.exitTimes, t)
	m.totalExits++
}

// Throughput 统计最近窗口内的出口驶出车辆数
// 参数：
//
//	t: 当前模拟时间（秒）
//
// 返回：最近60秒内驶出车辆数
func (m *Metrics) Throughput(t float64) int {
	cut := t - throughputWindow
	i := 0
	for i < len(m.exitTimes) && m.exitTimes[i] <= cut {
		i++
	}
	if i > 0 {
		m.exitTimes = m.exitTimes[i:]
	}
	return len(m.exitTimes)
}

// TotalExits 获取累计驶出车辆数
func (m *Metrics) TotalExits() int64 {
	return m.totalExits
}

// MeanV 计算平均速度
// 参数：
//
//	speeds: 全部在道车辆速度
//
// 返回：平均速度（米/秒），无车时为0
func MeanV(speeds []float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	return stat.Mean(speeds, nil)
}

// Snapshot 指标快照
type Snapshot struct {
	// 在道车辆数
	VehicleCount int
	// 匝道排队车辆数
	QueuedCount int
	// 平均速度（米/秒）
	MeanV float64
	// 最近60秒出口吞吐量（辆）
	Throughput int
	// 累计驶出车辆数
	TotalExits int64
}
