// Package clock 提供模拟时钟功能
package clock

import "fmt"

// 单帧墙钟时间上限（秒），避免页面切走后恢复时产生步数风暴
const maxFrameDelta = .1

// Clock 模拟时钟，固定步长推进
type Clock struct {
	// 模拟开始步
	StartStep int64
	// 模拟结束步，0表示不限
	EndStep int64
	// 当前步
	Step int64
	// 当前模拟时间（秒）
	T float64
	// 步长（秒）
	DT float64
	// 墙钟时间累加器（秒）
	accumulator float64
}

// New 创建模拟时钟
func New(startStep, endStep int64, dt float64) *Clock {
	c := &Clock{
		StartStep: startStep,
		EndStep:   endStep,
		DT:        dt,
	}
	c.Reset()
	return c
}

// Reset 重置时钟到模拟开始步
func (c *Clock) Reset() {
	c.Step = c.StartStep
	c.T = float64(c.Step) * c.DT
	c.accumulator = 0
}

// Tick 推进一步
func (c *Clock) Tick() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// Done 判断是否到达模拟结束步
func (c *Clock) Done() bool {
	return c.EndStep > 0 && c.Step >= c.EndStep
}

// Accumulate 累加墙钟时间并结算应执行的模拟步数
// 参数：
//
//	frameDt: 距上一帧的墙钟时间（秒），超出上限部分被丢弃
//
// 返回：本帧应执行的模拟步数
func (c *Clock) Accumulate(frameDt float64) int {
	if frameDt < 0 {
		frameDt = 0
	}
	if frameDt > maxFrameDelta {
		frameDt = maxFrameDelta
	}
	c.accumulator += frameDt
	n := 0
	for c.accumulator >= c.DT {
		c.accumulator -= c.DT
		n++
	}
	return n
}

// InternalTime 模拟内部时间
type InternalTime float64

func (t InternalTime) String() string {
	seconds := int(t)
	hh := seconds / 3600
	mm := seconds % 3600 / 60
	ss := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

func (c *Clock) String() string {
	return fmt.Sprintf("step=%d t=%s", c.Step, InternalTime(c.T))
}
