package vehicle

import "github.com/tsinghua-fib-lab/ringroad-sim/entity"

// Action 单步控制输出
type Action struct {
	// 加速度指令（米/秒²）
	A float64
	// 变道目标车道，nil表示不变道
	LCTarget entity.ILane
}
