// 随机数引擎，包装了golang.org/x/exp/rand，提供模拟中常用的随机数生成方法
package randengine

import (
	"flag"
	"log"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能
// 说明：模拟核心为单写者模型，引擎不做加锁处理；
// 每辆车持有以自身ID为种子的引擎，环道级事件（生成判定、原型抽取）使用全局引擎，
// 固定种子与指令序列下模拟结果逐比特复现
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 功能：以seed+全局偏移量为种子初始化引擎
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改代码的情况下整体切换随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按给定权重分布生成随机下标
// 功能：根据权重数组生成离散分布的随机数
// 参数：weight-权重数组，每个元素表示对应下标的概率权重
// 返回：随机生成的下标（0到len(weight)-1）
// 算法说明：
// 1. 计算总权重并在[0, 总权重)范围内生成随机数
// 2. 累积权重直到超过随机数，返回对应下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// PTrue 以指定概率返回true
// 参数：p-返回true的概率（0.0到1.0之间）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// RangeFloat64 在[low, high)范围内生成随机浮点数
// 功能：用于分心时长、变道冷却等需要区间随机的行为参数
func (e *Engine) RangeFloat64(low, high float64) float64 {
	return low + (high-low)*e.Float64()
}

// NormClamped 生成截断正态扰动
// 功能：返回均值为0、被限制在[-limit, limit]内的正态扰动
// 说明：车辆属性与加速度的随机扰动均采用该形式，截断避免长尾数值破坏模型稳定性
func (e *Engine) NormClamped(std, limit float64) float64 {
	x := std * e.NormFloat64()
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}
