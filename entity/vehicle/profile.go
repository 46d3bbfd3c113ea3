package vehicle

import "github.com/tsinghua-fib-lab/ringroad-sim/entity"

// Profile 驾驶风格参数
// 说明：制动加速度均为负值
type Profile struct {
	Archetype entity.Archetype

	// 期望速度与限速之比
	DesiredSpeedRatio float64
	// 期望车头时距（秒）
	Headway float64
	// 最大加速度（米/秒²）
	MaxA float64
	// 舒适制动加速度（米/秒²）
	ComfortBrakingA float64
	// 最大制动加速度（米/秒²）
	MaxBrakingA float64
	// 静止最小净距（米）
	MinGap float64

	// 变道礼让系数，越大越顾及后车
	Politeness float64
	// 间隙接受系数，越大要求变道后后车减速越缓
	GapAcceptance float64
	// 感知间隙系数，<1低估间隙（更保守），>1高估间隙（跟车更紧）
	PerceivedGapFactor float64
	// 变道持续时间（秒）
	LCDuration float64
	// 拥堵挫败阈值（秒），低速被困超过该时长后放宽变道条件
	FrustrationThreshold float64

	// 对匝道排队车辆的让行意愿（概率/秒）
	YieldProbability float64
	// 生成时选择出口目标的概率
	ExitSeekProbability float64
	// 最小行驶圈数抽取区间
	MinTravelLaps [2]float64
	// 分心强度抽取区间（仅谨慎型使用）
	DistractionIntensity [2]float64
}

var profiles = map[entity.Archetype]Profile{
	entity.ArchetypeNormal: {
		Archetype:            entity.ArchetypeNormal,
		DesiredSpeedRatio:    1.0,
		Headway:              1.5,
		MaxA:                 2.5,
		ComfortBrakingA:      -2.5,
		MaxBrakingA:          -6.0,
		MinGap:               2.0,
		Politeness:           0.3,
		GapAcceptance:        1.0,
		PerceivedGapFactor:   1.2,
		LCDuration:           3.5,
		FrustrationThreshold: 12,
		YieldProbability:     0.25,
		ExitSeekProbability:  0.5,
		MinTravelLaps:        [2]float64{1.0, 2.5},
	},
	entity.ArchetypeAggressive: {
		Archetype:            entity.ArchetypeAggressive,
		DesiredSpeedRatio:    1.15,
		Headway:              0.9,
		MaxA:                 3.2,
		ComfortBrakingA:      -3.2,
		MaxBrakingA:          -7.5,
		MinGap:               1.5,
		Politeness:           0.1,
		GapAcceptance:        0.7,
		PerceivedGapFactor:   1.1,
		LCDuration:           2.5,
		FrustrationThreshold: 6,
		YieldProbability:     0.1,
		ExitSeekProbability:  0.5,
		MinTravelLaps:        [2]float64{0.8, 2.0},
	},
	entity.ArchetypeCautious: {
		Archetype:            entity.ArchetypeCautious,
		DesiredSpeedRatio:    0.85,
		Headway:              2.2,
		MaxA:                 1.8,
		ComfortBrakingA:      -2.0,
		MaxBrakingA:          -5.5,
		MinGap:               3.0,
		Politeness:           0.6,
		GapAcceptance:        1.4,
		PerceivedGapFactor:   0.9,
		LCDuration:           4.5,
		FrustrationThreshold: 20,
		YieldProbability:     0.5,
		ExitSeekProbability:  0.5,
		MinTravelLaps:        [2]float64{1.5, 3.0},
		DistractionIntensity: [2]float64{0.3, 0.8},
	},
}

// ProfileOf 获取指定驾驶风格的参数
func ProfileOf(a entity.Archetype) Profile {
	p, ok := profiles[a]
	if !ok {
		log.Errorf("unknown archetype %s, fallback to %s", a, entity.ArchetypeNormal)
		return profiles[entity.ArchetypeNormal]
	}
	return p
}
