package entity

// SpatialBuckets 角桶空间索引的桶数
const SpatialBuckets = 64

// 车道相邻方向
const (
	INWARD  = 0 // 内侧（半径减小方向）
	OUTWARD = 1 // 外侧（半径增大方向）
)

// 链表前后位置
const (
	BEFORE = 0 // 前方（行进方向）
	AFTER  = 1 // 后方
)

// Archetype 驾驶风格
type Archetype string

const (
	// ArchetypeNormal 普通型：均衡参数
	ArchetypeNormal Archetype = "A"
	// ArchetypeAggressive 激进型：期望速度高、车头时距短、礼让低
	ArchetypeAggressive Archetype = "B"
	// ArchetypeCautious 谨慎型：期望速度低、车头时距长、易分心
	ArchetypeCautious Archetype = "C"
)

// Archetypes 全部驾驶风格
func Archetypes() []Archetype {
	return []Archetype{ArchetypeNormal, ArchetypeAggressive, ArchetypeCautious}
}

// IsValidArchetype 判断字符串是否为合法驾驶风格
func IsValidArchetype(s string) bool {
	switch Archetype(s) {
	case ArchetypeNormal, ArchetypeAggressive, ArchetypeCautious:
		return true
	}
	return false
}

// RampKind 匝道类型
type RampKind int32

const (
	// RampEntrance 入口匝道
	RampEntrance RampKind = iota
	// RampExit 出口匝道
	RampExit
)

func (k RampKind) String() string {
	switch k {
	case RampEntrance:
		return "entrance"
	case RampExit:
		return "exit"
	default:
		return "unknown"
	}
}
