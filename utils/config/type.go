package config

// RoadwayConfig 环道几何与基础参数配置
type RoadwayConfig struct {
	// 车道数
	Lanes int `yaml:"lanes"`
	// 最内侧车道内缘半径（米）
	BaseRadius float64 `yaml:"base_radius"`
	// 车道宽度（米）
	LaneWidth float64 `yaml:"lane_width"`
	// 全局限速（米/秒）
	SpeedLimit float64 `yaml:"speed_limit"`
	// 车辆长度（米）
	VehicleLength float64 `yaml:"vehicle_length"`
	// 车辆宽度（米）
	VehicleWidth float64 `yaml:"vehicle_width"`
}

// StepConfig 模拟步进配置
type StepConfig struct {
	// 每步模拟时长（秒）
	Interval float64 `yaml:"interval"`
	// 总步数，0表示不限
	Total int64 `yaml:"total,omitempty"`
}

// ControlConfig 模拟控制配置
type ControlConfig struct {
	Step StepConfig `yaml:"step"`
	// 主路自然生成流量（辆/秒）
	SpawnRate float64 `yaml:"spawn_rate"`
	// 允许生成的驾驶风格列表，空表示全部
	Archetypes []string `yaml:"archetypes,omitempty"`
	// 初始均匀撒布车辆数
	InitialVehicles int `yaml:"initial_vehicles,omitempty"`
	// 全局随机种子
	Seed uint64 `yaml:"seed,omitempty"`
}

// RampConfig 匝道配置
type RampConfig struct {
	// 匝道类型：entrance或exit
	Kind string `yaml:"kind"`
	// 匝道汇入/驶出点角位置（弧度）
	Angle float64 `yaml:"angle"`
	// 入口匝道到达流量（辆/秒），出口匝道忽略
	FlowRate float64 `yaml:"flow_rate,omitempty"`
}

// Config 模拟器配置文件结构
type Config struct {
	Roadway RoadwayConfig `yaml:"roadway"`
	Control ControlConfig `yaml:"control"`
	Ramps   []RampConfig  `yaml:"ramps,omitempty"`
}
