package config

import (
	"math"
	"os"

	"gopkg.in/yaml.v2"
)

// Roadway 运行时环道参数，由控制接口动态修改
// 所有实体每步按值读取，保证单步内参数一致
type Roadway struct {
	// 当前车道数
	Lanes int
	// 最内侧车道内缘半径（米）
	BaseRadius float64
	// 车道宽度（米）
	LaneWidth float64
	// 全局限速（米/秒）
	SpeedLimit float64
	// 车辆长度（米）
	VehicleLength float64
	// 车辆宽度（米）
	VehicleWidth float64
}

// LaneRadius 计算指定车道中心线半径，车道0为最内侧
func (r Roadway) LaneRadius(index int) float64 {
	return r.BaseRadius + (float64(index)+0.5)*r.LaneWidth
}

// Circumference 计算指定车道中心线周长
func (r Roadway) Circumference(index int) float64 {
	return 2 * math.Pi * r.LaneRadius(index)
}

// RuntimeConfig 运行时配置，包含静态配置文件内容与可变运行时参数
type RuntimeConfig struct {
	// 静态配置文件内容
	File Config
	// 可变环道参数
	Roadway Roadway
	// 主路自然生成流量（辆/秒）
	SpawnRate float64
}

// NewRuntimeConfig 从静态配置构造运行时配置
func NewRuntimeConfig(c Config) *RuntimeConfig {
	return &RuntimeConfig{
		File: c,
		Roadway: Roadway{
			Lanes:         c.Roadway.Lanes,
			BaseRadius:    c.Roadway.BaseRadius,
			LaneWidth:     c.Roadway.LaneWidth,
			SpeedLimit:    c.Roadway.SpeedLimit,
			VehicleLength: c.Roadway.VehicleLength,
			VehicleWidth:  c.Roadway.VehicleWidth,
		},
		SpawnRate: c.Control.SpawnRate,
	}
}

// Load 从yaml数据解析配置，未知字段报错
func Load(data []byte) (Config, error) {
	c := Config{}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile 从yaml文件解析配置
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Load(data)
}
