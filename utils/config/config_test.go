package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils/config"
)

const testYaml = `
roadway:
  lanes: 3
  base_radius: 100
  lane_width: 3.75
  speed_limit: 30
  vehicle_length: 4.5
  vehicle_width: 1.8
control:
  step:
    interval: 0.1
    total: 1000
  spawn_rate: 0.2
  archetypes: [A, B]
  seed: 42
ramps:
  - kind: entrance
    angle: 1.0
    flow_rate: 0.5
  - kind: exit
    angle: 4.0
`

func TestLoad(t *testing.T) {
	c, err := config.Load([]byte(testYaml))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Roadway.Lanes)
	assert.Equal(t, .1, c.Control.Step.Interval)
	assert.Equal(t, uint64(42), c.Control.Seed)
	require.Len(t, c.Ramps, 2)
	assert.Equal(t, "entrance", c.Ramps[0].Kind)
	assert.Equal(t, .5, c.Ramps[0].FlowRate)

	// 未知字段报错
	_, err = config.Load([]byte("roadway:\n  no_such_field: 1\n"))
	assert.Error(t, err)
}

func TestRoadwayGeometry(t *testing.T) {
	c, err := config.Load([]byte(testYaml))
	require.NoError(t, err)
	rc := config.NewRuntimeConfig(c)
	// 车道中心线半径 = 内缘半径 + (序号+0.5)·车道宽
	assert.InDelta(t, 101.875, rc.Roadway.LaneRadius(0), 1e-9)
	assert.InDelta(t, 105.625, rc.Roadway.LaneRadius(1), 1e-9)
	assert.Greater(t, rc.Roadway.Circumference(1), rc.Roadway.Circumference(0))
	assert.Equal(t, .2, rc.SpawnRate)
}
