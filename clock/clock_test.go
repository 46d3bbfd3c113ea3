package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/clock"
)

func TestClockTick(t *testing.T) {
	c := clock.New(0, 3, .1)
	assert.Equal(t, int64(0), c.Step)
	c.Tick()
	c.Tick()
	assert.Equal(t, int64(2), c.Step)
	assert.InDelta(t, .2, c.T, 1e-12)
	assert.False(t, c.Done())
	c.Tick()
	assert.True(t, c.Done())
	c.Reset()
	assert.Equal(t, int64(0), c.Step)
}

func TestClockAccumulate(t *testing.T) {
	c := clock.New(0, 0, .1)
	assert.Equal(t, 0, c.Accumulate(.05))
	// 余量累积
	assert.Equal(t, 1, c.Accumulate(.06))
	// 单帧墙钟超过0.1秒的部分被丢弃
	assert.Equal(t, 1, c.Accumulate(.2))
	assert.Equal(t, 1, c.Accumulate(5))
	// 负值视为0
	assert.Equal(t, 0, c.Accumulate(-1))
}
