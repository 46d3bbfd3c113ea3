package utils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/utils"
)

func TestWrapTheta(t *testing.T) {
	assert.InDelta(t, 1, utils.WrapTheta(1), 1e-12)
	assert.InDelta(t, 1, utils.WrapTheta(1+utils.TwoPi), 1e-12)
	assert.InDelta(t, utils.TwoPi-1, utils.WrapTheta(-1), 1e-12)
	assert.InDelta(t, 0, utils.WrapTheta(utils.TwoPi), 1e-12)
}

func TestForwardDelta(t *testing.T) {
	assert.InDelta(t, 1, utils.ForwardDelta(1, 2), 1e-12)
	// 跨越2π回绕
	assert.InDelta(t, 2, utils.ForwardDelta(utils.TwoPi-1, 1), 1e-12)
	assert.InDelta(t, utils.TwoPi-1, utils.ForwardDelta(2, 1), 1e-12)
}

func TestAbsDelta(t *testing.T) {
	assert.InDelta(t, 1, utils.AbsDelta(1, 2), 1e-12)
	assert.InDelta(t, 1, utils.AbsDelta(2, 1), 1e-12)
	assert.InDelta(t, 2, utils.AbsDelta(utils.TwoPi-1, 1), 1e-12)
	assert.InDelta(t, math.Pi, utils.AbsDelta(0, math.Pi), 1e-12)
}
