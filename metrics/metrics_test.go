package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/ringroad-sim/metrics"
)

func TestThroughputWindow(t *testing.T) {
	m := metrics.New()
	m.RecordExit(10)
	m.RecordExit(20)
	m.RecordExit(50)
	assert.Equal(t, 3, m.Throughput(55))
	// 窗口滑过后旧事件被剔除，累计计数不受影响
	assert.Equal(t, 2, m.Throughput(75))
	assert.Equal(t, 1, m.Throughput(100))
	assert.Equal(t, 0, m.Throughput(200))
	assert.Equal(t, int64(3), m.TotalExits())

	m.Reset()
	assert.Equal(t, int64(0), m.TotalExits())
	assert.Equal(t, 0, m.Throughput(0))
}

func TestMeanV(t *testing.T) {
	assert.Equal(t, 0., metrics.MeanV(nil))
	assert.InDelta(t, 2, metrics.MeanV([]float64{1, 2, 3}), 1e-12)
}
