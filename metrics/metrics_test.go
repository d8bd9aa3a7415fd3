package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMetricsSingleton(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}

func TestMetricsCounters(t *testing.T) {
	m := GetMetrics()
	m.Reset()

	m.IncrementBlockCount()
	m.IncrementBlockCount()
	m.IncrementForkCount()
	m.AddTransactionsAttached(3)
	m.AddTransactionsAttached(-1) // ignored
	m.SetChainHeight(17)

	assert.Equal(t, uint64(2), m.BlockCount())

	data := m.ToMap()
	assert.Equal(t, uint64(2), data["blocks_generated"])
	assert.Equal(t, uint64(1), data["forks_created"])
	assert.Equal(t, uint64(3), data["transactions_attached"])
	assert.Equal(t, uint64(17), data["chain_height"])
	assert.Contains(t, data, "uptime_seconds")
}

func TestMetricsReset(t *testing.T) {
	m := GetMetrics()
	m.IncrementBlockCount()
	m.Reset()

	assert.Equal(t, uint64(0), m.BlockCount())
	assert.Equal(t, uint64(0), m.ToMap()["forks_created"])
}
