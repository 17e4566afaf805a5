package database

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	var c prometheus.Collector = NewPoolStatsCollector(nil, "orderengine")

	ch := make(chan *prometheus.Desc, 20)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}

	assert.Len(t, names, 12)
	joined := ""
	for _, n := range names {
		joined += n
	}
	for _, want := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_max_connections",
		"db_pool_empty_acquire_count_total",
	} {
		assert.Contains(t, joined, want)
	}
}

func TestRegisterPoolMetrics_Twice(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterPoolMetrics(nil, "orderengine-twice")
		RegisterPoolMetrics(nil, "orderengine-twice")
	})
}
