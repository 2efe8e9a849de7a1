package logminer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		DefaultBatchSize: 1000,
		MinBatchSize:     100,
		MaxBatchSize:     5000,
		BatchSizeStep:    100,
		MinSleepMillis:   0,
		MaxSleepMillis:   3000,
		SleepStep:        200,
	}
}

func TestControllerCaughtUpReturnsCurrentScn(t *testing.T) {
	cfg := testConfig()
	c := NewController(cfg, &MinerMetrics{})

	endScn := c.Adjust(SCN(100), SCN(0)) // target = 1000, current = 100, diff 900 < 1000 default, so not "far future" yet
	assert.Equal(t, SCN(100), endScn, "caught up: current behind target")

	endScn = c.Adjust(SCN(50), SCN(0)) // target still 1000 (batch unchanged by caught-up branch), diff 950 < 1000
	assert.Equal(t, SCN(50), endScn)
}

func TestControllerBehindGrowsBatch(t *testing.T) {
	cfg := testConfig()
	c := NewController(cfg, &MinerMetrics{})

	startBatch := c.BatchSize()
	endScn := c.Adjust(SCN(5000), SCN(0)) // target=1000, current-target=4000 > default(1000) -> behind
	assert.Equal(t, SCN(1000), endScn)
	assert.Greater(t, c.BatchSize(), startBatch)
}

func TestControllerCaughtUpIncreasesSleep(t *testing.T) {
	cfg := testConfig()
	c := NewController(cfg, &MinerMetrics{})

	startSleep := c.SleepMillis()
	endScn := c.Adjust(SCN(10), SCN(0)) // target=1000, current(10) < target, caught up
	assert.Equal(t, SCN(10), endScn)
	assert.Greater(t, c.SleepMillis(), startSleep)
}

func TestControllerInWindowDecreasesSleep(t *testing.T) {
	cfg := testConfig()
	cfg.MinSleepMillis = 500
	c := NewController(cfg, &MinerMetrics{})
	c.sleepMillis = 1000

	endScn := c.Adjust(SCN(1000), SCN(0)) // target=1000, current>=target, in window
	assert.Equal(t, SCN(1000), endScn)
	assert.Equal(t, int64(800), c.SleepMillis())
}

func TestControllerClampsToBounds(t *testing.T) {
	cfg := testConfig()
	c := NewController(cfg, &MinerMetrics{})

	for i := 0; i < 100; i++ {
		c.Adjust(SCN(0), SCN(0))
	}
	assert.GreaterOrEqual(t, c.BatchSize(), cfg.MinBatchSize)
	assert.LessOrEqual(t, c.SleepMillis(), cfg.MaxSleepMillis)
}
