package logminer

// Controller implements the adaptive batch-size/sleep logic that keeps the
// mining window near the database head without overloading the database
// or the buffer: it is the only writer of batchSize/sleepMillis outside of
// operator mutation via the management interface.
type Controller struct {
	cfg Config

	batchSize   int64
	sleepMillis int64

	metrics *MinerMetrics
}

// NewController seeds batchSize at cfg.DefaultBatchSize and sleepMillis at
// cfg.MinSleepMillis.
func NewController(cfg Config, metrics *MinerMetrics) *Controller {
	c := &Controller{
		cfg:         cfg,
		batchSize:   cfg.DefaultBatchSize,
		sleepMillis: cfg.MinSleepMillis,
		metrics:     metrics,
	}
	c.publish()
	return c
}

// BatchSize returns the current adaptive batch size.
func (c *Controller) BatchSize() int64 {
	return c.batchSize
}

// SleepMillis returns the current adaptive inter-cycle sleep.
func (c *Controller) SleepMillis() int64 {
	return c.sleepMillis
}

// Adjust applies one step of the table given the current
// DB SCN (currentScn) and the window start (startScn); the tentative
// upper bound target = startScn + batchSize is computed here. It returns
// the endScn to use for this mining cycle.
func (c *Controller) Adjust(currentScn, startScn SCN) (endScn SCN) {
	target := startScn.Add(uint64(c.batchSize))

	switch {
	case target.Sub(currentScn) > SCN(c.cfg.DefaultBatchSize):
		// far future: mining window extends well past the DB head.
		c.decreaseBatchSize()
		endScn = currentScn

	case currentScn.Sub(target) > SCN(c.cfg.DefaultBatchSize):
		// behind: DB head has pulled far ahead of the tentative window.
		c.increaseBatchSize()
		endScn = target

	case currentScn.Compare(target) < 0:
		// caught up: nothing new to mine yet, ease off polling.
		c.increaseSleep()
		endScn = currentScn

	default:
		// in window: DB head at or past target, mine at full speed.
		c.decreaseSleep()
		endScn = target
	}

	c.publish()
	c.metrics.setCurrentScn(currentScn)
	return endScn
}

func (c *Controller) decreaseBatchSize() {
	c.batchSize -= c.cfg.BatchSizeStep
	if c.batchSize < c.cfg.MinBatchSize {
		c.batchSize = c.cfg.MinBatchSize
	}
}

func (c *Controller) increaseBatchSize() {
	c.batchSize += c.cfg.BatchSizeStep
	if c.batchSize > c.cfg.MaxBatchSize {
		c.batchSize = c.cfg.MaxBatchSize
	}
}

func (c *Controller) increaseSleep() {
	c.sleepMillis += c.cfg.SleepStep
	if c.sleepMillis > c.cfg.MaxSleepMillis {
		c.sleepMillis = c.cfg.MaxSleepMillis
	}
}

func (c *Controller) decreaseSleep() {
	c.sleepMillis -= c.cfg.SleepStep
	if c.sleepMillis < c.cfg.MinSleepMillis {
		c.sleepMillis = c.cfg.MinSleepMillis
	}
}

func (c *Controller) publish() {
	c.metrics.batchSize.Store(c.batchSize)
	c.metrics.sleepMillis.Store(c.sleepMillis)
}
