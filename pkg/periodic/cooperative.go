package periodic

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultPeriod is the nominal period of Cooperative and Ticker.
const DefaultPeriod = time.Second

// Cooperative is a self-rearming periodic task executed on a shared
// worker pool. Timing is best effort: under load a due firing waits
// for a free worker.
//
// Start and Stop must not be called from the firing itself.
type Cooperative struct {
	pool   Pool
	period time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	gen     uint64
	pending Pending
	active  bool
}

// NewCooperative creates the task. A period of zero or less defaults
// to DefaultPeriod, a nil logger to slog.Default.
func NewCooperative(pool Pool, period time.Duration, log *slog.Logger) *Cooperative {
	if period <= 0 {
		period = DefaultPeriod
	}
	if log == nil {
		log = slog.Default()
	}

	return &Cooperative{
		pool:   pool,
		period: period,
		log:    log,
	}
}

// Start arms the first firing, one period from now. Starting an active
// task does nothing.
func (c *Cooperative) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return
	}
	c.active = true
	c.gen++

	gen := c.gen
	c.pending = c.pool.ScheduleAfter(c.period, func() { c.fire(gen) })
}

func (c *Cooperative) fire(gen uint64) {
	c.log.Info("cooperative tick", "unix", time.Now().Unix())

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-arming is only legal while the generation that armed this
	// firing is still current; a stop that began meanwhile bumped it.
	if !c.active || gen != c.gen {
		return
	}
	c.pending = c.pool.ScheduleAfter(c.period, func() { c.fire(gen) })
}

// Stop cancels the pending firing and waits for an in-flight one to
// finish. Once Stop returns the task does not fire again. Stopping an
// inactive task does nothing.
func (c *Cooperative) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.gen++
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	pending.CancelAndWait()
}
