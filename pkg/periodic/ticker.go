package periodic

import (
	"log/slog"
	"sync"
	"time"
)

// Ticker is a self-rearming periodic task fired directly on the timer
// facility's context. The firing must stay short and non-blocking; it
// does not get a worker to itself.
//
// Start and Stop must not be called from the firing itself.
type Ticker struct {
	facility TimerFacility
	period   time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	gen    uint64
	armed  Armed
	active bool
}

// NewTicker creates the task. A period of zero or less defaults to
// DefaultPeriod, a nil logger to slog.Default.
func NewTicker(facility TimerFacility, period time.Duration, log *slog.Logger) *Ticker {
	if period <= 0 {
		period = DefaultPeriod
	}
	if log == nil {
		log = slog.Default()
	}

	return &Ticker{
		facility: facility,
		period:   period,
		log:      log,
	}
}

// Start arms the first firing, one period from now. Starting an active
// task does nothing.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return
	}
	t.active = true
	t.gen++

	gen := t.gen
	t.armed = t.facility.ArmAfter(t.period, func() { t.fire(gen) })
}

func (t *Ticker) fire(gen uint64) {
	t.log.Info("timer tick", "unix", time.Now().Unix())

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active || gen != t.gen {
		return
	}
	t.armed = t.facility.ArmAfter(t.period, func() { t.fire(gen) })
}

// Stop disarms the pending shot and waits for an in-flight firing to
// return, even though firings execute asynchronously to the caller.
// Once Stop returns the task does not fire again. Stopping an inactive
// task does nothing.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.gen++
	armed := t.armed
	t.armed = nil
	t.mu.Unlock()

	armed.DisarmAndWait()
}
