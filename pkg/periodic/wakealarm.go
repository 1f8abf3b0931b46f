package periodic

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultAlarmPeriod is the nominal period of WakeAlarm.
const DefaultAlarmPeriod = 10 * time.Second

// WakeAlarm is a self-rearming, clock-sourced alarm. Every firing arms
// the next shot at its own wall-clock time plus the period, so the
// effective cadence is a floor of the period plus whatever scheduling
// or wake latency the platform added. On wake-capable facilities an
// expiry pulls the platform out of deep sleep.
//
// Start and Stop must not be called from the firing itself.
type WakeAlarm struct {
	facility AlarmFacility
	period   time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	gen    uint64
	shot   Alarm
	active bool
}

// NewWakeAlarm creates the task. A period of zero or less defaults to
// DefaultAlarmPeriod, a nil logger to slog.Default.
func NewWakeAlarm(facility AlarmFacility, period time.Duration, log *slog.Logger) *WakeAlarm {
	if period <= 0 {
		period = DefaultAlarmPeriod
	}
	if log == nil {
		log = slog.Default()
	}

	return &WakeAlarm{
		facility: facility,
		period:   period,
		log:      log,
		now:      time.Now,
	}
}

// Start arms the first shot at now plus the period. Starting an active
// task does nothing.
func (w *WakeAlarm) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		return
	}
	w.active = true
	w.gen++

	gen := w.gen
	w.shot = w.facility.ArmAt(w.now().Add(w.period), func() { w.fire(gen) })
}

func (w *WakeAlarm) fire(gen uint64) {
	now := w.now()
	w.log.Info("wake alarm fired", "unix", now.Unix())

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active || gen != w.gen {
		return
	}
	// The new expiry is measured from this firing, not from the
	// previous expiry; latency accumulates instead of being caught up.
	w.shot = w.facility.ArmAt(now.Add(w.period), func() { w.fire(gen) })
}

// Stop withdraws the outstanding shot. Stop is best-effort
// synchronous: it guarantees the alarm never re-arms after it returns,
// but a shot the clock already committed to firing, including one that
// already triggered the platform's wake path, may still complete its
// side effect afterwards.
//
// Stopping an inactive task does nothing.
func (w *WakeAlarm) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	w.gen++
	shot := w.shot
	w.shot = nil
	w.mu.Unlock()

	shot.Cancel()
}
