package periodic

import (
	"sync"
	"time"
)

// TimerFacility arms one-shot callbacks that fire directly on the
// facility's own context rather than on a worker pool. Callbacks must
// be short and non-blocking.
type TimerFacility interface {

	// ArmAfter fires fn once d has elapsed.
	ArmAfter(d time.Duration, fn func()) Armed
}

// Armed is an outstanding timer shot.
type Armed interface {

	// DisarmAndWait cancels the shot and blocks until an in-flight
	// invocation has returned. After DisarmAndWait returns, fn is not
	// running and never will.
	DisarmAndWait()
}

// RuntimeTimers is the default TimerFacility. Shots fire on the
// runtime's timer goroutines, asynchronous to every caller.
type RuntimeTimers struct{}

// ArmAfter implements TimerFacility.
func (RuntimeTimers) ArmAfter(d time.Duration, fn func()) Armed {
	a := &armed{
		fn:   fn,
		done: make(chan struct{}),
	}
	a.timer = time.AfterFunc(d, a.fire)

	return a
}

const (
	armedWaiting   = iota // waiting for the delay to elapse
	armedFired            // fn ran (or is running)
	armedCancelled        // disarmed before firing
)

type armed struct {
	fn    func()
	timer *time.Timer

	mu    sync.Mutex
	state int
	done  chan struct{}
}

func (a *armed) fire() {
	a.mu.Lock()
	if a.state != armedWaiting {
		a.mu.Unlock()
		return
	}
	a.state = armedFired
	a.mu.Unlock()

	a.fn()
	close(a.done)
}

// DisarmAndWait implements Armed.
func (a *armed) DisarmAndWait() {
	a.timer.Stop()

	a.mu.Lock()
	if a.state == armedWaiting {
		a.state = armedCancelled
		close(a.done)
	}
	a.mu.Unlock()

	<-a.done
}
