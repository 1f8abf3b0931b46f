package periodic

import (
	"sync"
	"time"
)

// Pool schedules deferred functions on shared workers. Timing is best
// effort: a due function waits for a free worker under load.
type Pool interface {

	// ScheduleAfter runs fn on a worker once d has elapsed.
	ScheduleAfter(d time.Duration, fn func()) Pending
}

// Pending is a function handed to a Pool that has not completed yet.
type Pending interface {

	// CancelAndWait cancels the function if it has not started and
	// blocks until it has finished if it has. After CancelAndWait
	// returns, the function is not running and never will.
	CancelAndWait()
}

// WorkerPool is the default Pool: a fixed set of worker goroutines
// consuming a shared queue.
type WorkerPool struct {
	queue chan func()
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers.
// workers smaller than one defaults to two.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 2
	}

	p := &WorkerPool{
		queue: make(chan func()),
		quit:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case fn := <-p.queue:
			fn()
		}
	}
}

// ScheduleAfter runs fn on a pool worker once d has elapsed.
func (p *WorkerPool) ScheduleAfter(d time.Duration, fn func()) Pending {
	t := &pooled{
		pool: p,
		fn:   fn,
		done: make(chan struct{}),
	}
	t.timer = time.AfterFunc(d, t.enqueue)

	return t
}

// Close stops the workers. Functions that have not started are
// dropped.
func (p *WorkerPool) Close() error {
	close(p.quit)
	p.wg.Wait()

	return nil
}

// pooled states. Transitions are one-way and happen under mu; done is
// closed exactly once, on entering pooledDone or pooledCancelled.
const (
	pooledWaiting   = iota // waiting for the delay to elapse
	pooledQueued           // handed to the pool, waiting for a worker
	pooledRunning          // fn is executing on a worker
	pooledDone             // fn has returned
	pooledCancelled        // cancelled before fn started
)

type pooled struct {
	pool  *WorkerPool
	fn    func()
	timer *time.Timer

	mu    sync.Mutex
	state int
	done  chan struct{}
}

func (t *pooled) enqueue() {
	t.mu.Lock()
	if t.state != pooledWaiting {
		t.mu.Unlock()
		return
	}
	t.state = pooledQueued
	t.mu.Unlock()

	select {
	case t.pool.queue <- t.run:
	case <-t.pool.quit:
		t.mu.Lock()
		if t.state == pooledQueued {
			t.state = pooledCancelled
			close(t.done)
		}
		t.mu.Unlock()
	}
}

func (t *pooled) run() {
	t.mu.Lock()
	if t.state != pooledQueued {
		t.mu.Unlock()
		return
	}
	t.state = pooledRunning
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	t.state = pooledDone
	close(t.done)
	t.mu.Unlock()
}

// CancelAndWait implements Pending.
func (t *pooled) CancelAndWait() {
	t.timer.Stop()

	t.mu.Lock()
	switch t.state {
	case pooledWaiting, pooledQueued:
		// fn has not started and the state change keeps it from
		// starting, even if a worker already picked it up.
		t.state = pooledCancelled
		close(t.done)
	}
	t.mu.Unlock()

	<-t.done
}
