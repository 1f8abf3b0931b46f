package pmbus

import (
	"errors"
	"sync"
)

// Dispatcher is an in-process Bus. Event sources publish transition
// events into it and every registered handler observes each one,
// regardless of what the other handlers report.
//
// It is safe to call Dispatcher's methods concurrently.
type Dispatcher struct {
	mu   sync.Mutex
	regs map[*registration]struct{}
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		regs: make(map[*registration]struct{}),
	}
}

// Register binds handler to the dispatcher.
func (d *Dispatcher) Register(handler Handler) (Registration, error) {
	if handler == nil {
		return nil, errors.New("Register: handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	r := &registration{dispatcher: d, handler: handler}
	d.regs[r] = struct{}{}

	return r, nil
}

// Publish delivers the event to every registered handler and returns
// how many of them reported it handled. Delivery holds the dispatcher
// lock, which is what guarantees that a handler is never invoked after
// its registration's Close has returned; handlers must not block.
func (d *Dispatcher) Publish(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	handled := 0
	for r := range d.regs {
		if r.handler(kind) == Handled {
			handled++
		}
	}

	return handled
}

type registration struct {
	dispatcher *Dispatcher
	handler    Handler
}

// Close removes the handler from the dispatcher. Safe to call more
// than once.
func (r *registration) Close() error {
	r.dispatcher.mu.Lock()
	defer r.dispatcher.mu.Unlock()

	delete(r.dispatcher.regs, r)

	return nil
}
