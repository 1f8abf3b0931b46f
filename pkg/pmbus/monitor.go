package pmbus

import "errors"

// Monitor collapses the bus's four transition kinds into two logical
// callbacks: both prepare kinds invoke onSuspend, both post kinds
// invoke onResume. Any other kind yields no callback and is reported
// back to the bus as not handled, so other subscribers still see it.
type Monitor struct {
	reg Registration
}

// Watch registers a collapsing handler on the bus. The callbacks
// inherit the bus handler contract: non-blocking, arbitrary calling
// context, no exclusivity with other subscribers.
func Watch(bus Bus, onSuspend func(), onResume func()) (*Monitor, error) {
	if onSuspend == nil || onResume == nil {
		return nil, errors.New("Watch: onSuspend and onResume are required")
	}

	reg, err := bus.Register(func(kind Kind) Result {
		switch kind {
		case KindPrepareSuspend, KindPrepareHibernate:
			onSuspend()
			return Handled
		case KindPostSuspend, KindPostHibernate:
			onResume()
			return Handled
		}

		return NotHandled
	})
	if err != nil {
		return nil, err
	}

	return &Monitor{reg: reg}, nil
}

// Close removes the monitor from the bus. After Close returns neither
// callback is invoked again.
func (m *Monitor) Close() error {
	return m.reg.Close()
}
