package pmbus

import "io"

// Kind identifies a sleep transition event on the bus.
type Kind int

const (
	// KindPrepareSuspend announces that an ordinary suspend is about
	// to happen.
	KindPrepareSuspend Kind = iota + 1

	// KindPrepareHibernate announces that a hibernation-style suspend
	// is about to happen.
	KindPrepareHibernate

	// KindPostSuspend announces that the platform is back from an
	// ordinary suspend.
	KindPostSuspend

	// KindPostHibernate announces that the platform is back from a
	// hibernation-style suspend.
	KindPostHibernate
)

// String returns the event kind's bus name.
func (k Kind) String() string {
	switch k {
	case KindPrepareSuspend:
		return "PREPARE_SUSPEND"
	case KindPrepareHibernate:
		return "PREPARE_HIBERNATE"
	case KindPostSuspend:
		return "POST_SUSPEND"
	case KindPostHibernate:
		return "POST_HIBERNATE"
	default:
		return "UNKNOWN"
	}
}

// Result is a handler's report back to the bus.
type Result int

const (
	// NotHandled tells the bus the handler ignored the event.
	NotHandled Result = iota

	// Handled tells the bus the handler acted on the event.
	Handled
)

// Handler observes bus events. Handlers must be non-blocking and must
// not attempt to delay or veto the transition; the bus may invoke them
// from an arbitrary context.
type Handler func(Kind) Result

// Bus registers handlers against the suspend/resume event stream.
type Bus interface {

	// Register binds handler to the bus. The handler observes no
	// events before Register returns and none after the returned
	// registration is closed.
	Register(handler Handler) (Registration, error)
}

// Registration is an active handler binding. Closing it removes the
// handler; after Close returns the handler is never invoked again.
type Registration interface {
	io.Closer
}
