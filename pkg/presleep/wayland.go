package presleep

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MatthiasKunnen/go-wayland/wayland/client"
	idleNotify "github.com/MatthiasKunnen/go-wayland/wayland/staging/ext-idle-notify-v1"
)

// WaylandWatcher drives a Chain from the compositor's view of display
// power. Once the session has been idle for blankAfter, the chain
// suspends; on user activity it resumes. Hooks run on the watcher's
// dispatch goroutine, which keeps the suspend/resume passes ordered.
type WaylandWatcher struct {
	chain        *Chain
	close        chan struct{}
	display      *client.Display
	registry     *client.Registry
	seat         *client.Seat
	notifier     *idleNotify.IdleNotifier
	notification *idleNotify.IdleNotification
}

// NewWaylandWatcher connects to the Wayland server and starts watching.
// It fails when the compositor does not support ext-idle-notify.
func NewWaylandWatcher(chain *Chain, blankAfter time.Duration) (*WaylandWatcher, error) {
	durationMs := blankAfter.Milliseconds()
	switch {
	case durationMs > math.MaxUint32:
		return nil, fmt.Errorf("blankAfter too large, %d > %d", durationMs, math.MaxUint32)
	case durationMs < 0:
		durationMs = 0
	}

	w := &WaylandWatcher{
		chain: chain,
		close: make(chan struct{}),
	}

	var err error
	w.display, err = client.Connect("")
	if err != nil {
		return nil, fmt.Errorf("error connecting to Wayland server: %w", err)
	}

	w.registry, err = w.display.GetRegistry()
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("error getting Wayland registry: %w", err),
			w.Close(),
		)
	}

	var globalHandlerError error
	w.registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		switch e.Interface {
		case idleNotify.IdleNotifierInterfaceName:
			w.notifier = idleNotify.NewIdleNotifier(w.display.Context())
			err := w.registry.Bind(e.Name, e.Interface, e.Version, w.notifier)
			if err != nil {
				globalHandlerError = errors.Join(
					globalHandlerError,
					fmt.Errorf("unable to bind %s interface: %v", idleNotify.IdleNotifierInterfaceName, err),
				)
			}
		case client.SeatInterfaceName:
			seat := client.NewSeat(w.display.Context())
			err := w.registry.Bind(e.Name, e.Interface, e.Version, seat)
			if err != nil {
				globalHandlerError = errors.Join(
					globalHandlerError,
					fmt.Errorf("unable to bind %s interface: %v", client.SeatInterfaceName, err),
				)
			}
			w.seat = seat
		}
	})

	for i := 0; i < 2; i++ {
		// Two roundtrips: the first announces the globals, the second
		// flushes the binds done in the global handler.
		if err := w.display.Roundtrip(); err != nil {
			return nil, errors.Join(
				fmt.Errorf("failed roundtrip %d: %w", i+1, err),
				w.Close(),
			)
		}
		if globalHandlerError != nil {
			return nil, errors.Join(
				fmt.Errorf("error in registry GlobalHandler after roundtrip %d: %w", i+1, globalHandlerError),
				w.Close(),
			)
		}
	}

	if w.notifier == nil {
		return nil, errors.Join(
			errors.New("no notifier was set, ext-idle-notify might not be supported"),
			w.Close(),
		)
	}

	w.notification, err = w.notifier.GetIdleNotification(uint32(durationMs), w.seat)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("unable to get idle notification: %w", err),
			w.Close(),
		)
	}

	w.notification.SetIdledHandler(func(event idleNotify.IdleNotificationIdledEvent) {
		w.chain.Suspend()
	})
	w.notification.SetResumedHandler(func(event idleNotify.IdleNotificationResumedEvent) {
		w.chain.Resume()
	})

	go w.dispatch()

	return w, nil
}

// dispatch executes the Wayland event loop. All Wayland interactions
// happen on this goroutine; the protocol is not safe across
// goroutines.
func (w *WaylandWatcher) dispatch() {
	for {
		select {
		case <-w.close:
			return
		default:
		}

		if err := w.display.Context().GetDispatch()(); err != nil {
			// Closing the connection surfaces here, ending the loop.
			return
		}
	}
}

// Close stops watching and tears the Wayland connection down. The
// chain itself is left untouched.
func (w *WaylandWatcher) Close() error {
	var totalError error

	close(w.close)

	if w.notification != nil {
		if err := w.notification.Destroy(); err != nil {
			totalError = errors.Join(totalError, fmt.Errorf("failed to destroy idle notification: %w", err))
		}
	}

	if w.seat != nil {
		if err := w.seat.Release(); err != nil {
			totalError = errors.Join(totalError, fmt.Errorf("error releasing seat: %w", err))
		}
	}

	if w.notifier != nil {
		if err := w.notifier.Destroy(); err != nil {
			totalError = errors.Join(totalError, fmt.Errorf(
				"unable to destroy %s: %w",
				idleNotify.IdleNotifierInterfaceName,
				err,
			))
		}
	}

	if w.display != nil {
		if err := w.display.Destroy(); err != nil {
			totalError = errors.Join(totalError, fmt.Errorf("error destroying display: %w", err))
		}

		if err := w.display.Context().Close(); err != nil {
			totalError = errors.Join(totalError, fmt.Errorf("error closing wayland connection: %w", err))
		}
	}

	return totalError
}
