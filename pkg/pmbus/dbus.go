package pmbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusPath             = "/org/freedesktop/login1"
)

// DbusSource feeds a Dispatcher from systemd-logind's PrepareForSleep
// signal. logind reports hibernation on the same signal, so both
// flavours arrive as the ordinary suspend kinds.
type DbusSource struct {
	conn               *dbus.Conn
	login1             dbus.BusObject
	dispatcher         *Dispatcher
	closeSignalHandler chan struct{}
}

// NewDbusSource connects to the system bus and starts publishing sleep
// transitions into dispatcher.
func NewDbusSource(dispatcher *Dispatcher) (*DbusSource, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	s := &DbusSource{
		conn:               conn,
		login1:             conn.Object(dbusDest, dbusPath),
		dispatcher:         dispatcher,
		closeSignalHandler: make(chan struct{}),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(s.login1.Path()),
		dbus.WithMatchInterface(dbusManagerInterface),
		dbus.WithMatchSender(dbusDest),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return nil, fmt.Errorf("failed to register Dbus PrepareForSleep signal: %w", err)
	}

	c := make(chan *dbus.Signal)
	conn.Signal(c)
	go func() {
		for {
			select {
			case <-s.closeSignalHandler:
				conn.RemoveSignal(c)
				return
			case v := <-c:
				s.handleIncomingSignal(v)
			}
		}
	}()

	return s, nil
}

func (s *DbusSource) handleIncomingSignal(sig *dbus.Signal) {
	if sig == nil {
		// Seems to happen on close
		return
	}

	if sig.Path != s.login1.Path() || sig.Name != dbusManagerInterface+".PrepareForSleep" {
		return
	}

	start, ok := sig.Body[0].(bool)
	if !ok {
		panic("org.freedesktop.login1.Manager.PrepareForSleep signal, body[0] is not a boolean")
	}

	if start {
		s.dispatcher.Publish(KindPrepareSuspend)
	} else {
		s.dispatcher.Publish(KindPostSuspend)
	}
}

// Close permanently stops publishing. Discard the source afterward.
func (s *DbusSource) Close() error {
	close(s.closeSignalHandler)

	if err := s.conn.RemoveMatchSignal(
		dbus.WithMatchObjectPath(s.login1.Path()),
		dbus.WithMatchInterface(dbusManagerInterface),
		dbus.WithMatchSender(dbusDest),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("failed to remove Dbus PrepareForSleep signal: %w", err)
	}

	return nil
}
