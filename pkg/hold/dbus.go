package hold

import (
	"fmt"
	"io"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusPath             = "/org/freedesktop/login1"
)

// DbusSource acquires sleep inhibitor locks from systemd-logind.
type DbusSource struct {
	login1 dbus.BusObject
}

// NewDbusSource connects to the system bus and returns a Source backed
// by logind's Inhibit call.
func NewDbusSource() (*DbusSource, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	return &DbusSource{
		login1: conn.Object(dbusDest, dbusPath),
	}, nil
}

// Acquire takes a block-mode "sleep" inhibitor lock. logind holds the
// platform awake until the returned file descriptor is closed.
func (s *DbusSource) Acquire(who string, why string) (io.Closer, error) {
	var fd dbus.UnixFD

	err := s.login1.
		Call(dbusManagerInterface+".Inhibit", 0, "sleep", who, why, "block").
		Store(&fd)
	if err != nil {
		return nil, fmt.Errorf("failed to take sleep inhibitor lock: %w", err)
	}

	return os.NewFile(uintptr(fd), "wakehold:"+who), nil
}
