//go:build !linux

package periodic

import "time"

// WallClockAlarms is a portable AlarmFacility over runtime timers. It
// keeps the absolute-expiry arithmetic but cannot wake the platform
// from sleep.
type WallClockAlarms struct{}

// NewPlatformAlarms returns the alarm facility for this platform.
func NewPlatformAlarms() AlarmFacility {
	return WallClockAlarms{}
}

// ArmAt implements AlarmFacility.
func (WallClockAlarms) ArmAt(at time.Time, fn func()) Alarm {
	return newRuntimeAlarm(at, fn)
}
