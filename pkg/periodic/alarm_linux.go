//go:build linux

package periodic

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// RTCAlarms arms wake-capable alarms backed by a timerfd on
// CLOCK_REALTIME_ALARM: the kernel wakes the platform from suspend
// when the alarm expires. Creating a CLOCK_REALTIME_ALARM timerfd
// requires CAP_WAKE_ALARM; without it the facility degrades to
// CLOCK_REALTIME, which keeps the absolute-expiry semantics but
// cannot wake the platform.
type RTCAlarms struct{}

// NewPlatformAlarms returns the wake-capable alarm facility for this
// platform.
func NewPlatformAlarms() AlarmFacility {
	return RTCAlarms{}
}

// ArmAt implements AlarmFacility.
func (RTCAlarms) ArmAt(at time.Time, fn func()) Alarm {
	timerFd, err := unix.TimerfdCreate(unix.CLOCK_REALTIME_ALARM, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		timerFd, err = unix.TimerfdCreate(unix.CLOCK_REALTIME, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	}
	if err != nil {
		return newRuntimeAlarm(at, fn)
	}

	cancelFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(timerFd)
		return newRuntimeAlarm(at, fn)
	}

	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(at.UnixNano()),
	}
	if err := unix.TimerfdSettime(timerFd, unix.TFD_TIMER_ABSTIME, &spec, nil); err != nil {
		unix.Close(timerFd)
		unix.Close(cancelFd)
		return newRuntimeAlarm(at, fn)
	}

	a := &rtcAlarm{
		fn:       fn,
		timerFd:  timerFd,
		cancelFd: cancelFd,
	}
	go a.wait()

	return a
}

type rtcAlarm struct {
	fn       func()
	timerFd  int
	cancelFd int

	mu    sync.Mutex
	state int // armedWaiting, armedFired or armedCancelled
}

func (a *rtcAlarm) wait() {
	defer func() {
		unix.Close(a.timerFd)
		unix.Close(a.cancelFd)
	}()

	fds := []unix.PollFd{
		{Fd: int32(a.timerFd), Events: unix.POLLIN},
		{Fd: int32(a.cancelFd), Events: unix.POLLIN},
	}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		break
	}

	a.mu.Lock()
	if a.state != armedWaiting || fds[0].Revents&unix.POLLIN == 0 {
		a.mu.Unlock()
		return
	}
	a.state = armedFired
	a.mu.Unlock()

	a.fn()
}

// Cancel implements Alarm.
func (a *rtcAlarm) Cancel() bool {
	a.mu.Lock()
	if a.state != armedWaiting {
		a.mu.Unlock()
		return false
	}
	a.state = armedCancelled
	a.mu.Unlock()

	// Any nonzero eventfd counter increment unblocks the poll.
	wake := [8]byte{1}
	unix.Write(a.cancelFd, wake[:])

	return true
}
