package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wakekit/wakekit/pkg/hold"
	"github.com/wakekit/wakekit/pkg/periodic"
	"github.com/wakekit/wakekit/pkg/pmbus"
	"github.com/wakekit/wakekit/pkg/presleep"
)

// Feature selects which subsystems the coordinator drives. The active
// set is composed at configuration time; there are no other toggles.
type Feature uint

const (
	// FeatureWakeHold holds a wake hold across the active lifetime.
	FeatureWakeHold Feature = 1 << iota

	// FeatureSleepBus observes the global suspend/resume bus.
	FeatureSleepBus

	// FeaturePreSleepHooks registers the display pre-sleep hook pair.
	FeaturePreSleepHooks

	// FeatureCooperative runs the worker-pool periodic task.
	FeatureCooperative

	// FeatureTimer runs the timer-context periodic task.
	FeatureTimer

	// FeatureWakeAlarm runs the wake-capable alarm task.
	FeatureWakeAlarm

	// FeatureAll enables every subsystem.
	FeatureAll = FeatureWakeHold | FeatureSleepBus | FeaturePreSleepHooks |
		FeatureCooperative | FeatureTimer | FeatureWakeAlarm
)

// Has reports whether every feature in want is enabled.
func (f Feature) Has(want Feature) bool {
	return f&want == want
}

// HookRegistrar registers the coordinator's hook pair into an ordered
// pre-sleep chain. *presleep.Chain implements it.
type HookRegistrar interface {
	Register(h presleep.Hook) (io.Closer, error)
}

// Config supplies the platform collaborators the coordinator drives.
// Only the collaborators of enabled features are required.
type Config struct {
	// Holds creates the wake hold.
	Holds hold.Source

	// Bus is the global suspend/resume event bus.
	Bus pmbus.Bus

	// Hooks is the ordered pre-sleep hook chain.
	Hooks HookRegistrar

	// Pool runs the cooperative periodic task.
	Pool periodic.Pool

	// Timers runs the timer-context periodic task.
	Timers periodic.TimerFacility

	// Alarms runs the wake-capable alarm task.
	Alarms periodic.AlarmFacility

	// Features is the active subsystem set. Zero means FeatureAll.
	Features Feature

	// Log receives the observability output. Nil means slog.Default.
	Log *slog.Logger
}

var (
	// ErrActive is returned by Start on an already active coordinator.
	ErrActive = errors.New("lifecycle: coordinator already active")

	// ErrInactive is returned by Stop on an inactive coordinator.
	ErrInactive = errors.New("lifecycle: coordinator not active")
)

// Coordinator owns the module lifecycle. It is inactive until Start
// and returns to inactive through Stop.
//
// It is safe to call Coordinator's methods concurrently, but not from
// any of the callbacks it drives.
type Coordinator struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	active bool

	hold    io.Closer
	monitor *pmbus.Monitor
	hookReg io.Closer
	work    *periodic.Cooperative
	ticker  *periodic.Ticker
	alarm   *periodic.WakeAlarm
}

// New validates that every enabled feature has its collaborator and
// returns an inactive coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Features == 0 {
		cfg.Features = FeatureAll
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	f := cfg.Features
	switch {
	case f.Has(FeatureWakeHold) && cfg.Holds == nil:
		return nil, errors.New("lifecycle: FeatureWakeHold requires a hold source")
	case f.Has(FeatureSleepBus) && cfg.Bus == nil:
		return nil, errors.New("lifecycle: FeatureSleepBus requires a bus")
	case f.Has(FeaturePreSleepHooks) && cfg.Hooks == nil:
		return nil, errors.New("lifecycle: FeaturePreSleepHooks requires a hook registrar")
	case f.Has(FeatureCooperative) && cfg.Pool == nil:
		return nil, errors.New("lifecycle: FeatureCooperative requires a pool")
	case f.Has(FeatureTimer) && cfg.Timers == nil:
		return nil, errors.New("lifecycle: FeatureTimer requires a timer facility")
	case f.Has(FeatureWakeAlarm) && cfg.Alarms == nil:
		return nil, errors.New("lifecycle: FeatureWakeAlarm requires an alarm facility")
	}

	return &Coordinator{
		cfg: cfg,
		log: cfg.Log,
	}, nil
}

// Start brings the coordinator to the active state: it acquires the
// wake hold, registers the bus monitor and the pre-sleep hook pair,
// then starts the cooperative task, the timer task and the wake alarm,
// in that order. The wake hold comes first so the platform stays
// observable while everything else arms.
//
// The collaborators are modeled as non-failing under correct usage;
// on the first error Start returns without rolling back the steps
// already taken.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return ErrActive
	}

	f := c.cfg.Features

	if f.Has(FeatureWakeHold) {
		h, err := c.cfg.Holds.Acquire("wakekit", "observing sleep/wake lifecycle")
		if err != nil {
			return fmt.Errorf("failed to acquire wake hold: %w", err)
		}
		c.hold = h
	}

	if f.Has(FeatureSleepBus) {
		m, err := pmbus.Watch(c.cfg.Bus, c.onSuspend, c.onResume)
		if err != nil {
			return fmt.Errorf("failed to watch suspend/resume bus: %w", err)
		}
		c.monitor = m
	}

	if f.Has(FeaturePreSleepHooks) {
		reg, err := c.cfg.Hooks.Register(presleep.Hook{
			Level:     presleep.LevelDisableFramebuffer,
			OnSuspend: c.onDisplaySuspend,
			OnResume:  c.onDisplayResume,
		})
		if err != nil {
			return fmt.Errorf("failed to register pre-sleep hooks: %w", err)
		}
		c.hookReg = reg
	}

	if f.Has(FeatureCooperative) {
		c.work = periodic.NewCooperative(c.cfg.Pool, 0, c.log)
		c.work.Start()
	}

	if f.Has(FeatureTimer) {
		c.ticker = periodic.NewTicker(c.cfg.Timers, 0, c.log)
		c.ticker.Start()
	}

	if f.Has(FeatureWakeAlarm) {
		c.alarm = periodic.NewWakeAlarm(c.cfg.Alarms, 0, c.log)
		c.alarm.Start()
	}

	c.active = true

	return nil
}

// Stop quiesces everything in the exact reverse of Start's order. The
// reverse order is a contract, not a convenience: the wake hold is
// released only after every component that still logs activity, and
// thereby relies on the platform staying awake, has stopped.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return ErrInactive
	}

	var err error

	if c.alarm != nil {
		c.alarm.Stop()
		c.alarm = nil
	}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.work != nil {
		c.work.Stop()
		c.work = nil
	}
	if c.hookReg != nil {
		err = errors.Join(err, c.hookReg.Close())
		c.hookReg = nil
	}
	if c.monitor != nil {
		err = errors.Join(err, c.monitor.Close())
		c.monitor = nil
	}
	if c.hold != nil {
		err = errors.Join(err, c.hold.Close())
		c.hold = nil
	}

	c.active = false

	return err
}

func (c *Coordinator) onSuspend() {
	c.log.Info("system suspend", "unix", time.Now().Unix())
}

func (c *Coordinator) onResume() {
	c.log.Info("system resume", "unix", time.Now().Unix())
}

func (c *Coordinator) onDisplaySuspend() {
	c.log.Info("display suspend")
}

func (c *Coordinator) onDisplayResume() {
	c.log.Info("display resume")
}
