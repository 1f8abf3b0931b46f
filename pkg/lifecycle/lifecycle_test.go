package lifecycle_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wakekit/wakekit/pkg/lifecycle"
	"github.com/wakekit/wakekit/pkg/periodic"
	"github.com/wakekit/wakekit/pkg/pmbus"
	"github.com/wakekit/wakekit/pkg/presleep"
)

// recorder collects collaborator calls in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.list() {
		if e == event {
			n++
		}
	}
	return n
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type fakeHolds struct{ rec *recorder }

func (f fakeHolds) Acquire(who, why string) (io.Closer, error) {
	f.rec.add("hold acquire")
	return closerFunc(func() error {
		f.rec.add("hold release")
		return nil
	}), nil
}

// recordingBus wraps a Dispatcher so registration order is observable
// while events still flow through the real bus.
type recordingBus struct {
	rec *recorder
	bus *pmbus.Dispatcher
}

func (b recordingBus) Register(h pmbus.Handler) (pmbus.Registration, error) {
	reg, err := b.bus.Register(h)
	if err != nil {
		return nil, err
	}
	b.rec.add("bus register")
	return closerFunc(func() error {
		b.rec.add("bus unregister")
		return reg.Close()
	}), nil
}

type fakeHooks struct{ rec *recorder }

func (f fakeHooks) Register(h presleep.Hook) (io.Closer, error) {
	f.rec.add("hooks register")
	return closerFunc(func() error {
		f.rec.add("hooks unregister")
		return nil
	}), nil
}

type fakePool struct{ rec *recorder }

type inertCancel struct {
	rec  *recorder
	name string
}

func (c inertCancel) CancelAndWait() { c.rec.add(c.name) }
func (c inertCancel) DisarmAndWait() { c.rec.add(c.name) }
func (c inertCancel) Cancel() bool   { c.rec.add(c.name); return true }

func (f fakePool) ScheduleAfter(d time.Duration, fn func()) periodic.Pending {
	f.rec.add("work arm")
	return inertCancel{rec: f.rec, name: "work cancel"}
}

type fakeTimers struct{ rec *recorder }

func (f fakeTimers) ArmAfter(d time.Duration, fn func()) periodic.Armed {
	f.rec.add("timer arm")
	return inertCancel{rec: f.rec, name: "timer cancel"}
}

type fakeAlarms struct{ rec *recorder }

func (f fakeAlarms) ArmAt(at time.Time, fn func()) periodic.Alarm {
	f.rec.add("alarm arm")
	return inertCancel{rec: f.rec, name: "alarm cancel"}
}

// messageHandler records log messages so the coordinator's logical
// suspend/resume observations are countable.
type messageHandler struct {
	rec *recorder
}

func (h messageHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h messageHandler) Handle(_ context.Context, r slog.Record) error {
	h.rec.add("log: " + r.Message)
	return nil
}
func (h messageHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h messageHandler) WithGroup(string) slog.Handler      { return h }

func testConfig(rec *recorder) (lifecycle.Config, *pmbus.Dispatcher) {
	dispatcher := pmbus.NewDispatcher()
	return lifecycle.Config{
		Holds:  fakeHolds{rec: rec},
		Bus:    recordingBus{rec: rec, bus: dispatcher},
		Hooks:  fakeHooks{rec: rec},
		Pool:   fakePool{rec: rec},
		Timers: fakeTimers{rec: rec},
		Alarms: fakeAlarms{rec: rec},
		Log:    slog.New(messageHandler{rec: rec}),
	}, dispatcher
}

func assertSequence(t *testing.T, got []string, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events[%d]=%q want %q (full %v)", i, got[i], want[i], got)
		}
	}
}

func TestStopIsExactReverseOfStart(t *testing.T) {
	rec := &recorder{}
	cfg, _ := testConfig(rec)

	c, err := lifecycle.New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	assertSequence(t, rec.list(), []string{
		"hold acquire",
		"bus register",
		"hooks register",
		"work arm",
		"timer arm",
		"alarm arm",
	})

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	assertSequence(t, rec.list()[6:], []string{
		"alarm cancel",
		"timer cancel",
		"work cancel",
		"hooks unregister",
		"bus unregister",
		"hold release",
	})
}

func TestEndToEndSuspendCycle(t *testing.T) {
	rec := &recorder{}
	cfg, dispatcher := testConfig(rec)

	c, err := lifecycle.New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	if handled := dispatcher.Publish(pmbus.KindPrepareSuspend); handled != 1 {
		t.Fatalf("PrepareSuspend handled=%d want 1", handled)
	}
	if got := rec.count("log: system suspend"); got != 1 {
		t.Fatalf("suspend observations=%d want 1", got)
	}

	if handled := dispatcher.Publish(pmbus.KindPostSuspend); handled != 1 {
		t.Fatalf("PostSuspend handled=%d want 1", handled)
	}
	if got := rec.count("log: system resume"); got != 1 {
		t.Fatalf("resume observations=%d want 1", got)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if got := rec.count("hold release"); got != 1 {
		t.Fatalf("hold releases=%d want 1", got)
	}

	// The hold release must come after every periodic stop.
	events := rec.list()
	release := -1
	for i, e := range events {
		if e == "hold release" {
			release = i
		}
	}
	for _, cancel := range []string{"alarm cancel", "timer cancel", "work cancel"} {
		for i, e := range events {
			if e == cancel && i > release {
				t.Fatalf("%q at %d happened after hold release at %d", cancel, i, release)
			}
		}
	}
}

func TestFeatureSubsetSkipsDisabledSubsystems(t *testing.T) {
	rec := &recorder{}
	cfg, _ := testConfig(rec)
	cfg.Features = lifecycle.FeatureWakeHold | lifecycle.FeatureCooperative

	c, err := lifecycle.New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	assertSequence(t, rec.list(), []string{
		"hold acquire",
		"work arm",
		"work cancel",
		"hold release",
	})
}

func TestNewValidatesEnabledCollaborators(t *testing.T) {
	if _, err := lifecycle.New(lifecycle.Config{Features: lifecycle.FeatureWakeHold}); err == nil {
		t.Fatal("expected error for missing hold source")
	}
	if _, err := lifecycle.New(lifecycle.Config{Features: lifecycle.FeatureWakeAlarm}); err == nil {
		t.Fatal("expected error for missing alarm facility")
	}
}

func TestStartStopStateMachine(t *testing.T) {
	rec := &recorder{}
	cfg, _ := testConfig(rec)

	c, err := lifecycle.New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := c.Stop(); err != lifecycle.ErrInactive {
		t.Fatalf("Stop while inactive=%v want ErrInactive", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := c.Start(); err != lifecycle.ErrActive {
		t.Fatalf("second Start=%v want ErrActive", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	// The coordinator is restartable once stopped.
	if err := c.Start(); err != nil {
		t.Fatalf("restart error: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}
}
