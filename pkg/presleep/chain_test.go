package presleep_test

import (
	"testing"

	"github.com/wakekit/wakekit/pkg/presleep"
)

// record builds a Hook that appends level-tagged markers to order.
func record(order *[]string, name string) presleep.Hook {
	return presleep.Hook{
		OnSuspend: func() { *order = append(*order, name+" suspend") },
		OnResume:  func() { *order = append(*order, name+" resume") },
	}
}

func TestSuspendAscendingResumeDescending(t *testing.T) {
	c := presleep.NewChain()

	var order []string

	high := record(&order, "fb")
	high.Level = presleep.LevelDisableFramebuffer
	low := record(&order, "blank")
	low.Level = presleep.LevelBlankScreen

	// Registered high level first; order must follow levels, not
	// registration.
	if _, err := c.Register(high); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if _, err := c.Register(low); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	c.Suspend()
	c.Resume()

	want := []string{"blank suspend", "fb suspend", "fb resume", "blank resume"}
	if len(order) != len(want) {
		t.Fatalf("order=%v want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d]=%q want %q (full order %v)", i, order[i], want[i], order)
		}
	}
}

func TestSameLevelKeepsRegistrationOrder(t *testing.T) {
	c := presleep.NewChain()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		h := record(&order, name)
		h.Level = presleep.LevelDisableFramebuffer
		if _, err := c.Register(h); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	c.Suspend()

	want := []string{"first suspend", "second suspend", "third suspend"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d]=%q want %q", i, order[i], want[i])
		}
	}
}

func TestCloseRemovesHookPair(t *testing.T) {
	c := presleep.NewChain()

	var order []string
	h := record(&order, "fb")
	h.Level = presleep.LevelDisableFramebuffer

	reg, err := c.Register(h)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	c.Suspend()
	if err := reg.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	c.Suspend()
	c.Resume()

	if len(order) != 1 || order[0] != "fb suspend" {
		t.Fatalf("order=%v want [fb suspend]", order)
	}

	// Closing again is a no-op.
	if err := reg.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestRegisterRequiresACallback(t *testing.T) {
	c := presleep.NewChain()
	if _, err := c.Register(presleep.Hook{Level: presleep.LevelBlankScreen}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOneSidedHooksAreSkippedOnTheOtherPass(t *testing.T) {
	c := presleep.NewChain()

	var order []string
	if _, err := c.Register(presleep.Hook{
		Level:     presleep.LevelBlankScreen,
		OnSuspend: func() { order = append(order, "suspend only") },
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	c.Suspend()
	c.Resume()

	if len(order) != 1 || order[0] != "suspend only" {
		t.Fatalf("order=%v want [suspend only]", order)
	}
}
