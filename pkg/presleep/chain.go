package presleep

import (
	"errors"
	"io"
	"sort"
	"sync"
)

// Level orders hooks within the chain. Each level corresponds to a
// stage of the display power pipeline.
type Level int

const (
	// LevelBlankScreen hooks turn the screen off on suspend while the
	// framebuffer stays accessible, and turn it back on on resume.
	LevelBlankScreen Level = 50

	// LevelDisableFramebuffer hooks power the framebuffer itself down
	// on suspend and bring it back up on resume.
	LevelDisableFramebuffer Level = 100

	// LevelStopDrawing hooks tell clients to stop accessing the
	// framebuffer on suspend and to resume access afterwards.
	LevelStopDrawing Level = 150
)

// Hook is a pair of callbacks registered at one pipeline stage.
// At least one of the callbacks must be set. The callbacks run on the
// goroutine that triggers the transition and must not block.
type Hook struct {
	Level     Level
	OnSuspend func()
	OnResume  func()
}

type entry struct {
	hook Hook
	seq  uint64
}

// Chain is the ordered hook registry. Suspend walks the registered
// hooks in ascending level order, Resume in descending order; hooks at
// the same level keep their registration order.
//
// It is safe to call Chain's methods concurrently.
type Chain struct {
	mu      sync.Mutex
	entries []*entry
	seq     uint64
}

// NewChain creates an empty Chain.
func NewChain() *Chain {
	return &Chain{}
}

// Register inserts the hook pair into the chain and returns its
// registration. Closing the registration removes the pair; once Close
// returns neither callback fires again.
func (c *Chain) Register(h Hook) (io.Closer, error) {
	if h.OnSuspend == nil && h.OnResume == nil {
		return nil, errors.New("Register: either OnSuspend or OnResume is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	e := &entry{hook: h, seq: c.seq}

	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].hook.Level > h.Level
	})
	c.entries = append(c.entries, nil)
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e

	return &Registration{chain: c, entry: e}, nil
}

// Suspend fires every registered suspend hook once, lowest level first.
func (c *Chain) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.hook.OnSuspend != nil {
			e.hook.OnSuspend()
		}
	}
}

// Resume fires every registered resume hook once, highest level first.
func (c *Chain) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.entries) - 1; i >= 0; i-- {
		if e := c.entries[i]; e.hook.OnResume != nil {
			e.hook.OnResume()
		}
	}
}

// Registration is an active hook pair in a Chain.
type Registration struct {
	chain *Chain
	entry *entry
}

// Close removes the hook pair from the chain. Safe to call more than
// once.
func (r *Registration) Close() error {
	c := r.chain

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e == r.entry {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}

	return nil
}
