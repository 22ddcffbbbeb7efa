// Package modal coalesces repeated requests to open a shared modal into a
// single delayed open transition.
package modal

import (
	"sync"
	"time"
)

// State is the guard's position in its open cycle.
type State int

const (
	Closed State = iota
	Pending
	Open
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Pending:
		return "pending"
	case Open:
		return "open"
	}
	return "unknown"
}

const (
	DefaultDebounce     = 100 * time.Millisecond
	DefaultOpeningReset = 500 * time.Millisecond
)

// Option configures a Guard.
type Option func(*Guard)

// WithDelays overrides the debounce window and the opening reset delay.
// Non-positive values keep the defaults.
func WithDelays(debounce, openingReset time.Duration) Option {
	return func(g *Guard) {
		if debounce > 0 {
			g.debounce = debounce
		}
		if openingReset > 0 {
			g.openingReset = openingReset
		}
	}
}

// Guard is safe for concurrent use. Timers are tagged with the generation
// they were armed in; Close bumps the generation so a timer that already
// fired but has not yet taken the lock does nothing.
type Guard struct {
	debounce     time.Duration
	openingReset time.Duration

	mu       sync.Mutex
	state    State
	opening  bool
	gen      uint64
	timer    *time.Timer
	onChange func(open bool)
}

// New returns a closed guard with the default delays unless opts change them.
func New(opts ...Option) *Guard {
	g := &Guard{debounce: DefaultDebounce, openingReset: DefaultOpeningReset}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OnChange registers fn to receive every open/close transition. fn runs
// without the guard's lock held, possibly on a timer goroutine.
func (g *Guard) OnChange(fn func(open bool)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// State reports where the guard is in its open cycle.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Opening reports whether an open cycle is still in progress.
func (g *Guard) Opening() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opening
}

// Open requests the modal. It is a no-op while a request is pending or the
// modal is already open.
func (g *Guard) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Closed || g.opening {
		return
	}
	g.state = Pending
	g.opening = true
	g.gen++
	gen := g.gen
	g.timer = time.AfterFunc(g.debounce, func() { g.fire(gen) })
}

func (g *Guard) fire(gen uint64) {
	g.mu.Lock()
	if gen != g.gen || g.state != Pending {
		g.mu.Unlock()
		return
	}
	g.state = Open
	g.timer = time.AfterFunc(g.openingReset, func() { g.clearOpening(gen) })
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(true)
	}
}

func (g *Guard) clearOpening(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	g.opening = false
	g.timer = nil
}

// Close closes the modal at once and cancels any pending open.
func (g *Guard) Close() {
	g.mu.Lock()
	was := g.state
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.state = Closed
	g.opening = false
	fn := g.onChange
	g.mu.Unlock()

	if was == Open && fn != nil {
		fn(false)
	}
}
