// Package gate guards state-changing actions behind a typed passphrase.
//
// A caller arms the gate with Confirm, the user types the phrase into Submit,
// and only a matching phrase runs the pending action. A successful action is
// followed by a short celebration before the gate settles back to Idle.
package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPhrase = "na capoeira"
	DefaultDwell  = 2500 * time.Millisecond
)

var ErrNotAwaiting = errors.New("gate: no action is waiting for confirmation")

type State int

const (
	Idle State = iota
	AwaitingPhrase
	Celebrating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPhrase:
		return "awaiting_phrase"
	case Celebrating:
		return "celebrating"
	}
	return "unknown"
}

// Action is the guarded operation.
type Action func(ctx context.Context) error

type Gate struct {
	phrase      string
	dwell       time.Duration
	onCelebrate func()
	log         *zap.Logger

	mu       sync.Mutex
	state    State
	pending  Action
	mismatch bool
	input    string
	// gen invalidates dwell timers scheduled before the latest transition.
	gen   uint64
	timer *time.Timer
}

type Option func(*Gate)

// WithPhrase replaces the secret phrase; it is compared trimmed and lowercased.
func WithPhrase(p string) Option {
	return func(g *Gate) { g.phrase = normalize(p) }
}

func WithDwell(d time.Duration) Option {
	return func(g *Gate) { g.dwell = d }
}

// WithOnCelebrate registers a hook fired after a confirmed action succeeds.
func WithOnCelebrate(fn func()) Option {
	return func(g *Gate) { g.onCelebrate = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) { g.log = l }
}

func New(opts ...Option) *Gate {
	g := &Gate{
		phrase: DefaultPhrase,
		dwell:  DefaultDwell,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Mismatch reports whether the last submitted phrase was wrong.
func (g *Gate) Mismatch() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mismatch
}

// Input is the last rejected input, kept so it can be shown back to the user.
func (g *Gate) Input() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.input
}

// stopTimerLocked cancels a pending dwell transition. Caller holds mu.
func (g *Gate) stopTimerLocked() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// Confirm arms the gate with action. A later Confirm replaces an earlier one.
func (g *Gate) Confirm(action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	g.state = AwaitingPhrase
	g.pending = action
	g.mismatch = false
	g.input = ""
}

// Cancel drops the pending action without running it.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != AwaitingPhrase {
		return
	}
	g.state = Idle
	g.pending = nil
	g.mismatch = false
	g.input = ""
}

// Submit checks input against the phrase. On a match the pending action runs
// on the caller's goroutine and its error, if any, is returned.
func (g *Gate) Submit(ctx context.Context, input string) error {
	g.mu.Lock()
	if g.state != AwaitingPhrase {
		g.mu.Unlock()
		return ErrNotAwaiting
	}
	if normalize(input) != g.phrase {
		g.mismatch = true
		g.input = input
		g.mu.Unlock()
		return nil
	}
	action := g.pending
	g.pending = nil
	g.mismatch = false
	g.input = ""
	g.state = Celebrating
	g.stopTimerLocked()
	gen := g.gen
	g.mu.Unlock()

	var err error
	if action != nil {
		err = action(ctx)
	}

	g.mu.Lock()
	if g.gen != gen {
		// re-armed while the action ran
		g.mu.Unlock()
		return err
	}
	if err != nil {
		g.state = Idle
		g.mu.Unlock()
		g.log.Debug("confirmed action failed", zap.Error(err))
		return err
	}
	g.timer = time.AfterFunc(g.dwell, func() { g.settle(gen) })
	hook := g.onCelebrate
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (g *Gate) settle(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return
	}
	g.state = Idle
	g.timer = nil
}

// Close stops a scheduled dwell transition and leaves the gate Idle.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	g.state = Idle
	g.pending = nil
}
