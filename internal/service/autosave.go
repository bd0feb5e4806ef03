package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"

	"studio/internal/scene"
)

// EventAutosave reports autosave progress to the frontend.
const EventAutosave = "autosave:state"

// AutosaveState is the payload of EventAutosave.
type AutosaveState struct {
	Saving bool   `json:"saving"`
	Error  string `json:"error,omitempty"`
}

// ─────────────────────────────────────────────────────────────
// Autosaver: debounced save after scene mutations
// ─────────────────────────────────────────────────────────────

// Autosaver runs save once edits have been quiet for the configured delay.
// Saves never overlap: a fire while one is running schedules exactly one
// follow-up, run as soon as the current save returns, and SaveNow queues
// behind whichever save holds the document.
type Autosaver struct {
	ctx     context.Context
	save    func(ctx context.Context) error
	emitter EventEmitter
	trigger func(f func())

	// saving is held for the duration of every save call.
	saving sync.Mutex

	mu      sync.Mutex
	running bool
	again   bool
	pending bool
	stopped bool
	done    chan struct{} // closed when the current save loop exits
}

// NewAutosaver creates an Autosaver. emitter may be nil.
func NewAutosaver(ctx context.Context, delay time.Duration, save func(ctx context.Context) error, emitter EventEmitter) *Autosaver {
	return &Autosaver{
		ctx:     ctx,
		save:    save,
		emitter: emitter,
		trigger: debounce.New(delay),
	}
}

// Touch (re)starts the debounce timer.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	stopped := a.stopped
	a.pending = !stopped
	a.mu.Unlock()
	if stopped {
		return
	}
	a.trigger(a.fire)
}

// Listener returns a scene listener that touches the autosaver on
// add/remove/modify events.
func (a *Autosaver) Listener() scene.Listener {
	return func(ev scene.Event) {
		if ev.Mutation() {
			a.Touch()
		}
	}
}

// Stop cancels the pending timer. A save already running completes; use
// Wait to block on it.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
	a.Cancel()
}

// Cancel drops a pending save and any queued follow-up. Later touches
// schedule saves again.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	a.pending = false
	a.again = false
	a.mu.Unlock()
	// Replace the pending callback; the timer then fires a no-op.
	a.trigger(func() {})
}

// Flush runs a pending save now instead of when the timer fires. Use Wait
// to block until it is done.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()
	if !pending {
		return
	}
	a.trigger(func() {})
	a.fire()
}

// SaveNow saves immediately and returns the result. The pending timer and
// any queued follow-up are dropped since this save covers them. A save
// already running finishes first.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	a.mu.Lock()
	a.pending = false
	a.again = false
	a.mu.Unlock()
	a.trigger(func() {})

	a.saving.Lock()
	defer a.saving.Unlock()
	return a.saveOnce(ctx)
}

// Wait blocks until a running save returns or ctx is done.
func (a *Autosaver) Wait(ctx context.Context) {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Saving reports whether a save is in progress.
func (a *Autosaver) Saving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	a.pending = false
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.running {
		a.again = true
		a.mu.Unlock()
		return
	}
	a.running = true
	done := make(chan struct{})
	a.done = done
	a.mu.Unlock()

	go a.run(done)
}

func (a *Autosaver) run(done chan struct{}) {
	defer close(done)
	for {
		a.saving.Lock()
		a.saveOnce(a.ctx)
		a.saving.Unlock()

		a.mu.Lock()
		if !a.again || a.stopped {
			a.running = false
			a.again = false
			a.mu.Unlock()
			return
		}
		a.again = false
		a.mu.Unlock()
	}
}

// saveOnce runs save with progress events. The caller holds a.saving.
func (a *Autosaver) saveOnce(ctx context.Context) error {
	a.emit(AutosaveState{Saving: true})
	err := a.save(ctx)
	state := AutosaveState{}
	if err != nil && !errors.Is(err, ErrNotSignedIn) {
		log.Printf("[autosave] %v", err)
		state.Error = err.Error()
	}
	a.emit(state)
	return err
}

func (a *Autosaver) emit(state AutosaveState) {
	if a.emitter != nil {
		a.emitter.Emit(a.ctx, EventAutosave, state)
	}
}
