// Package feedback defines the audio/flash/haptic cue port used by the
// workout runners. Cues are fire-and-forget: a failing device never blocks
// a run.
package feedback

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Port emits cues at phase boundaries.
type Port interface {
	EmitCountdownTick() error
	EmitPhaseTransition() error
	SetFlashEnabled(enabled bool) error
	TurnOffFlash() error
}

// Options selects which cue channels are active.
type Options struct {
	Sound bool
	Flash bool
}

// Nop discards every cue.
type Nop struct{}

func (Nop) EmitCountdownTick() error   { return nil }
func (Nop) EmitPhaseTransition() error { return nil }
func (Nop) SetFlashEnabled(bool) error { return nil }
func (Nop) TurnOffFlash() error        { return nil }

// Emitter wraps a Port so that callers never see its failures. Errors and
// panics are logged at Warn and swallowed.
type Emitter struct {
	port Port
	opts Options
	log  *slog.Logger
}

// NewEmitter returns an Emitter for port. A nil port behaves like Nop.
func NewEmitter(port Port, opts Options, log *slog.Logger) *Emitter {
	if port == nil {
		port = Nop{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Emitter{port: port, opts: opts, log: log}
}

// CountdownTick fires the short countdown cue.
func (e *Emitter) CountdownTick() {
	if e.opts.Sound {
		e.call("countdown_tick", e.port.EmitCountdownTick)
	}
}

// PhaseTransition fires the phase start/end cue.
func (e *Emitter) PhaseTransition() {
	if e.opts.Sound {
		e.call("phase_transition", e.port.EmitPhaseTransition)
	}
}

// Setup applies the flash preference at the start of a run.
func (e *Emitter) Setup() {
	e.call("set_flash", func() error { return e.port.SetFlashEnabled(e.opts.Flash) })
}

// Teardown turns the flash off. It is safe to call more than once.
func (e *Emitter) Teardown() {
	e.call("flash_off", e.port.TurnOffFlash)
}

func (e *Emitter) call(cue string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("feedback cue panicked", "cue", cue, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		e.log.Warn("feedback cue failed", "cue", cue, "error", err)
	}
}

// Cue names recorded by Recorder.
const (
	CueCountdownTick   = "countdown_tick"
	CuePhaseTransition = "phase_transition"
	CueFlashOn         = "flash_on"
	CueFlashOff        = "flash_off"
)

// Recorder is a Port that remembers every cue it received.
type Recorder struct {
	mu   sync.Mutex
	cues []string
	Err  error
}

func (r *Recorder) add(cue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	return r.Err
}

func (r *Recorder) EmitCountdownTick() error   { return r.add(CueCountdownTick) }
func (r *Recorder) EmitPhaseTransition() error { return r.add(CuePhaseTransition) }
func (r *Recorder) TurnOffFlash() error        { return r.add(CueFlashOff) }

func (r *Recorder) SetFlashEnabled(enabled bool) error {
	if enabled {
		return r.add(CueFlashOn)
	}
	return r.add(CueFlashOff)
}

// Cues returns a copy of the recorded cues.
func (r *Recorder) Cues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cues...)
}

// Count returns how many times cue was recorded.
func (r *Recorder) Count(cue string) int {
	n := 0
	for _, c := range r.Cues() {
		if c == cue {
			n++
		}
	}
	return n
}
