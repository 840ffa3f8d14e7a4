package feedback

import (
	"fmt"
	"io"
	"sync"
)

// Terminal rings the terminal bell for sound cues. Flash is not supported
// by terminals and is accepted silently.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) EmitCountdownTick() error { return t.bell(1) }

func (t *Terminal) EmitPhaseTransition() error { return t.bell(2) }

func (t *Terminal) SetFlashEnabled(bool) error { return nil }

func (t *Terminal) TurnOffFlash() error { return nil }

func (t *Terminal) bell(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprint(t.w, "\a"); err != nil {
			return fmt.Errorf("writing bell: %w", err)
		}
	}
	return nil
}
