package interval

import (
	"testing"

	"github.com/claude/calilog/internal/models"
)

// TestAfterWork covers every branch taken when a work phase expires.
func TestAfterWork(t *testing.T) {
	noRests := models.IntervalProgram{WorkSeconds: 30, Rounds: 3}

	tests := []struct {
		name         string
		program      models.IntervalProgram
		count        int
		round, index int
		want         Phase
	}{
		{"last exercise of first round goes to round rest", circuit, 2, 1, 1, RoundRest(1)},
		{"last exercise of last round completes", circuit, 2, 2, 1, Complete(2, 2, true)},
		{"mid round rests", circuit, 2, 1, 0, Rest(1, 0)},
		{"no rest goes to next exercise", noRests, 3, 2, 0, Work(2, 1)},
		{"no round rest goes to next round", noRests, 3, 1, 2, Work(2, 0)},
		{"single exercise single round", models.IntervalProgram{WorkSeconds: 10, Rounds: 1}, 1, 1, 0, Complete(1, 1, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AfterWork(tt.program, tt.count, tt.round, tt.index); got != tt.want {
				t.Errorf("AfterWork = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestAfterRestAndRoundRest verifies rest phases lead to the next work phase.
func TestAfterRestAndRoundRest(t *testing.T) {
	if got := AfterRest(1, 0); got != Work(1, 1) {
		t.Errorf("AfterRest(1, 0) = %+v", got)
	}
	if got := AfterRoundRest(1); got != Work(2, 0) {
		t.Errorf("AfterRoundRest(1) = %+v", got)
	}
}

// TestStopped checks the partial completion recorded for each active phase.
func TestStopped(t *testing.T) {
	tests := []struct {
		name  string
		phase Phase
		want  Phase
	}{
		{"prepare", Phase{Kind: PhasePrepare}, Complete(0, 0, false)},
		{"work round 2 exercise 1", Work(2, 1), Complete(1, 1, false)},
		{"work first exercise", Work(1, 0), Complete(0, 0, false)},
		{"rest", Rest(1, 1), Complete(0, 2, false)},
		{"round rest", RoundRest(1), Complete(1, 3, false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Stopped(tt.phase, 3)
			if !ok {
				t.Fatal("Stopped returned !ok")
			}
			if got != tt.want {
				t.Errorf("Stopped = %+v, want %+v", got, tt.want)
			}
		})
	}

	for _, k := range []PhaseKind{PhaseLoading, PhaseConfirm, PhaseComplete} {
		if _, ok := Stopped(Phase{Kind: k}, 3); ok {
			t.Errorf("Stopped(%s) should not be allowed", k)
		}
	}
}
