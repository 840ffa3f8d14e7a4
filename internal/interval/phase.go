// Package interval runs circuit workouts: a prepare countdown, then for
// every round each exercise is worked for a fixed time followed by a rest,
// with a longer rest between rounds.
package interval

import "github.com/claude/calilog/internal/models"

// PhaseKind names a phase of an interval run.
type PhaseKind string

const (
	PhaseLoading   PhaseKind = "loading"
	PhaseConfirm   PhaseKind = "confirm"
	PhasePrepare   PhaseKind = "prepare"
	PhaseWork      PhaseKind = "work"
	PhaseRest      PhaseKind = "rest"
	PhaseRoundRest PhaseKind = "round_rest"
	PhaseComplete  PhaseKind = "complete"
)

// Phase is the active state. Rounds are 1-based. For RoundRest, Round is the
// round that was just completed. The completion fields are only set for
// Complete.
type Phase struct {
	Kind                          PhaseKind `json:"kind"`
	Round                         int       `json:"round,omitempty"`
	ExerciseIndex                 int       `json:"exercise_index"`
	CompletedRounds               int       `json:"completed_rounds,omitempty"`
	CompletedExercisesInLastRound int       `json:"completed_exercises_in_last_round,omitempty"`
	IsFullCompletion              bool      `json:"is_full_completion,omitempty"`
}

func Work(round, exerciseIndex int) Phase {
	return Phase{Kind: PhaseWork, Round: round, ExerciseIndex: exerciseIndex}
}

func Rest(round, exerciseIndex int) Phase {
	return Phase{Kind: PhaseRest, Round: round, ExerciseIndex: exerciseIndex}
}

func RoundRest(completedRound int) Phase {
	return Phase{Kind: PhaseRoundRest, Round: completedRound}
}

func Complete(completedRounds, completedExercises int, full bool) Phase {
	return Phase{
		Kind:                          PhaseComplete,
		CompletedRounds:               completedRounds,
		CompletedExercisesInLastRound: completedExercises,
		IsFullCompletion:              full,
	}
}

// AfterWork returns the phase that follows the expiry of Work(round, idx)
// in a circuit of exerciseCount exercises.
func AfterWork(p models.IntervalProgram, exerciseCount, round, idx int) Phase {
	last := idx == exerciseCount-1
	switch {
	case last && round >= p.Rounds:
		return Complete(p.Rounds, exerciseCount, true)
	case last && p.RoundRestSeconds > 0:
		return RoundRest(round)
	case last:
		return Work(round+1, 0)
	case p.RestSeconds > 0:
		return Rest(round, idx)
	default:
		return Work(round, idx+1)
	}
}

// AfterRest returns the work phase that follows Rest(round, idx).
func AfterRest(round, idx int) Phase {
	return Work(round, idx+1)
}

// AfterRoundRest returns the first work phase of the next round.
func AfterRoundRest(completedRound int) Phase {
	return Work(completedRound+1, 0)
}

// Stopped returns the partial completion reached when the user stops during
// phase. ok is false when phase is not an active phase.
func Stopped(phase Phase, exerciseCount int) (Phase, bool) {
	switch phase.Kind {
	case PhasePrepare:
		return Complete(0, 0, false), true
	case PhaseWork:
		return Complete(phase.Round-1, phase.ExerciseIndex, false), true
	case PhaseRest:
		return Complete(phase.Round-1, phase.ExerciseIndex+1, false), true
	case PhaseRoundRest:
		return Complete(phase.Round, exerciseCount, false), true
	default:
		return Phase{}, false
	}
}

// Active reports whether a countdown runs in this phase.
func (p Phase) Active() bool {
	switch p.Kind {
	case PhasePrepare, PhaseWork, PhaseRest, PhaseRoundRest:
		return true
	}
	return false
}
