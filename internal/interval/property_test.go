package interval

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/claude/calilog/internal/models"
)

// walk follows timer expiries from the first work phase to Complete and
// returns the number of work phases completed plus the work phases seen.
func walk(p models.IntervalProgram, n int) (int, []Phase, Phase) {
	var works []Phase
	phase := Work(1, 0)
	for i := 0; i < 10000; i++ {
		switch phase.Kind {
		case PhaseWork:
			works = append(works, phase)
			phase = AfterWork(p, n, phase.Round, phase.ExerciseIndex)
		case PhaseRest:
			phase = AfterRest(phase.Round, phase.ExerciseIndex)
		case PhaseRoundRest:
			phase = AfterRoundRest(phase.Round)
		default:
			return len(works), works, phase
		}
	}
	return len(works), works, phase
}

func TestIntervalProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	program := func(rounds, rest, roundRest int) models.IntervalProgram {
		return models.IntervalProgram{WorkSeconds: 30, RestSeconds: rest, Rounds: rounds, RoundRestSeconds: roundRest}
	}

	properties.Property("full run completes after rounds*exercises work phases", prop.ForAll(
		func(rounds, n, rest, roundRest int) bool {
			count, _, end := walk(program(rounds, rest, roundRest), n)
			return count == rounds*n && end == Complete(rounds, n, true)
		},
		gen.IntRange(1, 6), gen.IntRange(1, 6), gen.IntRange(0, 1), gen.IntRange(0, 1),
	))

	properties.Property("work phases advance round-major exercise-minor", prop.ForAll(
		func(rounds, n, rest, roundRest int) bool {
			_, works, _ := walk(program(rounds, rest, roundRest), n)
			for i := 1; i < len(works); i++ {
				prev, cur := works[i-1], works[i]
				sameRound := cur.Round == prev.Round && cur.ExerciseIndex == prev.ExerciseIndex+1
				nextRound := cur.Round == prev.Round+1 && cur.ExerciseIndex == 0 && prev.ExerciseIndex == n-1
				if !sameRound && !nextRound {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6), gen.IntRange(1, 6), gen.IntRange(0, 1), gen.IntRange(0, 1),
	))

	properties.Property("stopping during work counts only finished work", prop.ForAll(
		func(n, round, idx int) bool {
			idx %= n
			got, ok := Stopped(Work(round, idx), n)
			worked := (round-1)*n + idx
			return ok && !got.IsFullCompletion &&
				got.CompletedRounds*n+got.CompletedExercisesInLastRound == worked
		},
		gen.IntRange(1, 6), gen.IntRange(1, 6), gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
