// Package setbuilder constructs and rebuilds the ordered set list of a
// program run from program defaults, exercise challenge defaults or training
// history. Every function returns a new session; inputs are never modified.
package setbuilder

import (
	"context"
	"fmt"
	"sort"

	"github.com/claude/calilog/internal/models"
)

// HistoryLookup returns the most recent session's records for an exercise,
// or nil when there is no history.
type HistoryLookup func(exerciseID int64) []models.TrainingRecord

// HistoryFetcher loads the most recent session's records for an exercise.
type HistoryFetcher interface {
	GetLatestSession(ctx context.Context, exerciseID int64) ([]models.TrainingRecord, error)
}

// BuildInitialSets builds the sets of a fresh run. previousValue is taken
// from history per set number; targets are prefilled from history when
// prefill is enabled.
func BuildInitialSets(pairs []models.ExercisePair, prefill bool, history HistoryLookup) []models.ProgramWorkoutSet {
	var sets []models.ProgramWorkoutSet
	for i, pair := range pairs {
		var records map[int]models.TrainingRecord
		if history != nil {
			records = bySetNumber(history(pair.Exercise.ID))
		}
		pe := pair.ProgramExercise

		for n := 1; n <= pe.Sets; n++ {
			rec, ok := records[n]
			if pair.Exercise.IsUnilateral() {
				var right, left *int
				if ok {
					right = models.IntPtr(rec.ValueRight)
					left = models.IntPtr(rec.ValueRight)
					if rec.ValueLeft != nil {
						left = models.IntPtr(*rec.ValueLeft)
					}
				}
				sets = append(sets,
					newSet(i, n, models.SideRight, target(pe.TargetValue, right, prefill), pe.IntervalSeconds, right),
					newSet(i, n, models.SideLeft, target(pe.TargetValue, left, prefill), pe.IntervalSeconds, left),
				)
				continue
			}

			var prev *int
			if ok {
				prev = models.IntPtr(rec.ValueRight)
			}
			sets = append(sets, newSet(i, n, models.SideNone, target(pe.TargetValue, prev, prefill), pe.IntervalSeconds, prev))
		}
	}
	models.SortSets(sets)
	return sets
}

// BuildProgramValueSets discards all edits and rebuilds the sets from each
// program slot's configuration. Known previous values are kept.
func BuildProgramValueSets(session models.ProgramExecutionSession) models.ProgramExecutionSession {
	prev := previousValues(session.Sets)
	var sets []models.ProgramWorkoutSet
	for i, pair := range session.Exercises {
		pe := pair.ProgramExercise
		sets = append(sets, expand(i, pair.Exercise, pe.Sets, pe.TargetValue, pe.IntervalSeconds, prev)...)
	}
	return session.WithSets(sets)
}

// BuildChallengeValueSets rebuilds the sets from each exercise's challenge
// defaults, falling back to the program slot for any default that is unset.
func BuildChallengeValueSets(session models.ProgramExecutionSession) models.ProgramExecutionSession {
	prev := previousValues(session.Sets)
	var sets []models.ProgramWorkoutSet
	for i, pair := range session.Exercises {
		pe, ex := pair.ProgramExercise, pair.Exercise
		count := valueOr(ex.TargetSets, pe.Sets)
		tv := valueOr(ex.TargetValue, pe.TargetValue)
		interval := valueOr(ex.RestInterval, pe.IntervalSeconds)
		sets = append(sets, expand(i, ex, count, tv, interval, prev)...)
	}
	return session.WithSets(sets)
}

// BuildPreviousRecordValueSets rebuilds every exercise from its latest
// recorded session. The number of sets follows the history, and both target
// and previous value become the recorded value (the Right/Left average for
// unilateral exercises). Exercises without history fall back to program
// defaults.
func BuildPreviousRecordValueSets(ctx context.Context, session models.ProgramExecutionSession, fetch HistoryFetcher) (models.ProgramExecutionSession, error) {
	prev := previousValues(session.Sets)
	var sets []models.ProgramWorkoutSet
	for i, pair := range session.Exercises {
		pe, ex := pair.ProgramExercise, pair.Exercise
		records, err := fetch.GetLatestSession(ctx, ex.ID)
		if err != nil {
			return models.ProgramExecutionSession{}, fmt.Errorf("loading history for exercise %d: %w", ex.ID, err)
		}
		if len(records) == 0 {
			sets = append(sets, expand(i, ex, pe.Sets, pe.TargetValue, pe.IntervalSeconds, prev)...)
			continue
		}

		sorted := append([]models.TrainingRecord(nil), records...)
		sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].SetNumber < sorted[b].SetNumber })
		for _, rec := range sorted {
			if ex.IsUnilateral() {
				left := rec.ValueRight
				if rec.ValueLeft != nil {
					left = *rec.ValueLeft
				}
				avg := (rec.ValueRight + left) / 2
				sets = append(sets,
					newSet(i, rec.SetNumber, models.SideRight, avg, pe.IntervalSeconds, models.IntPtr(avg)),
					newSet(i, rec.SetNumber, models.SideLeft, avg, pe.IntervalSeconds, models.IntPtr(avg)),
				)
				continue
			}
			sets = append(sets, newSet(i, rec.SetNumber, models.SideNone, rec.ValueRight, pe.IntervalSeconds, models.IntPtr(rec.ValueRight)))
		}
	}
	return session.WithSets(sets), nil
}

// ResizeExerciseSets grows or shrinks one exercise to count set numbers
// (minimum 1). Surviving sets keep their values; new sets copy the target
// and interval of the exercise's last existing set.
func ResizeExerciseSets(session models.ProgramExecutionSession, exerciseIndex, count int) models.ProgramExecutionSession {
	if exerciseIndex < 0 || exerciseIndex >= len(session.Exercises) {
		return session.Clone()
	}
	if count < 1 {
		count = 1
	}
	pair := session.Exercises[exerciseIndex]

	existing := make(map[models.SetKey]models.ProgramWorkoutSet)
	tmplTarget, tmplInterval := pair.ProgramExercise.TargetValue, pair.ProgramExercise.IntervalSeconds
	var others []models.ProgramWorkoutSet
	for _, set := range session.Sets {
		if set.ExerciseIndex != exerciseIndex {
			others = append(others, set)
			continue
		}
		existing[set.Key()] = set
		tmplTarget, tmplInterval = set.TargetValue, set.IntervalSeconds
	}

	resized := others
	for n := 1; n <= count; n++ {
		for _, side := range sidesFor(pair.Exercise) {
			key := models.SetKey{ExerciseIndex: exerciseIndex, SetNumber: n, Side: side}
			if set, ok := existing[key]; ok {
				resized = append(resized, set)
				continue
			}
			resized = append(resized, newSet(exerciseIndex, n, side, tmplTarget, tmplInterval, nil))
		}
	}
	return session.WithSets(resized)
}

// AdjustSetValues adds delta to the target of every set of one exercise,
// never going below zero.
func AdjustSetValues(session models.ProgramExecutionSession, exerciseIndex, delta int) models.ProgramExecutionSession {
	out := session.Clone()
	for i := range out.Sets {
		if out.Sets[i].ExerciseIndex != exerciseIndex {
			continue
		}
		out.Sets[i].TargetValue = max(out.Sets[i].TargetValue+delta, 0)
	}
	return out
}

// WithTargetValue sets the target of a single set.
func WithTargetValue(session models.ProgramExecutionSession, setIndex, value int) (models.ProgramExecutionSession, error) {
	if setIndex < 0 || setIndex >= len(session.Sets) {
		return session, fmt.Errorf("set index %d: %w", setIndex, ErrOutOfRange)
	}
	if value < 0 {
		return session, fmt.Errorf("target %d: %w", value, ErrMalformedNumber)
	}
	out := session.Clone()
	out.Sets[setIndex].TargetValue = value
	return out, nil
}

// WithInterval sets the rest interval of every set of one exercise.
func WithInterval(session models.ProgramExecutionSession, exerciseIndex, seconds int) (models.ProgramExecutionSession, error) {
	if exerciseIndex < 0 || exerciseIndex >= len(session.Exercises) {
		return session, fmt.Errorf("exercise index %d: %w", exerciseIndex, ErrOutOfRange)
	}
	if seconds < 0 {
		return session, fmt.Errorf("interval %d: %w", seconds, ErrMalformedNumber)
	}
	out := session.Clone()
	for i := range out.Sets {
		if out.Sets[i].ExerciseIndex == exerciseIndex {
			out.Sets[i].IntervalSeconds = seconds
		}
	}
	return out, nil
}

// SetCount returns the number of distinct set numbers of one exercise.
func SetCount(session models.ProgramExecutionSession, exerciseIndex int) int {
	seen := make(map[int]struct{})
	for _, set := range session.Sets {
		if set.ExerciseIndex == exerciseIndex {
			seen[set.SetNumber] = struct{}{}
		}
	}
	return len(seen)
}

func expand(exerciseIndex int, ex models.Exercise, count, targetValue, interval int, prev map[models.SetKey]*int) []models.ProgramWorkoutSet {
	var sets []models.ProgramWorkoutSet
	for n := 1; n <= count; n++ {
		for _, side := range sidesFor(ex) {
			key := models.SetKey{ExerciseIndex: exerciseIndex, SetNumber: n, Side: side}
			sets = append(sets, newSet(exerciseIndex, n, side, targetValue, interval, prev[key]))
		}
	}
	return sets
}

func newSet(exerciseIndex, setNumber int, side models.Side, targetValue, interval int, prev *int) models.ProgramWorkoutSet {
	set := models.ProgramWorkoutSet{
		ExerciseIndex:   exerciseIndex,
		SetNumber:       setNumber,
		Side:            side,
		TargetValue:     targetValue,
		IntervalSeconds: interval,
	}
	if prev != nil {
		set.PreviousValue = models.IntPtr(*prev)
	}
	return set
}

func sidesFor(ex models.Exercise) []models.Side {
	if ex.IsUnilateral() {
		return []models.Side{models.SideRight, models.SideLeft}
	}
	return []models.Side{models.SideNone}
}

func target(programValue int, prev *int, prefill bool) int {
	if prefill && prev != nil {
		return *prev
	}
	return programValue
}

func valueOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func bySetNumber(records []models.TrainingRecord) map[int]models.TrainingRecord {
	out := make(map[int]models.TrainingRecord, len(records))
	for _, r := range records {
		out[r.SetNumber] = r
	}
	return out
}

func previousValues(sets []models.ProgramWorkoutSet) map[models.SetKey]*int {
	out := make(map[models.SetKey]*int, len(sets))
	for _, set := range sets {
		if set.PreviousValue != nil {
			out[set.Key()] = set.PreviousValue
		}
	}
	return out
}
