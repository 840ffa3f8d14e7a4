package models

import "sort"

// ProgramWorkoutSet is one unit of work within a program run.
type ProgramWorkoutSet struct {
	ExerciseIndex   int  `json:"exercise_index"`
	SetNumber       int  `json:"set_number"`
	Side            Side `json:"side,omitempty"`
	TargetValue     int  `json:"target_value"`
	IntervalSeconds int  `json:"interval_seconds"`
	PreviousValue   *int `json:"previous_value,omitempty"`
	ActualValue     int  `json:"actual_value"`
	IsCompleted     bool `json:"is_completed"`
}

// SetKey identifies a set within one exercise.
type SetKey struct {
	ExerciseIndex int
	SetNumber     int
	Side          Side
}

// Key returns the identity of the set.
func (s ProgramWorkoutSet) Key() SetKey {
	return SetKey{ExerciseIndex: s.ExerciseIndex, SetNumber: s.SetNumber, Side: s.Side}
}

// ExercisePair binds a program slot to the exercise it references.
type ExercisePair struct {
	ProgramExercise ProgramExercise `json:"program_exercise"`
	Exercise        Exercise        `json:"exercise"`
}

// ProgramExecutionSession aggregates everything a program run operates on.
// Sets is ordered by (ExerciseIndex, SetNumber, Side) and that order is the
// execution sequence. Sessions are treated as values: edits build a new
// session with Clone or WithSets instead of splicing Sets in place.
type ProgramExecutionSession struct {
	Program   Program             `json:"program"`
	Exercises []ExercisePair      `json:"exercises"`
	Sets      []ProgramWorkoutSet `json:"sets"`
	Comment   string              `json:"comment,omitempty"`
}

// Clone returns a deep copy of the session.
func (s ProgramExecutionSession) Clone() ProgramExecutionSession {
	out := s
	out.Exercises = append([]ExercisePair(nil), s.Exercises...)
	out.Sets = cloneSets(s.Sets)
	return out
}

// WithSets returns a copy of the session owning a sorted copy of sets.
func (s ProgramExecutionSession) WithSets(sets []ProgramWorkoutSet) ProgramExecutionSession {
	out := s.Clone()
	out.Sets = cloneSets(sets)
	SortSets(out.Sets)
	return out
}

// SetsFor returns copies of the sets belonging to one exercise, in order.
func (s ProgramExecutionSession) SetsFor(exerciseIndex int) []ProgramWorkoutSet {
	var out []ProgramWorkoutSet
	for _, set := range s.Sets {
		if set.ExerciseIndex == exerciseIndex {
			out = append(out, set)
		}
	}
	return out
}

// IsLastSet reports whether index points at the final set of the run.
func (s ProgramExecutionSession) IsLastSet(index int) bool {
	return index == len(s.Sets)-1
}

// SortSets orders sets by exercise, set number, then Right before Left.
func SortSets(sets []ProgramWorkoutSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		a, b := sets[i], sets[j]
		if a.ExerciseIndex != b.ExerciseIndex {
			return a.ExerciseIndex < b.ExerciseIndex
		}
		if a.SetNumber != b.SetNumber {
			return a.SetNumber < b.SetNumber
		}
		return a.Side.Order() < b.Side.Order()
	})
}

func cloneSets(sets []ProgramWorkoutSet) []ProgramWorkoutSet {
	if sets == nil {
		return nil
	}
	out := make([]ProgramWorkoutSet, len(sets))
	for i, set := range sets {
		out[i] = set
		if set.PreviousValue != nil {
			v := *set.PreviousValue
			out[i].PreviousValue = &v
		}
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
