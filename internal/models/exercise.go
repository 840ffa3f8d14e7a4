package models

import "errors"

// ErrNotFound is returned by repositories when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ExerciseType determines the unit of target and recorded values.
type ExerciseType string

const (
	// Dynamic exercises are counted in repetitions.
	Dynamic ExerciseType = "Dynamic"
	// Isometric exercises are held for a number of seconds.
	Isometric ExerciseType = "Isometric"
)

// Laterality tells whether an exercise is performed one side at a time.
type Laterality string

const (
	Bilateral  Laterality = "Bilateral"
	Unilateral Laterality = "Unilateral"
)

// Side identifies the limb a set was performed with. SideNone is used for
// bilateral exercises.
type Side string

const (
	SideNone  Side = ""
	SideRight Side = "Right"
	SideLeft  Side = "Left"
)

// Order returns the execution rank of a side within one set number.
// Right always precedes Left.
func (s Side) Order() int {
	switch s {
	case SideRight:
		return 1
	case SideLeft:
		return 2
	default:
		return 0
	}
}

// Exercise is a user-defined exercise. TargetSets, TargetValue and
// RestInterval are the optional "challenge" defaults.
type Exercise struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Type         ExerciseType `json:"type"`
	Laterality   Laterality   `json:"laterality"`
	TargetSets   *int         `json:"target_sets,omitempty"`
	TargetValue  *int         `json:"target_value,omitempty"`
	RestInterval *int         `json:"rest_interval,omitempty"`
}

// IsUnilateral reports whether each set is performed per side.
func (e Exercise) IsUnilateral() bool {
	return e.Laterality == Unilateral
}

// Unit returns the unit of the exercise's values.
func (e Exercise) Unit() string {
	if e.Type == Isometric {
		return "sec"
	}
	return "reps"
}
