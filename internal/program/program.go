// Package program runs a program workout: Confirm, then per set an
// optional start countdown, the set itself and an optional rest interval,
// and finally Result where the run is saved or discarded.
package program

import (
	"context"
	"errors"
	"time"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/setbuilder"
)

var (
	// ErrIllegalAction is returned when an event is not accepted in the
	// current step. The runner state is left untouched.
	ErrIllegalAction = errors.New("action not allowed in current step")
	// ErrInvalidProgram is returned by Start when the session fails the
	// validity gate (blank name or no exercises).
	ErrInvalidProgram = errors.New("program has no name or no exercises")
	// ErrEmptyProgram is returned by Load when no exercise of the program
	// could be resolved.
	ErrEmptyProgram = errors.New("program has no resolvable exercises")
	// ErrFinished is returned for any event after the run was saved,
	// discarded or closed.
	ErrFinished = errors.New("run already finished")
	// ErrSessionChanged is returned when the session was edited while
	// history was being fetched.
	ErrSessionChanged = errors.New("session changed during update")
	// ErrInvalidValue is returned for negative values.
	ErrInvalidValue = errors.New("invalid value")
)

// StepKind names a step of the program run.
type StepKind string

const (
	StepConfirm       StepKind = "confirm"
	StepStartInterval StepKind = "start_interval"
	StepExecuting     StepKind = "executing"
	StepInterval      StepKind = "interval"
	StepResult        StepKind = "result"
)

// Step is the active state. SetIndex is meaningful for StartInterval,
// Executing and Interval.
type Step struct {
	Kind     StepKind `json:"kind"`
	SetIndex int      `json:"set_index"`
}

// Outcome records how a finished run ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSaved     Outcome = "saved"
	OutcomeDiscarded Outcome = "discarded"
)

// Settings are the run-wide options. They are copied into the runner at
// construction and may only be replaced while in Confirm.
type Settings struct {
	AutoMode               bool          `json:"auto_mode"`
	StartCountdownSeconds  int           `json:"start_countdown_seconds"`
	DynamicCountSound      bool          `json:"dynamic_count_sound"`
	IsometricIntervalSound bool          `json:"isometric_interval_sound"`
	PrefillPreviousRecord  bool          `json:"prefill_previous_record"`
	RepCadence             time.Duration `json:"rep_cadence"`
	SettleDelay            time.Duration `json:"settle_delay"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		StartCountdownSeconds:  5,
		DynamicCountSound:      true,
		IsometricIntervalSound: true,
		RepCadence:             2 * time.Second,
		SettleDelay:            500 * time.Millisecond,
	}
}

// ForProgram applies a program's own timer options on top of s. A timer-mode
// program runs in auto mode and a positive start interval replaces the
// start countdown.
func (s Settings) ForProgram(p models.Program) Settings {
	if p.TimerMode {
		s.AutoMode = true
	}
	if p.StartInterval > 0 {
		s.StartCountdownSeconds = p.StartInterval
	}
	return s
}

// IsometricCueEvery is the period of the interval cue while holding an
// auto-timed isometric set.
const IsometricCueEvery = 10

// Snapshot is an immutable view of the runner.
type Snapshot struct {
	Step      Step                           `json:"step"`
	Variant   Variant                        `json:"variant,omitempty"`
	Elapsed   int                            `json:"elapsed"`
	Remaining int                            `json:"remaining"`
	Count     int                            `json:"count"`
	Paused    bool                           `json:"paused"`
	Session   models.ProgramExecutionSession `json:"session"`
	Settings  Settings                       `json:"settings"`
	Outcome   Outcome                        `json:"outcome,omitempty"`
}

// CurrentSet returns the set addressed by the step, if any.
func (s Snapshot) CurrentSet() (models.ProgramWorkoutSet, models.Exercise, bool) {
	switch s.Step.Kind {
	case StepStartInterval, StepExecuting, StepInterval:
	default:
		return models.ProgramWorkoutSet{}, models.Exercise{}, false
	}
	if s.Step.SetIndex < 0 || s.Step.SetIndex >= len(s.Session.Sets) {
		return models.ProgramWorkoutSet{}, models.Exercise{}, false
	}
	set := s.Session.Sets[s.Step.SetIndex]
	return set, s.Session.Exercises[set.ExerciseIndex].Exercise, true
}

// Loader supplies the program definition and history for a run.
type Loader interface {
	setbuilder.HistoryFetcher
	GetProgramByID(ctx context.Context, id int64) (models.Program, error)
	GetProgramExercisesSync(ctx context.Context, programID int64) ([]models.ProgramExercise, error)
	GetExerciseByID(ctx context.Context, id int64) (models.Exercise, error)
}

// Store persists a finished run and serves history for value rebuilds.
type Store interface {
	setbuilder.HistoryFetcher
	SaveTrainingSession(ctx context.Context, groups []models.RecordGroup, date, clock, comment string) error
}

// Repository is everything a loaded run needs.
type Repository interface {
	Loader
	Store
}
