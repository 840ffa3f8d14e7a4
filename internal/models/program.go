package models

// Program is a named ordered sequence of exercises executed straight through.
type Program struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	TimerMode     bool   `json:"timer_mode"`
	StartInterval int    `json:"start_interval"`
}

// ProgramExercise is one exercise slot of a Program. SortOrder defines the
// execution order.
type ProgramExercise struct {
	ID              int64 `json:"id"`
	ProgramID       int64 `json:"program_id"`
	ExerciseID      int64 `json:"exercise_id"`
	SortOrder       int   `json:"sort_order"`
	Sets            int   `json:"sets"`
	TargetValue     int   `json:"target_value"`
	IntervalSeconds int   `json:"interval_seconds"`
}

// IntervalProgram is a circuit: every exercise is worked for WorkSeconds,
// followed by RestSeconds, repeated for Rounds with RoundRestSeconds between
// rounds.
type IntervalProgram struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	WorkSeconds      int    `json:"work_seconds"`
	RestSeconds      int    `json:"rest_seconds"`
	Rounds           int    `json:"rounds"`
	RoundRestSeconds int    `json:"round_rest_seconds"`
}

// IntervalProgramExercise is one exercise of an IntervalProgram, performed
// once per round.
type IntervalProgramExercise struct {
	ID         int64 `json:"id"`
	ProgramID  int64 `json:"program_id"`
	ExerciseID int64 `json:"exercise_id"`
	SortOrder  int   `json:"sort_order"`
}
