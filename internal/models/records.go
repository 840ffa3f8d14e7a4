package models

// TrainingRecord is one persisted set. ValueLeft is only set for unilateral
// exercises.
type TrainingRecord struct {
	ID         int64  `json:"id"`
	ExerciseID int64  `json:"exercise_id"`
	SetNumber  int    `json:"set_number"`
	ValueRight int    `json:"value_right"`
	ValueLeft  *int   `json:"value_left,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Comment    string `json:"comment,omitempty"`
}

// RecordGroup holds the values of one exercise saved from a program run.
// Left is nil for bilateral exercises and otherwise pairs with Right per set.
type RecordGroup struct {
	ExerciseID int64 `json:"exercise_id"`
	Right      []int `json:"right"`
	Left       []int `json:"left,omitempty"`
}

// IntervalRecord is the snapshot persisted when an interval run finishes.
// Exercises holds a JSON array of the exercise names that were attempted.
type IntervalRecord struct {
	ID                            int64  `json:"id"`
	ProgramID                     int64  `json:"program_id"`
	ProgramName                   string `json:"program_name"`
	WorkSeconds                   int    `json:"work_seconds"`
	RestSeconds                   int    `json:"rest_seconds"`
	Rounds                        int    `json:"rounds"`
	RoundRestSeconds              int    `json:"round_rest_seconds"`
	CompletedRounds               int    `json:"completed_rounds"`
	CompletedExercisesInLastRound int    `json:"completed_exercises_in_last_round"`
	Exercises                     string `json:"exercises"`
	Date                          string `json:"date"`
	Time                          string `json:"time"`
	Comment                       string `json:"comment,omitempty"`
}

// Date and time layouts used for persisted records.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
