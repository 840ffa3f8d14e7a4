package models

// DataStats holds aggregate statistics about the training log.
type DataStats struct {
	Exercises        int64          `json:"exercises"`
	Programs         int64          `json:"programs"`
	IntervalPrograms int64          `json:"interval_programs"`
	TotalSets        int64          `json:"total_sets"`
	TotalSessions    int64          `json:"total_sessions"`
	IntervalRuns     int64          `json:"interval_runs"`
	EarliestDate     *string        `json:"earliest_date"`
	LatestDate       *string        `json:"latest_date"`
	SetsByExercise   []ExerciseStat `json:"sets_by_exercise"`
}

// ExerciseStat holds recorded volume for a single exercise. TotalValue sums
// both sides of unilateral sets.
type ExerciseStat struct {
	ExerciseID int64  `json:"exercise_id"`
	Name       string `json:"name"`
	Sets       int64  `json:"sets"`
	Sessions   int64  `json:"sessions"`
	TotalValue int64  `json:"total_value"`
	BestValue  int    `json:"best_value"`
}
