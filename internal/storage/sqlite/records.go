package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/claude/calilog/internal/models"
)

// GetLatestSession returns the sets of the most recent session recorded for
// an exercise, ordered by set number. A session is every record sharing the
// same date and time.
func (s *Store) GetLatestSession(ctx context.Context, exerciseID int64) ([]models.TrainingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise_id, set_number, value_right, value_left, date, time, comment
		FROM training_records
		WHERE exercise_id = ? AND date || ' ' || time = (
			SELECT MAX(date || ' ' || time) FROM training_records WHERE exercise_id = ?)
		ORDER BY set_number, id`, exerciseID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying latest session: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingRecord
	for rows.Next() {
		var (
			r    models.TrainingRecord
			left sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.SetNumber, &r.ValueRight, &left, &r.Date, &r.Time, &r.Comment); err != nil {
			return nil, fmt.Errorf("scanning training record: %w", err)
		}
		r.ValueLeft = nullInt(left)
		result = append(result, r)
	}
	return result, rows.Err()
}

// AddTrainingRecords stores one record per value, numbered from 1.
func (s *Store) AddTrainingRecords(ctx context.Context, exerciseID int64, values []int, date, clock, comment string) error {
	return s.SaveTrainingSession(ctx, []models.RecordGroup{{ExerciseID: exerciseID, Right: values}}, date, clock, comment)
}

// AddTrainingRecordsUnilateral stores paired right/left values per set.
func (s *Store) AddTrainingRecordsUnilateral(ctx context.Context, exerciseID int64, right, left []int, date, clock, comment string) error {
	if left == nil {
		left = []int{}
	}
	return s.SaveTrainingSession(ctx, []models.RecordGroup{{ExerciseID: exerciseID, Right: right, Left: left}}, date, clock, comment)
}

// SaveTrainingSession stores the record groups of one run in a single
// transaction, so either every exercise is saved or none is.
func (s *Store) SaveTrainingSession(ctx context.Context, groups []models.RecordGroup, date, clock, comment string) error {
	for _, g := range groups {
		if g.Left != nil && len(g.Left) != len(g.Right) {
			return fmt.Errorf("unilateral values for exercise %d: %d right and %d left", g.ExerciseID, len(g.Right), len(g.Left))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, g := range groups {
		if err := insertRecords(ctx, tx, g, date, clock, comment); err != nil {
			return fmt.Errorf("exercise %d: %w", g.ExerciseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing training session: %w", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, g models.RecordGroup, date, clock, comment string) error {
	if len(g.Right) == 0 {
		return nil
	}

	query := `INSERT INTO training_records (exercise_id, set_number, value_right, value_left, date, time, comment) VALUES `
	args := make([]any, 0, len(g.Right)*7)
	valueStrings := make([]string, 0, len(g.Right))

	for i, v := range g.Right {
		valueStrings = append(valueStrings, "(?,?,?,?,?,?,?)")
		var l any
		if g.Left != nil {
			l = g.Left[i]
		}
		args = append(args, g.ExerciseID, i+1, v, l, date, clock, comment)
	}
	query += strings.Join(valueStrings, ",")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting training records: %w", err)
	}
	return nil
}

// CreateIntervalProgram inserts an interval program and its exercises in
// the given order.
func (s *Store) CreateIntervalProgram(ctx context.Context, p models.IntervalProgram, exerciseIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO interval_programs (name, work_seconds, rest_seconds, rounds, round_rest_seconds)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.WorkSeconds, p.RestSeconds, p.Rounds, p.RoundRestSeconds)
	if err != nil {
		return 0, fmt.Errorf("inserting interval program %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading interval program id: %w", err)
	}

	for i, exID := range exerciseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interval_program_exercises (program_id, exercise_id, sort_order) VALUES (?, ?, ?)`,
			id, exID, i); err != nil {
			return 0, fmt.Errorf("inserting interval program exercise %d: %w", exID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing interval program: %w", err)
	}
	return id, nil
}

// GetIntervalProgramByID returns one interval program or ErrNotFound.
func (s *Store) GetIntervalProgramByID(ctx context.Context, id int64) (models.IntervalProgram, error) {
	var p models.IntervalProgram
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, work_seconds, rest_seconds, rounds, round_rest_seconds
		FROM interval_programs WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.WorkSeconds, &p.RestSeconds, &p.Rounds, &p.RoundRestSeconds)
	if err != nil {
		return models.IntervalProgram{}, notFound(err, "interval program", id)
	}
	return p, nil
}

// GetIntervalProgramExercisesSync returns the exercises of an interval
// program in circuit order.
func (s *Store) GetIntervalProgramExercisesSync(ctx context.Context, programID int64) ([]models.IntervalProgramExercise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_id, exercise_id, sort_order
		FROM interval_program_exercises
		WHERE program_id = ?
		ORDER BY sort_order, id`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying interval program exercises: %w", err)
	}
	defer rows.Close()

	var result []models.IntervalProgramExercise
	for rows.Next() {
		var pe models.IntervalProgramExercise
		if err := rows.Scan(&pe.ID, &pe.ProgramID, &pe.ExerciseID, &pe.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning interval program exercise: %w", err)
		}
		result = append(result, pe)
	}
	return result, rows.Err()
}

// ListIntervalPrograms returns every interval program ordered by name.
func (s *Store) ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, work_seconds, rest_seconds, rounds, round_rest_seconds
		FROM interval_programs ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying interval programs: %w", err)
	}
	defer rows.Close()

	var result []models.IntervalProgram
	for rows.Next() {
		var p models.IntervalProgram
		if err := rows.Scan(&p.ID, &p.Name, &p.WorkSeconds, &p.RestSeconds, &p.Rounds, &p.RoundRestSeconds); err != nil {
			return nil, fmt.Errorf("scanning interval program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SaveIntervalRecord persists a finished interval run.
func (s *Store) SaveIntervalRecord(ctx context.Context, r models.IntervalRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interval_records (program_id, program_name, work_seconds, rest_seconds, rounds,
			round_rest_seconds, completed_rounds, completed_exercises_in_last_round, exercises,
			date, time, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProgramID, r.ProgramName, r.WorkSeconds, r.RestSeconds, r.Rounds,
		r.RoundRestSeconds, r.CompletedRounds, r.CompletedExercisesInLastRound, r.Exercises,
		r.Date, r.Time, r.Comment)
	if err != nil {
		return fmt.Errorf("inserting interval record: %w", err)
	}
	return nil
}

// ListIntervalRecords returns the most recent interval records, newest
// first. limit <= 0 returns all of them.
func (s *Store) ListIntervalRecords(ctx context.Context, limit int) ([]models.IntervalRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_id, program_name, work_seconds, rest_seconds, rounds,
			round_rest_seconds, completed_rounds, completed_exercises_in_last_round, exercises,
			date, time, comment
		FROM interval_records
		ORDER BY date DESC, time DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interval records: %w", err)
	}
	defer rows.Close()

	var result []models.IntervalRecord
	for rows.Next() {
		var r models.IntervalRecord
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.ProgramName, &r.WorkSeconds, &r.RestSeconds, &r.Rounds,
			&r.RoundRestSeconds, &r.CompletedRounds, &r.CompletedExercisesInLastRound, &r.Exercises,
			&r.Date, &r.Time, &r.Comment); err != nil {
			return nil, fmt.Errorf("scanning interval record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
