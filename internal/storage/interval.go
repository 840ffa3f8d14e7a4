package storage

import (
	"context"
	"fmt"

	"github.com/claude/calilog/internal/models"
)

// CreateIntervalProgram inserts an interval program and its exercises in
// the given order.
func (db *DB) CreateIntervalProgram(ctx context.Context, p models.IntervalProgram, exerciseIDs []int64) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO interval_programs (name, work_seconds, rest_seconds, rounds, round_rest_seconds)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.Name, p.WorkSeconds, p.RestSeconds, p.Rounds, p.RoundRestSeconds,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting interval program %q: %w", p.Name, err)
	}

	for i, exID := range exerciseIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO interval_program_exercises (program_id, exercise_id, sort_order) VALUES ($1, $2, $3)`,
			id, exID, i,
		); err != nil {
			return 0, fmt.Errorf("inserting interval program exercise %d: %w", exID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing interval program: %w", err)
	}
	return id, nil
}

// GetIntervalProgramByID returns one interval program or ErrNotFound.
func (db *DB) GetIntervalProgramByID(ctx context.Context, id int64) (models.IntervalProgram, error) {
	var p models.IntervalProgram
	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, work_seconds, rest_seconds, rounds, round_rest_seconds
		FROM interval_programs WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.WorkSeconds, &p.RestSeconds, &p.Rounds, &p.RoundRestSeconds)
	if err != nil {
		return models.IntervalProgram{}, notFound(err, "interval program", id)
	}
	return p, nil
}

// GetIntervalProgramExercisesSync returns the exercises of an interval
// program in circuit order.
func (db *DB) GetIntervalProgramExercisesSync(ctx context.Context, programID int64) ([]models.IntervalProgramExercise, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, program_id, exercise_id, sort_order
		FROM interval_program_exercises
		WHERE program_id = $1
		ORDER BY sort_order, id`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying interval program exercises: %w", err)
	}
	defer rows.Close()

	var result []models.IntervalProgramExercise
	for rows.Next() {
		var s models.IntervalProgramExercise
		if err := rows.Scan(&s.ID, &s.ProgramID, &s.ExerciseID, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning interval program exercise: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListIntervalPrograms returns every interval program ordered by name.
func (db *DB) ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error) {
	rows, err := db.Pool.Query(ctx, `
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
func (db *DB) SaveIntervalRecord(ctx context.Context, r models.IntervalRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO interval_records (program_id, program_name, work_seconds, rest_seconds, rounds,
			round_rest_seconds, completed_rounds, completed_exercises_in_last_round, exercises,
			date, time, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
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
func (db *DB) ListIntervalRecords(ctx context.Context, limit int) ([]models.IntervalRecord, error) {
	query := `
		SELECT id, program_id, program_name, work_seconds, rest_seconds, rounds,
			round_rest_seconds, completed_rounds, completed_exercises_in_last_round, exercises,
			date, time, comment
		FROM interval_records
		ORDER BY date DESC, time DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
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
