package storage

import (
	"context"
	"fmt"

	"github.com/claude/calilog/internal/models"
)

// CreateProgram inserts a program with its exercise slots in one transaction.
func (db *DB) CreateProgram(ctx context.Context, p models.Program, slots []models.ProgramExercise) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO programs (name, timer_mode, start_interval) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.TimerMode, p.StartInterval,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting program %q: %w", p.Name, err)
	}

	for _, s := range slots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO program_exercises (program_id, exercise_id, sort_order, sets, target_value, interval_seconds)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, s.ExerciseID, s.SortOrder, s.Sets, s.TargetValue, s.IntervalSeconds,
		); err != nil {
			return 0, fmt.Errorf("inserting program exercise %d: %w", s.ExerciseID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing program: %w", err)
	}
	return id, nil
}

// GetProgramByID returns one program or ErrNotFound.
func (db *DB) GetProgramByID(ctx context.Context, id int64) (models.Program, error) {
	var p models.Program
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, timer_mode, start_interval FROM programs WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.TimerMode, &p.StartInterval)
	if err != nil {
		return models.Program{}, notFound(err, "program", id)
	}
	return p, nil
}

// GetProgramExercisesSync returns the exercise slots of a program in
// execution order.
func (db *DB) GetProgramExercisesSync(ctx context.Context, programID int64) ([]models.ProgramExercise, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, program_id, exercise_id, sort_order, sets, target_value, interval_seconds
		FROM program_exercises
		WHERE program_id = $1
		ORDER BY sort_order, id`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying program exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramExercise
	for rows.Next() {
		var s models.ProgramExercise
		if err := rows.Scan(&s.ID, &s.ProgramID, &s.ExerciseID, &s.SortOrder, &s.Sets, &s.TargetValue, &s.IntervalSeconds); err != nil {
			return nil, fmt.Errorf("scanning program exercise: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListPrograms returns every program ordered by name.
func (db *DB) ListPrograms(ctx context.Context) ([]models.Program, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, timer_mode, start_interval FROM programs ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.Program
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.TimerMode, &p.StartInterval); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
