package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/claude/calilog/internal/models"
)

const exerciseColumns = `id, name, type, laterality, target_sets, target_value, rest_interval`

func scanExercise(row scanner) (models.Exercise, error) {
	var (
		ex                models.Exercise
		sets, value, rest sql.NullInt64
	)
	if err := row.Scan(&ex.ID, &ex.Name, &ex.Type, &ex.Laterality, &sets, &value, &rest); err != nil {
		return models.Exercise{}, err
	}
	ex.TargetSets, ex.TargetValue, ex.RestInterval = nullInt(sets), nullInt(value), nullInt(rest)
	return ex, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.IntPtr(int(v.Int64))
}

// CreateExercise inserts an exercise and returns its ID.
func (s *Store) CreateExercise(ctx context.Context, ex models.Exercise) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO exercises (name, type, laterality, target_sets, target_value, rest_interval)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ex.Name, string(ex.Type), string(ex.Laterality), ex.TargetSets, ex.TargetValue, ex.RestInterval)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise %q: %w", ex.Name, err)
	}
	return res.LastInsertId()
}

// GetExerciseByID returns one exercise or ErrNotFound.
func (s *Store) GetExerciseByID(ctx context.Context, id int64) (models.Exercise, error) {
	ex, err := scanExercise(s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id))
	if err != nil {
		return models.Exercise{}, notFound(err, "exercise", id)
	}
	return ex, nil
}

// ListExercises returns every exercise ordered by name.
func (s *Store) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}

// CreateProgram inserts a program with its exercise slots in one transaction.
func (s *Store) CreateProgram(ctx context.Context, p models.Program, slots []models.ProgramExercise) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO programs (name, timer_mode, start_interval) VALUES (?, ?, ?)`,
		p.Name, p.TimerMode, p.StartInterval)
	if err != nil {
		return 0, fmt.Errorf("inserting program %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading program id: %w", err)
	}

	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO program_exercises (program_id, exercise_id, sort_order, sets, target_value, interval_seconds)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, slot.ExerciseID, slot.SortOrder, slot.Sets, slot.TargetValue, slot.IntervalSeconds); err != nil {
			return 0, fmt.Errorf("inserting program exercise %d: %w", slot.ExerciseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing program: %w", err)
	}
	return id, nil
}

// GetProgramByID returns one program or ErrNotFound.
func (s *Store) GetProgramByID(ctx context.Context, id int64) (models.Program, error) {
	var p models.Program
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, timer_mode, start_interval FROM programs WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.TimerMode, &p.StartInterval)
	if err != nil {
		return models.Program{}, notFound(err, "program", id)
	}
	return p, nil
}

// GetProgramExercisesSync returns the exercise slots of a program in
// execution order.
func (s *Store) GetProgramExercisesSync(ctx context.Context, programID int64) ([]models.ProgramExercise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_id, exercise_id, sort_order, sets, target_value, interval_seconds
		FROM program_exercises
		WHERE program_id = ?
		ORDER BY sort_order, id`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying program exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramExercise
	for rows.Next() {
		var pe models.ProgramExercise
		if err := rows.Scan(&pe.ID, &pe.ProgramID, &pe.ExerciseID, &pe.SortOrder, &pe.Sets, &pe.TargetValue, &pe.IntervalSeconds); err != nil {
			return nil, fmt.Errorf("scanning program exercise: %w", err)
		}
		result = append(result, pe)
	}
	return result, rows.Err()
}

// ListPrograms returns every program ordered by name.
func (s *Store) ListPrograms(ctx context.Context) ([]models.Program, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, timer_mode, start_interval FROM programs ORDER BY name, id`)
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
