package storage

import (
	"context"
	"fmt"

	"github.com/claude/calilog/internal/models"
)

const exerciseColumns = `id, name, type, laterality, target_sets, target_value, rest_interval`

// CreateExercise inserts an exercise and returns its ID.
func (db *DB) CreateExercise(ctx context.Context, ex models.Exercise) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO exercises (name, type, laterality, target_sets, target_value, rest_interval)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		ex.Name, ex.Type, ex.Laterality, ex.TargetSets, ex.TargetValue, ex.RestInterval,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise %q: %w", ex.Name, err)
	}
	return id, nil
}

// GetExerciseByID returns one exercise or ErrNotFound.
func (db *DB) GetExerciseByID(ctx context.Context, id int64) (models.Exercise, error) {
	var ex models.Exercise
	err := db.Pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id).
		Scan(&ex.ID, &ex.Name, &ex.Type, &ex.Laterality, &ex.TargetSets, &ex.TargetValue, &ex.RestInterval)
	if err != nil {
		return models.Exercise{}, notFound(err, "exercise", id)
	}
	return ex, nil
}

// ListExercises returns every exercise ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.Type, &ex.Laterality, &ex.TargetSets, &ex.TargetValue, &ex.RestInterval); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
