package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claude/calilog/internal/models"
)

// GetLatestSession returns the sets of the most recent session recorded for
// an exercise, ordered by set number. A session is every record sharing the
// same date and time.
func (db *DB) GetLatestSession(ctx context.Context, exerciseID int64) ([]models.TrainingRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, exercise_id, set_number, value_right, value_left, date, time, comment
		FROM training_records
		WHERE exercise_id = $1 AND (date, time) = (
			SELECT date, time FROM training_records
			WHERE exercise_id = $1
			ORDER BY date DESC, time DESC
			LIMIT 1)
		ORDER BY set_number, id`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying latest session: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingRecord
	for rows.Next() {
		var r models.TrainingRecord
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.SetNumber, &r.ValueRight, &r.ValueLeft, &r.Date, &r.Time, &r.Comment); err != nil {
			return nil, fmt.Errorf("scanning training record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// AddTrainingRecords stores one record per value, numbered from 1.
func (db *DB) AddTrainingRecords(ctx context.Context, exerciseID int64, values []int, date, clock, comment string) error {
	return db.SaveTrainingSession(ctx, []models.RecordGroup{{ExerciseID: exerciseID, Right: values}}, date, clock, comment)
}

// AddTrainingRecordsUnilateral stores paired right/left values per set.
func (db *DB) AddTrainingRecordsUnilateral(ctx context.Context, exerciseID int64, right, left []int, date, clock, comment string) error {
	if left == nil {
		left = []int{}
	}
	return db.SaveTrainingSession(ctx, []models.RecordGroup{{ExerciseID: exerciseID, Right: right, Left: left}}, date, clock, comment)
}

// SaveTrainingSession stores the record groups of one run in a single
// transaction, so either every exercise is saved or none is.
func (db *DB) SaveTrainingSession(ctx context.Context, groups []models.RecordGroup, date, clock, comment string) error {
	if err := checkGroups(groups); err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, g := range groups {
		if err := insertRecords(ctx, tx, g, date, clock, comment); err != nil {
			return fmt.Errorf("exercise %d: %w", g.ExerciseID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing training session: %w", err)
	}
	return nil
}

func checkGroups(groups []models.RecordGroup) error {
	for _, g := range groups {
		if g.Left != nil && len(g.Left) != len(g.Right) {
			return fmt.Errorf("unilateral values for exercise %d: %d right and %d left", g.ExerciseID, len(g.Right), len(g.Left))
		}
	}
	return nil
}

func insertRecords(ctx context.Context, tx pgx.Tx, g models.RecordGroup, date, clock, comment string) error {
	if len(g.Right) == 0 {
		return nil
	}

	query := `INSERT INTO training_records (exercise_id, set_number, value_right, value_left, date, time, comment) VALUES `
	args := make([]any, 0, len(g.Right)*7)
	valueStrings := make([]string, 0, len(g.Right))

	for i, v := range g.Right {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		var l *int
		if g.Left != nil {
			l = &g.Left[i]
		}
		args = append(args, g.ExerciseID, i+1, v, l, date, clock, comment)
	}
	query += strings.Join(valueStrings, ",")

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting training records: %w", err)
	}
	return nil
}
