package sqlite

import (
	"context"
	"fmt"

	"github.com/claude/calilog/internal/models"
)

// GetDataStats returns aggregate statistics for the stored training log.
func (s *Store) GetDataStats(ctx context.Context) (*models.DataStats, error) {
	stats := &models.DataStats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM exercises),
		        (SELECT COUNT(*) FROM programs),
		        (SELECT COUNT(*) FROM interval_programs),
		        (SELECT COUNT(*) FROM interval_records)`,
	).Scan(&stats.Exercises, &stats.Programs, &stats.IntervalPrograms, &stats.IntervalRuns)
	if err != nil {
		return nil, fmt.Errorf("counting catalog: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        (SELECT COUNT(*) FROM (SELECT DISTINCT exercise_id, date, time FROM training_records)),
		        MIN(date), MAX(date)
		 FROM training_records`,
	).Scan(&stats.TotalSets, &stats.TotalSessions, &stats.EarliestDate, &stats.LatestDate)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.name, COUNT(*),
		        COUNT(DISTINCT r.date || ' ' || r.time),
		        SUM(r.value_right + COALESCE(r.value_left, 0)),
		        MAX(r.value_right)
		 FROM training_records r
		 JOIN exercises e ON e.id = r.exercise_id
		 GROUP BY e.id, e.name
		 ORDER BY COUNT(*) DESC, e.id`)
	if err != nil {
		return nil, fmt.Errorf("querying sets by exercise: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st models.ExerciseStat
		if err := rows.Scan(&st.ExerciseID, &st.Name, &st.Sets, &st.Sessions, &st.TotalValue, &st.BestValue); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.SetsByExercise = append(stats.SetsByExercise, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
