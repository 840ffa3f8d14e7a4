package program

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/setbuilder"
)

// LoadSession resolves a program, its exercises and their latest history
// into a fresh session. Program slots whose exercise no longer exists are
// skipped.
func LoadSession(ctx context.Context, repo Loader, programID int64, prefill bool) (models.ProgramExecutionSession, error) {
	p, err := repo.GetProgramByID(ctx, programID)
	if err != nil {
		return models.ProgramExecutionSession{}, fmt.Errorf("loading program %d: %w", programID, err)
	}
	slots, err := repo.GetProgramExercisesSync(ctx, programID)
	if err != nil {
		return models.ProgramExecutionSession{}, fmt.Errorf("loading program %d exercises: %w", programID, err)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].SortOrder < slots[j].SortOrder })

	var pairs []models.ExercisePair
	history := make(map[int64][]models.TrainingRecord)
	for _, pe := range slots {
		ex, err := repo.GetExerciseByID(ctx, pe.ExerciseID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.ProgramExecutionSession{}, fmt.Errorf("loading exercise %d: %w", pe.ExerciseID, err)
		}
		if _, ok := history[ex.ID]; !ok {
			records, err := repo.GetLatestSession(ctx, ex.ID)
			if err != nil {
				return models.ProgramExecutionSession{}, fmt.Errorf("loading history for exercise %d: %w", ex.ID, err)
			}
			history[ex.ID] = records
		}
		pairs = append(pairs, models.ExercisePair{ProgramExercise: pe, Exercise: ex})
	}

	return models.ProgramExecutionSession{
		Program:   p,
		Exercises: pairs,
		Sets: setbuilder.BuildInitialSets(pairs, prefill, func(id int64) []models.TrainingRecord {
			return history[id]
		}),
	}, nil
}

// Load builds a runner for a stored program, with settings adjusted by the
// program's timer options. A missing program or one with no resolvable
// exercises is a load failure and no runner is created.
func Load(ctx context.Context, repo Repository, programID int64, settings Settings, opts Options) (*Runner, error) {
	session, err := LoadSession(ctx, repo, programID, settings.PrefillPreviousRecord)
	if err != nil {
		return nil, err
	}
	if len(session.Exercises) == 0 {
		return nil, fmt.Errorf("program %d: %w", programID, ErrEmptyProgram)
	}
	return New(session, settings.ForProgram(session.Program), repo, opts), nil
}
