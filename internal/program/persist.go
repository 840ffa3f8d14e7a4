package program

import (
	"context"
	"time"

	"github.com/claude/calilog/internal/models"
)

// persisted reports whether a set carries a value worth saving.
func persisted(s models.ProgramWorkoutSet) bool {
	return s.IsCompleted || s.ActualValue > 0
}

// persist writes the record groups of a run in one repository call, one
// group per exercise that has at least one persisted set. Unilateral sets
// are written as Right/Left pairs per set number. It returns the number of
// exercises written.
func persist(ctx context.Context, store Store, session models.ProgramExecutionSession, now time.Time) (int, error) {
	groups := recordGroups(session)
	if len(groups) == 0 {
		return 0, nil
	}
	date, clock := now.Format(models.DateLayout), now.Format(models.TimeLayout)
	if err := store.SaveTrainingSession(ctx, groups, date, clock, session.Comment); err != nil {
		return 0, err
	}
	return len(groups), nil
}

func recordGroups(session models.ProgramExecutionSession) []models.RecordGroup {
	var groups []models.RecordGroup
	for i, pair := range session.Exercises {
		sets := session.SetsFor(i)
		ex := pair.Exercise

		if ex.IsUnilateral() {
			right, left := unilateralValues(sets)
			if len(right) > 0 {
				groups = append(groups, models.RecordGroup{ExerciseID: ex.ID, Right: right, Left: left})
			}
			continue
		}

		var values []int
		for _, s := range sets {
			if persisted(s) {
				values = append(values, s.ActualValue)
			}
		}
		if len(values) > 0 {
			groups = append(groups, models.RecordGroup{ExerciseID: ex.ID, Right: values})
		}
	}
	return groups
}

func unilateralValues(sets []models.ProgramWorkoutSet) (right, left []int) {
	type pair struct {
		right, left models.ProgramWorkoutSet
		keep        bool
	}
	var order []int
	byNumber := make(map[int]*pair)
	for _, s := range sets {
		p, ok := byNumber[s.SetNumber]
		if !ok {
			p = &pair{}
			byNumber[s.SetNumber] = p
			order = append(order, s.SetNumber)
		}
		if s.Side == models.SideLeft {
			p.left = s
		} else {
			p.right = s
		}
		p.keep = p.keep || persisted(s)
	}
	for _, n := range order {
		p := byNumber[n]
		if !p.keep {
			continue
		}
		right = append(right, p.right.ActualValue)
		left = append(left, p.left.ActualValue)
	}
	return right, left
}
