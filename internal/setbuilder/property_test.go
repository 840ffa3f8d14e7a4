package setbuilder

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/claude/calilog/internal/models"
)

func genPair() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 6),
		gen.IntRange(0, 50),
		gen.IntRange(0, 120),
		gen.Bool(),
	).Map(func(v []any) models.ExercisePair {
		lat := models.Bilateral
		if v[3].(bool) {
			lat = models.Unilateral
		}
		return models.ExercisePair{
			ProgramExercise: models.ProgramExercise{Sets: v[0].(int), TargetValue: v[1].(int), IntervalSeconds: v[2].(int)},
			Exercise:        models.Exercise{Type: models.Dynamic, Laterality: lat},
		}
	})
}

func TestSetBuilderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("unilateral exercises produce 2n sets, bilateral n", prop.ForAll(
		func(pairs []models.ExercisePair) bool {
			sets := BuildInitialSets(pairs, false, nil)
			for i, p := range pairs {
				var got []models.ProgramWorkoutSet
				for _, s := range sets {
					if s.ExerciseIndex == i {
						got = append(got, s)
					}
				}
				want := p.ProgramExercise.Sets
				if p.Exercise.IsUnilateral() {
					want *= 2
				}
				if len(got) != want {
					return false
				}
				if p.Exercise.IsUnilateral() {
					for j := 0; j < len(got); j += 2 {
						if got[j].Side != models.SideRight || got[j+1].Side != models.SideLeft ||
							got[j].SetNumber != got[j+1].SetNumber {
							return false
						}
					}
				}
			}
			return true
		},
		gen.SliceOf(genPair()),
	))

	properties.Property("program value rebuild is idempotent", prop.ForAll(
		func(pairs []models.ExercisePair, delta int) bool {
			s := models.ProgramExecutionSession{Exercises: pairs, Sets: BuildInitialSets(pairs, false, nil)}
			for i := range pairs {
				s = AdjustSetValues(s, i, delta)
			}
			once := BuildProgramValueSets(s)
			twice := BuildProgramValueSets(once)
			if len(once.Sets) != len(twice.Sets) {
				return false
			}
			for i := range once.Sets {
				if once.Sets[i].TargetValue != twice.Sets[i].TargetValue ||
					once.Sets[i].IntervalSeconds != twice.Sets[i].IntervalSeconds {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genPair()),
		gen.IntRange(-20, 20),
	))

	properties.Property("resize leaves other exercises untouched", prop.ForAll(
		func(pairs []models.ExercisePair, k, count int) bool {
			if len(pairs) == 0 {
				return true
			}
			k %= len(pairs)
			s := models.ProgramExecutionSession{Exercises: pairs, Sets: BuildInitialSets(pairs, false, nil)}
			s = AdjustSetValues(s, k, 3)
			before := s.SetsFor(k)
			oldCount := SetCount(s, k)

			out := ResizeExerciseSets(s, k, count)
			for j := range pairs {
				if j == k {
					continue
				}
				a, b := s.SetsFor(j), out.SetsFor(j)
				if len(a) != len(b) {
					return false
				}
				for i := range a {
					if a[i] != b[i] && !(a[i].Key() == b[i].Key() && a[i].TargetValue == b[i].TargetValue) {
						return false
					}
				}
			}
			after := out.SetsFor(k)
			keep := min(oldCount, max(count, 1))
			for _, old := range before {
				if old.SetNumber > keep {
					continue
				}
				found := false
				for _, nw := range after {
					if nw.Key() == old.Key() {
						found = nw.TargetValue == old.TargetValue
					}
				}
				if !found {
					return false
				}
			}
			return SetCount(out, k) == max(count, 1)
		},
		gen.SliceOf(genPair()),
		gen.IntRange(0, 10),
		gen.IntRange(-2, 8),
	))

	properties.TestingRun(t)
}
