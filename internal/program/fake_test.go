package program

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/timer"
)

type savedGroup struct {
	exerciseID  int64
	values      []int
	left        []int
	date, clock string
	comment     string
}

type fakeStore struct {
	mu        sync.Mutex
	programs  map[int64]models.Program
	slots     map[int64][]models.ProgramExercise
	exercises map[int64]models.Exercise
	history   map[int64][]models.TrainingRecord
	saved     []savedGroup
	saveErr   error
	saveCalls int

	failExercise int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		programs:  make(map[int64]models.Program),
		slots:     make(map[int64][]models.ProgramExercise),
		exercises: make(map[int64]models.Exercise),
		history:   make(map[int64][]models.TrainingRecord),
	}
}

func (f *fakeStore) GetProgramByID(_ context.Context, id int64) (models.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return models.Program{}, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetProgramExercisesSync(_ context.Context, id int64) ([]models.ProgramExercise, error) {
	return append([]models.ProgramExercise(nil), f.slots[id]...), nil
}

func (f *fakeStore) GetExerciseByID(_ context.Context, id int64) (models.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return models.Exercise{}, models.ErrNotFound
	}
	return ex, nil
}

func (f *fakeStore) GetLatestSession(_ context.Context, id int64) ([]models.TrainingRecord, error) {
	return f.history[id], nil
}

// SaveTrainingSession stores every group or none: saveErr fails the whole
// call, and failExercise fails any call that contains that exercise.
func (f *fakeStore) SaveTrainingSession(_ context.Context, groups []models.RecordGroup, date, clock, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, g := range groups {
		if f.failExercise != 0 && g.ExerciseID == f.failExercise {
			return fmt.Errorf("exercise %d: constraint violation", g.ExerciseID)
		}
	}
	for _, g := range groups {
		f.saved = append(f.saved, savedGroup{exerciseID: g.ExerciseID, values: g.Right, left: g.Left, date: date, clock: clock, comment: comment})
	}
	return nil
}

var (
	pushups = models.Exercise{ID: 1, Name: "Pushups", Type: models.Dynamic, Laterality: models.Bilateral}
	plank   = models.Exercise{ID: 2, Name: "Plank", Type: models.Isometric, Laterality: models.Bilateral}
	lunges  = models.Exercise{ID: 3, Name: "Lunges", Type: models.Dynamic, Laterality: models.Unilateral}
)

func pair(ex models.Exercise, sets, target, interval int) models.ExercisePair {
	return models.ExercisePair{
		ProgramExercise: models.ProgramExercise{ExerciseID: ex.ID, Sets: sets, TargetValue: target, IntervalSeconds: interval},
		Exercise:        ex,
	}
}

func newSession(pairs ...models.ExercisePair) models.ProgramExecutionSession {
	s := models.ProgramExecutionSession{Program: models.Program{ID: 1, Name: "Test program"}, Exercises: pairs}
	for i, p := range pairs {
		for n := 1; n <= p.ProgramExercise.Sets; n++ {
			sides := []models.Side{models.SideNone}
			if p.Exercise.IsUnilateral() {
				sides = []models.Side{models.SideRight, models.SideLeft}
			}
			for _, side := range sides {
				s.Sets = append(s.Sets, models.ProgramWorkoutSet{
					ExerciseIndex: i, SetNumber: n, Side: side,
					TargetValue: p.ProgramExercise.TargetValue, IntervalSeconds: p.ProgramExercise.IntervalSeconds,
				})
			}
		}
	}
	return s
}

func testSettings() Settings {
	return Settings{
		DynamicCountSound:      true,
		IsometricIntervalSound: true,
		RepCadence:             2 * time.Second,
	}
}

type harness struct {
	r     *Runner
	clock *timer.ManualClock
	cues  *feedback.Recorder
	store *fakeStore
}

func newHarness(t *testing.T, session models.ProgramExecutionSession, settings Settings) *harness {
	t.Helper()
	h := &harness{
		clock: timer.NewManualClock(time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)),
		cues:  &feedback.Recorder{},
		store: newFakeStore(),
	}
	h.r = New(session, settings, h.store, Options{
		Clock:    h.clock,
		Feedback: h.cues,
		Cues:     feedback.Options{Sound: true},
	})
	t.Cleanup(h.r.Close)
	return h
}

// tick advances the clock by d once the active task is waiting.
func (h *harness) tick(d time.Duration) {
	h.clock.BlockUntil(1)
	h.clock.Advance(d)
}

func (h *harness) seconds(n int) {
	for i := 0; i < n; i++ {
		h.tick(time.Second)
	}
}

// waitFor polls the runner until cond holds.
func (h *harness) waitFor(t *testing.T, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := h.r.State()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; step = %+v", what, s.Step)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) waitStep(t *testing.T, want Step) Snapshot {
	t.Helper()
	return h.waitFor(t, string(want.Kind), func(s Snapshot) bool { return s.Step == want })
}

func (h *harness) mustStep(t *testing.T, want Step) {
	t.Helper()
	if got := h.r.State().Step; got != want {
		t.Fatalf("step = %+v, want %+v", got, want)
	}
}
