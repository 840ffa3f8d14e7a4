package interval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/timer"
)

type fakeRepo struct {
	mu        sync.Mutex
	programs  map[int64]models.IntervalProgram
	slots     map[int64][]models.IntervalProgramExercise
	exercises map[int64]models.Exercise
	saved     []models.IntervalRecord
	saveErr   error
}

func (f *fakeRepo) GetIntervalProgramByID(_ context.Context, id int64) (models.IntervalProgram, error) {
	p, ok := f.programs[id]
	if !ok {
		return models.IntervalProgram{}, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetIntervalProgramExercisesSync(_ context.Context, id int64) ([]models.IntervalProgramExercise, error) {
	return append([]models.IntervalProgramExercise(nil), f.slots[id]...), nil
}

func (f *fakeRepo) GetExerciseByID(_ context.Context, id int64) (models.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return models.Exercise{}, models.ErrNotFound
	}
	return ex, nil
}

func (f *fakeRepo) SaveIntervalRecord(_ context.Context, rec models.IntervalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeRepo) records() []models.IntervalRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.IntervalRecord(nil), f.saved...)
}

var (
	burpees = models.Exercise{ID: 1, Name: "Burpees", Type: models.Dynamic}
	squats  = models.Exercise{ID: 2, Name: "Squats", Type: models.Dynamic}
	hollow  = models.Exercise{ID: 3, Name: "Hollow hold", Type: models.Isometric}
)

// circuit is the program of the round-rest scenarios: 40s work, 20s rest,
// 2 rounds, 60s between rounds.
var circuit = models.IntervalProgram{ID: 7, Name: "Circuit", WorkSeconds: 40, RestSeconds: 20, Rounds: 2, RoundRestSeconds: 60}

func newFakeRepo(p models.IntervalProgram, exercises ...models.Exercise) *fakeRepo {
	f := &fakeRepo{
		programs:  map[int64]models.IntervalProgram{p.ID: p},
		slots:     make(map[int64][]models.IntervalProgramExercise),
		exercises: make(map[int64]models.Exercise),
	}
	for i, ex := range exercises {
		f.exercises[ex.ID] = ex
		f.slots[p.ID] = append(f.slots[p.ID], models.IntervalProgramExercise{ProgramID: p.ID, ExerciseID: ex.ID, SortOrder: i})
	}
	return f
}

type harness struct {
	r     *Runner
	clock *timer.ManualClock
	cues  *feedback.Recorder
	repo  *fakeRepo
}

func newHarness(t *testing.T, repo *fakeRepo, programID int64, prepare int) *harness {
	t.Helper()
	h := &harness{
		clock: timer.NewManualClock(time.Date(2026, 5, 2, 18, 5, 0, 0, time.UTC)),
		cues:  &feedback.Recorder{},
		repo:  repo,
	}
	r, err := Open(context.Background(), repo, programID, Settings{PrepareSeconds: prepare}, Options{
		Clock:    h.clock,
		Feedback: h.cues,
		Cues:     feedback.Options{Sound: true},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h.r = r
	t.Cleanup(r.Close)
	return h
}

func (h *harness) seconds(n int) {
	for i := 0; i < n; i++ {
		h.clock.BlockUntil(1)
		h.clock.Advance(time.Second)
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
			t.Fatalf("timed out waiting for %s; phase = %+v remaining = %d", what, s.Phase, s.Remaining)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) waitPhase(t *testing.T, want Phase) Snapshot {
	t.Helper()
	return h.waitFor(t, string(want.Kind), func(s Snapshot) bool { return s.Phase == want })
}
