package interval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/notify"
	"github.com/claude/calilog/internal/setbuilder"
	"github.com/claude/calilog/internal/timer"
)

var (
	ErrIllegalAction  = errors.New("action not allowed in current phase")
	ErrInvalidProgram = errors.New("interval program needs exercises, work time and rounds")
	ErrNotFound       = errors.New("interval program not found or has no exercises")
	ErrFinished       = errors.New("run already finished")
	ErrInvalidValue   = errors.New("invalid value")
)

// Outcome records how a finished run ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSaved     Outcome = "saved"
	OutcomeDiscarded Outcome = "discarded"
)

// Settings are the run-wide options of an interval run.
type Settings struct {
	PrepareSeconds int           `json:"prepare_seconds"`
	SettleDelay    time.Duration `json:"settle_delay"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{PrepareSeconds: 5, SettleDelay: 500 * time.Millisecond}
}

// Repository loads interval programs and stores finished runs.
type Repository interface {
	GetIntervalProgramByID(ctx context.Context, id int64) (models.IntervalProgram, error)
	GetIntervalProgramExercisesSync(ctx context.Context, programID int64) ([]models.IntervalProgramExercise, error)
	GetExerciseByID(ctx context.Context, id int64) (models.Exercise, error)
	SaveIntervalRecord(ctx context.Context, record models.IntervalRecord) error
}

// Options carries the collaborators of a Runner.
type Options struct {
	Clock    timer.Clock
	Feedback feedback.Port
	Cues     feedback.Options
	Logger   *slog.Logger
}

// Snapshot is an immutable view of the runner.
type Snapshot struct {
	Phase     Phase                  `json:"phase"`
	Remaining int                    `json:"remaining"`
	Elapsed   int                    `json:"elapsed"`
	Paused    bool                   `json:"paused"`
	Program   models.IntervalProgram `json:"program"`
	Exercises []models.Exercise      `json:"exercises"`
	Settings  Settings               `json:"settings"`
	Comment   string                 `json:"comment,omitempty"`
	Outcome   Outcome                `json:"outcome,omitempty"`
}

// CurrentExercise returns the exercise worked or rested after, if any.
func (s Snapshot) CurrentExercise() (models.Exercise, bool) {
	switch s.Phase.Kind {
	case PhaseWork, PhaseRest:
		if s.Phase.ExerciseIndex < len(s.Exercises) {
			return s.Exercises[s.Phase.ExerciseIndex], true
		}
	}
	return models.Exercise{}, false
}

// Runner is the interval execution state machine.
type Runner struct {
	repo      Repository
	programID int64
	clock     timer.Clock
	fb        *feedback.Emitter
	log       *slog.Logger
	hub       *notify.Hub[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	settings  Settings
	phase     Phase
	program   models.IntervalProgram
	exercises []models.Exercise
	comment   string
	task      *timer.Task
	gen       int
	elapsed   int
	remaining int
	paused    bool
	outcome   Outcome
	closed    bool

	done      chan struct{}
	closeOnce sync.Once
}

// New returns a runner in Loading for the given program.
func New(repo Repository, programID int64, settings Settings, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = timer.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		repo:      repo,
		programID: programID,
		clock:     opts.Clock,
		fb:        feedback.NewEmitter(opts.Feedback, opts.Cues, opts.Logger),
		log:       opts.Logger,
		hub:       notify.NewHub[Snapshot](),
		ctx:       ctx,
		cancel:    cancel,
		settings:  settings,
		phase:     Phase{Kind: PhaseLoading},
		done:      make(chan struct{}),
	}
}

// Open creates a runner and loads its program. On failure the runner is
// closed and only the error is returned.
func Open(ctx context.Context, repo Repository, programID int64, settings Settings, opts Options) (*Runner, error) {
	r := New(repo, programID, settings, opts)
	if err := r.Load(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Load resolves the program and its exercises and moves to Confirm. A
// missing program or one without resolvable exercises ends the run.
func (r *Runner) Load(ctx context.Context) error {
	r.mu.Lock()
	if err := r.require("load", PhaseLoading); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	p, exercises, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.log.Warn("interval program load failed", "program_id", r.programID, "error", err)
		r.finish(OutcomeDiscarded)
		return err
	}
	r.program, r.exercises = p, exercises
	r.phase = Phase{Kind: PhaseConfirm}
	r.publish()
	return nil
}

func (r *Runner) fetch(ctx context.Context) (models.IntervalProgram, []models.Exercise, error) {
	p, err := r.repo.GetIntervalProgramByID(ctx, r.programID)
	if errors.Is(err, models.ErrNotFound) {
		return p, nil, fmt.Errorf("interval program %d: %w", r.programID, ErrNotFound)
	}
	if err != nil {
		return p, nil, fmt.Errorf("loading interval program %d: %w", r.programID, err)
	}
	slots, err := r.repo.GetIntervalProgramExercisesSync(ctx, r.programID)
	if err != nil {
		return p, nil, fmt.Errorf("loading interval program %d exercises: %w", r.programID, err)
	}
	sortSlots(slots)

	var exercises []models.Exercise
	for _, slot := range slots {
		ex, err := r.repo.GetExerciseByID(ctx, slot.ExerciseID)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return p, nil, fmt.Errorf("loading exercise %d: %w", slot.ExerciseID, err)
		}
		exercises = append(exercises, ex)
	}
	if len(exercises) == 0 {
		return p, nil, fmt.Errorf("interval program %d: %w", r.programID, ErrNotFound)
	}
	return p, exercises, nil
}

// State returns the current snapshot.
func (r *Runner) State() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Subscribe delivers a snapshot after every change.
func (r *Runner) Subscribe() (<-chan Snapshot, func()) {
	return r.hub.Subscribe(16)
}

// Done is closed once the run was saved, discarded, failed to load or was
// closed.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Start leaves Confirm.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("start", PhaseConfirm); err != nil {
		return err
	}
	if !setbuilder.IsValidIntervalProgram(r.program, len(r.exercises)) {
		return ErrInvalidProgram
	}
	r.fb.Setup()
	r.log.Info("interval run started", "program", r.program.Name, "rounds", r.program.Rounds, "exercises", len(r.exercises))
	if r.settings.PrepareSeconds > 0 {
		r.enter(Phase{Kind: PhasePrepare})
	} else {
		r.enter(Work(1, 0))
	}
	return nil
}

// UpdateSettings replaces the run settings while in Confirm.
func (r *Runner) UpdateSettings(s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("update settings", PhaseConfirm); err != nil {
		return err
	}
	if s.PrepareSeconds < 0 {
		return fmt.Errorf("prepare seconds %d: %w", s.PrepareSeconds, ErrInvalidValue)
	}
	r.settings = s
	r.publish()
	return nil
}

// Skip ends Prepare, Rest or RoundRest early.
func (r *Runner) Skip() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("skip", PhasePrepare, PhaseRest, PhaseRoundRest); err != nil {
		return err
	}
	r.enter(r.next())
	return nil
}

// Stop ends the run early and records how far it got.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome != OutcomeNone || r.closed {
		return ErrFinished
	}
	complete, ok := Stopped(r.phase, len(r.exercises))
	if !ok {
		return fmt.Errorf("%w: stop in %s", ErrIllegalAction, r.phase.Kind)
	}
	r.log.Info("interval run stopped", "program", r.program.Name, "phase", r.phase.Kind, "round", r.phase.Round)
	r.enter(complete)
	return nil
}

// Pause freezes the active countdown.
func (r *Runner) Pause() error { return r.setPaused(true) }

// Resume continues a paused countdown.
func (r *Runner) Resume() error { return r.setPaused(false) }

func (r *Runner) setPaused(p bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("pause", PhasePrepare, PhaseWork, PhaseRest, PhaseRoundRest); err != nil {
		return err
	}
	r.paused = p
	if r.task != nil {
		if p {
			r.task.Pause()
		} else {
			r.task.Resume()
		}
	}
	r.publish()
	return nil
}

// UpdateComment sets the comment saved with the record.
func (r *Runner) UpdateComment(comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("update comment", PhaseConfirm, PhaseComplete); err != nil {
		return err
	}
	r.comment = comment
	r.publish()
	return nil
}

// Save persists the interval record. On failure the run stays in Complete.
func (r *Runner) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("save", PhaseComplete); err != nil {
		return err
	}
	record, err := BuildRecord(r.program, r.exercises, r.phase, r.comment, r.clock.Now())
	if err != nil {
		return err
	}
	if err := r.repo.SaveIntervalRecord(ctx, record); err != nil {
		r.log.Error("saving interval run failed", "program", r.program.Name, "error", err)
		return fmt.Errorf("saving interval record: %w", err)
	}
	r.log.Info("interval run saved", "program", r.program.Name,
		"completed_rounds", record.CompletedRounds, "full", r.phase.IsFullCompletion)
	r.finish(OutcomeSaved)
	return nil
}

// Discard drops the run without persisting.
func (r *Runner) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("discard", PhaseConfirm, PhaseComplete); err != nil {
		return err
	}
	r.finish(OutcomeDiscarded)
	return nil
}

// Close tears the run down on every exit path. Safe to call more than once.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.stopTask()
		r.closed = true
		if r.outcome == OutcomeNone {
			r.outcome = OutcomeDiscarded
			close(r.done)
		}
		r.mu.Unlock()

		r.cancel()
		r.wg.Wait()
		r.fb.Teardown()
		r.hub.Close()
	})
}

// BuildRecord snapshots a finished run. Exercises lists the names that were
// attempted: all of them once a round was completed, otherwise the ones
// reached in the first round.
func BuildRecord(p models.IntervalProgram, exercises []models.Exercise, phase Phase, comment string, now time.Time) (models.IntervalRecord, error) {
	attempted := exercises
	if phase.CompletedRounds == 0 && !phase.IsFullCompletion {
		attempted = exercises[:min(phase.CompletedExercisesInLastRound, len(exercises))]
	}
	names := make([]string, 0, len(attempted))
	for _, ex := range attempted {
		names = append(names, ex.Name)
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return models.IntervalRecord{}, fmt.Errorf("encoding exercise names: %w", err)
	}
	return models.IntervalRecord{
		ProgramID:                     p.ID,
		ProgramName:                   p.Name,
		WorkSeconds:                   p.WorkSeconds,
		RestSeconds:                   p.RestSeconds,
		Rounds:                        p.Rounds,
		RoundRestSeconds:              p.RoundRestSeconds,
		CompletedRounds:               phase.CompletedRounds,
		CompletedExercisesInLastRound: phase.CompletedExercisesInLastRound,
		Exercises:                     string(encoded),
		Date:                          now.Format(models.DateLayout),
		Time:                          now.Format(models.TimeLayout),
		Comment:                       comment,
	}, nil
}

func (r *Runner) require(action string, allowed ...PhaseKind) error {
	if r.outcome != OutcomeNone || r.closed {
		return ErrFinished
	}
	for _, k := range allowed {
		if r.phase.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrIllegalAction, action, r.phase.Kind)
}

// next returns the phase that follows the current one when its countdown
// ends or is skipped.
func (r *Runner) next() Phase {
	switch r.phase.Kind {
	case PhasePrepare:
		return Work(1, 0)
	case PhaseWork:
		return AfterWork(r.program, len(r.exercises), r.phase.Round, r.phase.ExerciseIndex)
	case PhaseRest:
		return AfterRest(r.phase.Round, r.phase.ExerciseIndex)
	case PhaseRoundRest:
		return AfterRoundRest(r.phase.Round)
	}
	return r.phase
}

func (r *Runner) duration(p Phase) int {
	switch p.Kind {
	case PhasePrepare:
		return r.settings.PrepareSeconds
	case PhaseWork:
		return r.program.WorkSeconds
	case PhaseRest:
		return r.program.RestSeconds
	case PhaseRoundRest:
		return r.program.RoundRestSeconds
	}
	return 0
}

// enter replaces the current phase, stopping the previous countdown first.
func (r *Runner) enter(p Phase) {
	r.stopTask()
	r.gen++
	r.phase = p
	r.elapsed, r.remaining = 0, 0
	r.paused = false
	r.fb.PhaseTransition()

	if p.Active() {
		seconds := r.duration(p)
		r.remaining = seconds
		r.startTask(timer.Spec{
			Total:  seconds,
			Settle: r.settings.SettleDelay,
			OnTick: func(n int) {
				r.elapsed = n
				r.remaining = seconds - n
				if r.remaining >= 1 && r.remaining <= 3 {
					r.fb.CountdownTick()
				}
			},
			OnDone: func() { r.enter(r.next()) },
		})
	}
	r.log.Debug("interval phase", "kind", p.Kind, "round", p.Round, "exercise_index", p.ExerciseIndex)
	r.publish()
}

func (r *Runner) startTask(spec timer.Spec) {
	r.stopTask()
	gen := r.gen
	guard := func(fn func()) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen || r.outcome != OutcomeNone || r.closed {
			return
		}
		fn()
		r.publish()
	}
	onTick, onDone := spec.OnTick, spec.OnDone
	spec.OnTick = func(n int) { guard(func() { onTick(n) }) }
	spec.OnDone = func() { guard(onDone) }

	task := timer.Start(r.ctx, r.clock, spec)
	r.task = task
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		task.Wait()
	}()
}

func (r *Runner) stopTask() {
	if r.task != nil {
		r.task.Stop()
		r.task = nil
	}
}

func (r *Runner) finish(o Outcome) {
	r.stopTask()
	r.outcome = o
	close(r.done)
	r.publish()
}

func (r *Runner) snapshot() Snapshot {
	return Snapshot{
		Phase:     r.phase,
		Remaining: r.remaining,
		Elapsed:   r.elapsed,
		Paused:    r.paused,
		Program:   r.program,
		Exercises: append([]models.Exercise(nil), r.exercises...),
		Settings:  r.settings,
		Comment:   r.comment,
		Outcome:   r.outcome,
	}
}

func (r *Runner) publish() {
	r.hub.Publish(r.snapshot())
}
