package program

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/notify"
	"github.com/claude/calilog/internal/setbuilder"
	"github.com/claude/calilog/internal/timer"
)

// Options carries the collaborators of a Runner. Zero values select the
// real clock, no feedback and a discarding logger.
type Options struct {
	Clock    timer.Clock
	Feedback feedback.Port
	Cues     feedback.Options
	Logger   *slog.Logger
}

// Runner is the program execution state machine. All methods are safe for
// concurrent use; events are applied one at a time.
type Runner struct {
	store Store
	clock timer.Clock
	fb    *feedback.Emitter
	log   *slog.Logger
	hub   *notify.Hub[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	step      Step
	session   models.ProgramExecutionSession
	version   int
	settings  Settings
	exec      executor
	task      *timer.Task
	gen       int
	elapsed   int
	remaining int
	count     int
	finishing bool
	paused    bool
	outcome   Outcome
	closed    bool

	done      chan struct{}
	closeOnce sync.Once
}

// New returns a runner in Confirm for session.
func New(session models.ProgramExecutionSession, settings Settings, store Store, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = timer.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:    store,
		clock:    opts.Clock,
		fb:       feedback.NewEmitter(opts.Feedback, opts.Cues, opts.Logger),
		log:      opts.Logger,
		hub:      notify.NewHub[Snapshot](),
		ctx:      ctx,
		cancel:   cancel,
		step:     Step{Kind: StepConfirm},
		session:  session.Clone(),
		settings: settings,
		done:     make(chan struct{}),
	}
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

// Done is closed once the run was saved, discarded or closed.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Start leaves Confirm and begins the first set.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("start", StepConfirm); err != nil {
		return err
	}
	if !setbuilder.IsValidSession(r.session) {
		return ErrInvalidProgram
	}
	r.fb.Setup()
	r.log.Info("program run started", "program", r.session.Program.Name, "sets", len(r.session.Sets))
	r.advance(0)
	return nil
}

// UpdateSettings replaces the run settings while in Confirm.
func (r *Runner) UpdateSettings(s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("update settings", StepConfirm); err != nil {
		return err
	}
	if s.StartCountdownSeconds < 0 {
		return fmt.Errorf("start countdown %d: %w", s.StartCountdownSeconds, ErrInvalidValue)
	}
	r.settings = s
	r.changed()
	return nil
}

// UpdateTargetValue sets the target of one set while in Confirm.
func (r *Runner) UpdateTargetValue(setIndex, value int) error {
	return r.edit("update target", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		return setbuilder.WithTargetValue(s, setIndex, value)
	})
}

// UpdateInterval sets the rest interval of one exercise while in Confirm.
func (r *Runner) UpdateInterval(exerciseIndex, seconds int) error {
	return r.edit("update interval", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		return setbuilder.WithInterval(s, exerciseIndex, seconds)
	})
}

// UpdateSetCount resizes one exercise while in Confirm.
func (r *Runner) UpdateSetCount(exerciseIndex, count int) error {
	return r.edit("update set count", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
			return s, fmt.Errorf("exercise index %d: %w", exerciseIndex, setbuilder.ErrOutOfRange)
		}
		return setbuilder.ResizeExerciseSets(s, exerciseIndex, count), nil
	})
}

// AdjustSetValues shifts every target of one exercise while in Confirm.
func (r *Runner) AdjustSetValues(exerciseIndex, delta int) error {
	return r.edit("adjust values", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		if exerciseIndex < 0 || exerciseIndex >= len(s.Exercises) {
			return s, fmt.Errorf("exercise index %d: %w", exerciseIndex, setbuilder.ErrOutOfRange)
		}
		return setbuilder.AdjustSetValues(s, exerciseIndex, delta), nil
	})
}

// UseProgramValues resets every set to the program configuration.
func (r *Runner) UseProgramValues() error {
	return r.edit("use program values", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		return setbuilder.BuildProgramValueSets(s), nil
	})
}

// UseChallengeValues resets every set to the exercises' challenge defaults.
func (r *Runner) UseChallengeValues() error {
	return r.edit("use challenge values", func(s models.ProgramExecutionSession) (models.ProgramExecutionSession, error) {
		return setbuilder.BuildChallengeValueSets(s), nil
	})
}

// UsePreviousRecordValues rebuilds the sets from training history. History
// is fetched without holding the runner; if the session was edited in the
// meantime the rebuild is dropped and ErrSessionChanged returned.
func (r *Runner) UsePreviousRecordValues(ctx context.Context) error {
	r.mu.Lock()
	if err := r.require("use previous values", StepConfirm); err != nil {
		r.mu.Unlock()
		return err
	}
	base, version := r.session.Clone(), r.version
	r.mu.Unlock()

	rebuilt, err := setbuilder.BuildPreviousRecordValueSets(ctx, base, r.store)
	if err != nil {
		return fmt.Errorf("rebuilding from history: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("use previous values", StepConfirm); err != nil {
		return err
	}
	if r.version != version {
		return ErrSessionChanged
	}
	r.session = rebuilt
	r.changed()
	return nil
}

// UpdateComment sets the free-text comment saved with the run.
func (r *Runner) UpdateComment(comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("update comment", StepConfirm, StepResult); err != nil {
		return err
	}
	r.session.Comment = comment
	r.changed()
	return nil
}

// SetComplete records actualValue for the executing set and moves on.
func (r *Runner) SetComplete(actualValue int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("complete set", StepExecuting); err != nil {
		return err
	}
	if actualValue < 0 {
		return fmt.Errorf("actual value %d: %w", actualValue, ErrInvalidValue)
	}
	r.completeSet(actualValue)
	return nil
}

// CompleteMeasured completes the executing set with the value measured by
// its timing variant: counted reps or held seconds.
func (r *Runner) CompleteMeasured() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("complete set", StepExecuting); err != nil {
		return err
	}
	r.completeSet(r.exec.measured(r))
	return nil
}

// Tap counts one rep in the counter variants.
func (r *Runner) Tap() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("tap", StepExecuting); err != nil {
		return err
	}
	if err := r.exec.tap(r); err != nil {
		return err
	}
	r.publish()
	return nil
}

// Skip ends a rest interval early.
func (r *Runner) Skip() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("skip", StepInterval); err != nil {
		return err
	}
	r.advance(r.step.SetIndex + 1)
	return nil
}

// Abort stops execution and goes to Result with the sets as they are.
func (r *Runner) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("abort", StepStartInterval, StepExecuting, StepInterval); err != nil {
		return err
	}
	r.log.Info("program run aborted", "program", r.session.Program.Name, "set_index", r.step.SetIndex)
	r.enter(Step{Kind: StepResult})
	return nil
}

// Pause freezes the active countdown.
func (r *Runner) Pause() error { return r.setPaused(true) }

// Resume continues a paused countdown.
func (r *Runner) Resume() error { return r.setPaused(false) }

func (r *Runner) setPaused(p bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("pause", StepStartInterval, StepExecuting, StepInterval); err != nil {
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

// UpdateActualValue corrects a recorded value while in Result.
func (r *Runner) UpdateActualValue(setIndex, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("update actual value", StepResult); err != nil {
		return err
	}
	if setIndex < 0 || setIndex >= len(r.session.Sets) {
		return fmt.Errorf("set index %d: %w", setIndex, setbuilder.ErrOutOfRange)
	}
	if value < 0 {
		return fmt.Errorf("actual value %d: %w", value, ErrInvalidValue)
	}
	r.session.Sets[setIndex].ActualValue = value
	r.changed()
	return nil
}

// Save persists the run. On failure the run stays in Result so Save can be
// retried.
func (r *Runner) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("save", StepResult); err != nil {
		return err
	}
	n, err := persist(ctx, r.store, r.session, r.clock.Now())
	if err != nil {
		r.log.Error("saving program run failed", "program", r.session.Program.Name, "error", err)
		return fmt.Errorf("saving run: %w", err)
	}
	r.log.Info("program run saved", "program", r.session.Program.Name, "exercises", n)
	r.finish(OutcomeSaved)
	return nil
}

// Cancel discards the run without persisting anything.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require("cancel", StepConfirm, StepResult); err != nil {
		return err
	}
	r.log.Info("program run discarded", "program", r.session.Program.Name)
	r.finish(OutcomeDiscarded)
	return nil
}

// Close tears the run down: the active countdown is stopped, feedback
// devices are released and subscribers are closed. It runs on every exit
// path and is safe to call more than once.
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

func (r *Runner) require(action string, allowed ...StepKind) error {
	if r.outcome != OutcomeNone || r.closed {
		return ErrFinished
	}
	for _, k := range allowed {
		if r.step.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrIllegalAction, action, r.step.Kind)
}

func (r *Runner) edit(action string, fn func(models.ProgramExecutionSession) (models.ProgramExecutionSession, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.require(action, StepConfirm); err != nil {
		return err
	}
	next, err := fn(r.session)
	if err != nil {
		return err
	}
	r.session = next
	r.changed()
	return nil
}

func (r *Runner) changed() {
	r.version++
	r.publish()
}

// completeSet marks the executing set done and picks the next step.
func (r *Runner) completeSet(value int) {
	i := r.step.SetIndex
	r.session.Sets[i].ActualValue = value
	r.session.Sets[i].IsCompleted = true
	r.log.Debug("set completed", "set_index", i, "value", value)

	switch {
	case r.session.IsLastSet(i):
		r.enter(Step{Kind: StepResult})
	case r.session.Sets[i].IntervalSeconds > 0:
		r.enter(Step{Kind: StepInterval, SetIndex: i})
	default:
		r.advance(i + 1)
	}
}

// advance begins set next, through the start countdown when configured.
func (r *Runner) advance(next int) {
	if r.settings.StartCountdownSeconds > 0 {
		r.enter(Step{Kind: StepStartInterval, SetIndex: next})
		return
	}
	r.enter(Step{Kind: StepExecuting, SetIndex: next})
}

// enter replaces the current step. The previous step's task is stopped
// before the new one starts.
func (r *Runner) enter(step Step) {
	r.stopTask()
	r.gen++
	r.step = step
	r.exec = nil
	r.elapsed, r.remaining, r.count = 0, 0, 0
	r.finishing = false
	r.paused = false

	r.fb.PhaseTransition()
	switch step.Kind {
	case StepStartInterval:
		r.countdown(r.settings.StartCountdownSeconds, func() {
			r.enter(Step{Kind: StepExecuting, SetIndex: step.SetIndex})
		})
	case StepExecuting:
		set := r.session.Sets[step.SetIndex]
		ex := r.session.Exercises[set.ExerciseIndex].Exercise
		r.exec = newExecutor(SelectVariant(r.settings, ex.Type))
		r.exec.start(r, set)
	case StepInterval:
		r.countdown(r.session.Sets[step.SetIndex].IntervalSeconds, func() {
			r.advance(step.SetIndex + 1)
		})
	}
	r.log.Debug("program step", "kind", step.Kind, "set_index", step.SetIndex)
	r.publish()
}

func (r *Runner) countdown(seconds int, next func()) {
	r.remaining = seconds
	r.startTask(timer.Spec{
		Total:  seconds,
		Settle: r.settings.SettleDelay,
		OnTick: func(n int) {
			r.elapsed = n
			r.remaining = seconds - n
			r.countdownCue()
		},
		OnDone: next,
	})
}

func (r *Runner) countdownCue() {
	if r.remaining >= 1 && r.remaining <= 3 {
		r.fb.CountdownTick()
	}
}

// addRep counts one rep of an auto-paced dynamic set and completes the set
// once the target is reached.
func (r *Runner) addRep(target int) {
	if r.finishing {
		return
	}
	r.count++
	r.remaining = max(target-r.count, 0)
	r.fb.CountdownTick()
	if r.count >= target {
		r.finishAfterSettle(r.count)
	}
}

// finishAfterSettle completes the executing set once the settle delay has
// passed.
func (r *Runner) finishAfterSettle(value int) {
	r.finishing = true
	r.startTask(timer.Spec{Settle: r.settings.SettleDelay, OnDone: func() { r.completeSet(value) }})
}

// startTask replaces the running task. Callbacks run under the runner lock
// and are dropped once the step that spawned them is gone.
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
	if onTick != nil {
		spec.OnTick = func(n int) { guard(func() { onTick(n) }) }
	}
	if onDone != nil {
		spec.OnDone = func() { guard(onDone) }
	}

	task := timer.Start(r.ctx, r.clock, spec)
	if r.paused {
		task.Pause()
	}
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
	s := Snapshot{
		Step:      r.step,
		Elapsed:   r.elapsed,
		Remaining: r.remaining,
		Count:     r.count,
		Paused:    r.paused,
		Session:   r.session.Clone(),
		Settings:  r.settings,
		Outcome:   r.outcome,
	}
	if r.exec != nil {
		s.Variant = r.exec.variant()
	}
	return s
}

func (r *Runner) publish() {
	r.hub.Publish(r.snapshot())
}
