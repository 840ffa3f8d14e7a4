package program

import (
	"fmt"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/timer"
)

// Variant is the timing behavior of an executing set.
type Variant string

const (
	// VariantAutoIsometric counts the hold down and completes on its own.
	VariantAutoIsometric Variant = "auto_isometric"
	// VariantAutoDynamic paces reps with a cadence and completes at target.
	VariantAutoDynamic Variant = "auto_dynamic"
	// VariantCounter is a tap counter without a timer.
	VariantCounter Variant = "counter"
	// VariantManualIsometric is a stopwatch the user stops.
	VariantManualIsometric Variant = "manual_isometric"
)

// SelectVariant picks the timing variant for a set. Dynamic sets without
// the count sound always use the plain counter, whatever the auto mode.
func SelectVariant(s Settings, t models.ExerciseType) Variant {
	switch {
	case t == models.Isometric && s.AutoMode:
		return VariantAutoIsometric
	case t == models.Isometric:
		return VariantManualIsometric
	case s.DynamicCountSound && s.AutoMode:
		return VariantAutoDynamic
	default:
		return VariantCounter
	}
}

// executor drives one Executing step. All methods run with the runner
// lock held.
type executor interface {
	variant() Variant
	start(r *Runner, set models.ProgramWorkoutSet)
	tap(r *Runner) error
	measured(r *Runner) int
}

func newExecutor(v Variant) executor {
	switch v {
	case VariantAutoIsometric:
		return autoIsometric{}
	case VariantAutoDynamic:
		return autoDynamic{}
	case VariantManualIsometric:
		return manualIsometric{}
	default:
		return counter{}
	}
}

type autoIsometric struct{}

func (autoIsometric) variant() Variant { return VariantAutoIsometric }

func (autoIsometric) start(r *Runner, set models.ProgramWorkoutSet) {
	target := set.TargetValue
	r.remaining = target
	r.startTask(timer.Spec{
		Total:  target,
		Settle: r.settings.SettleDelay,
		OnTick: func(n int) {
			r.elapsed = n
			r.remaining = target - n
			r.countdownCue()
			if r.settings.IsometricIntervalSound && r.remaining > 0 && n%IsometricCueEvery == 0 {
				r.fb.PhaseTransition()
			}
		},
		OnDone: func() { r.completeSet(target) },
	})
}

func (autoIsometric) tap(*Runner) error {
	return fmt.Errorf("%w: tap during timed hold", ErrIllegalAction)
}

func (autoIsometric) measured(r *Runner) int { return r.elapsed }

type autoDynamic struct{}

func (autoDynamic) variant() Variant { return VariantAutoDynamic }

func (autoDynamic) start(r *Runner, set models.ProgramWorkoutSet) {
	target := set.TargetValue
	r.remaining = target
	if target <= 0 {
		r.finishAfterSettle(0)
		return
	}
	r.startTask(timer.Spec{
		Unbounded: true,
		Interval:  r.settings.RepCadence,
		OnTick: func(int) {
			r.addRep(target)
		},
	})
}

func (autoDynamic) tap(r *Runner) error {
	set := r.session.Sets[r.step.SetIndex]
	r.addRep(set.TargetValue)
	return nil
}

func (autoDynamic) measured(r *Runner) int { return r.count }

type counter struct{}

func (counter) variant() Variant { return VariantCounter }

func (counter) start(*Runner, models.ProgramWorkoutSet) {}

func (counter) tap(r *Runner) error {
	r.count++
	if r.settings.DynamicCountSound {
		r.fb.CountdownTick()
	}
	return nil
}

func (counter) measured(r *Runner) int { return r.count }

type manualIsometric struct{}

func (manualIsometric) variant() Variant { return VariantManualIsometric }

func (manualIsometric) start(r *Runner, _ models.ProgramWorkoutSet) {
	r.startTask(timer.Spec{
		Unbounded: true,
		OnTick: func(n int) {
			r.elapsed = n
			if r.settings.IsometricIntervalSound && n%IsometricCueEvery == 0 {
				r.fb.PhaseTransition()
			}
		},
	})
}

func (manualIsometric) tap(*Runner) error {
	return fmt.Errorf("%w: tap during stopwatch", ErrIllegalAction)
}

func (manualIsometric) measured(r *Runner) int { return r.elapsed }
