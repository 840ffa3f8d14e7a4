package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/program"
	"github.com/claude/calilog/internal/setbuilder"
)

var (
	errUnknownCommand = errors.New("unknown command, type help")
	errUsage          = errors.New("wrong number of arguments")
	errQuit           = errors.New("quit")
)

const programHelp = `start              begin the workout
tap | t            count one rep
done [value]       finish the set, with the counted value when none is given
skip               end the rest early
pause | resume
abort              stop and review the sets
target <set> <v>   set a target value (Confirm)
actual <set> <v>   correct a recorded value (Result)
rest <ex> <sec>    rest after each set of an exercise (Confirm)
sets <ex> <n>      number of sets of an exercise (Confirm)
adjust <ex> <d>    add d to every target of an exercise (Confirm)
program | challenge | previous
                   reset targets from the program, the exercise challenge or the last session
comment <text>
save | cancel
quit`

const intervalHelp = `start              begin the circuit
skip               end the countdown or rest early
stop               finish now and keep the progress
pause | resume
comment <text>
save | discard
quit`

// lockedWriter serializes the command loop's output with the bell, which
// rings from the countdown goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runProgram(ctx context.Context, env *env, id int64, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	r, err := program.Load(ctx, env.store, id, env.cfg.ProgramSettings(), program.Options{
		Feedback: feedback.NewTerminal(out),
		Cues:     env.cfg.FeedbackOptions(),
		Logger:   env.log,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()
	return drive(ctx, in, out, updates, r.Done(), r.State, renderProgram, func(line string) error {
		return programCommand(ctx, r, line, out)
	})
}

func runInterval(ctx context.Context, env *env, id int64, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	r, err := interval.Open(ctx, env.store, id, env.cfg.IntervalSettings(), interval.Options{
		Feedback: feedback.NewTerminal(out),
		Cues:     env.cfg.FeedbackOptions(),
		Logger:   env.log,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()
	return drive(ctx, in, out, updates, r.Done(), r.State, renderInterval, func(line string) error {
		return intervalCommand(ctx, r, line, out)
	})
}

// drive prints every distinct view of the run and feeds input lines to
// handle until the run finishes, input ends or ctx is cancelled. Leaving
// early discards the run through the caller's Close.
func drive[S any](ctx context.Context, in io.Reader, out io.Writer, updates <-chan S, done <-chan struct{},
	state func() S, render func(S) string, handle func(string) error) error {
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
	}()

	var last string
	show := func(s S) {
		if view := render(s); view != last {
			fmt.Fprintln(out, view)
			last = view
		}
	}
	show(state())
	// Updates published by a command are shown before the next one runs.
	drain := func() {
		for {
			select {
			case s, ok := <-updates:
				if !ok {
					return
				}
				show(s)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			drain()
			show(state())
			return nil
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			show(s)
		case line, ok := <-lines:
			drain()
			if !ok {
				show(state())
				return nil
			}
			err := handle(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(out, renderError(err))
			}
		}
	}
}

func programCommand(ctx context.Context, r *program.Runner, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch fields[0] {
	case "start":
		return r.Start()
	case "tap", "t":
		return r.Tap()
	case "done", "d":
		if len(args) == 0 {
			return r.CompleteMeasured()
		}
		v, err := setbuilder.ParseNonNegative(args[0])
		if err != nil {
			return err
		}
		return r.SetComplete(v)
	case "skip":
		return r.Skip()
	case "pause":
		return r.Pause()
	case "resume":
		return r.Resume()
	case "abort":
		return r.Abort()
	case "target", "actual":
		i, v, err := indexAndValue(args)
		if err != nil {
			return err
		}
		if fields[0] == "target" {
			return r.UpdateTargetValue(i, v)
		}
		return r.UpdateActualValue(i, v)
	case "rest", "sets":
		i, v, err := indexAndValue(args)
		if err != nil {
			return err
		}
		if fields[0] == "rest" {
			return r.UpdateInterval(i, v)
		}
		return r.UpdateSetCount(i, v)
	case "adjust":
		if len(args) != 2 {
			return errUsage
		}
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		delta, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("delta %q: %w", args[1], setbuilder.ErrMalformedNumber)
		}
		return r.AdjustSetValues(i, delta)
	case "program":
		return r.UseProgramValues()
	case "challenge":
		return r.UseChallengeValues()
	case "previous":
		return r.UsePreviousRecordValues(ctx)
	case "comment":
		return r.UpdateComment(restOf(line, fields[0]))
	case "save":
		return r.Save(ctx)
	case "cancel":
		return r.Cancel()
	case "help", "?":
		fmt.Fprintln(out, mutedStyle.Render(programHelp))
		return nil
	case "quit", "q":
		return errQuit
	}
	return errUnknownCommand
}

func intervalCommand(ctx context.Context, r *interval.Runner, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "start":
		return r.Start()
	case "skip":
		return r.Skip()
	case "stop", "abort":
		return r.Stop()
	case "pause":
		return r.Pause()
	case "resume":
		return r.Resume()
	case "comment":
		return r.UpdateComment(restOf(line, fields[0]))
	case "save":
		return r.Save(ctx)
	case "discard", "cancel":
		return r.Discard()
	case "help", "?":
		fmt.Fprintln(out, mutedStyle.Render(intervalHelp))
		return nil
	case "quit", "q":
		return errQuit
	}
	return errUnknownCommand
}

// parseIndex converts a 1-based position as shown on screen.
func parseIndex(s string) (int, error) {
	n, err := setbuilder.ParseNonNegative(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("position %q: %w", s, setbuilder.ErrOutOfRange)
	}
	return n - 1, nil
}

func indexAndValue(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errUsage
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := setbuilder.ParseNonNegative(args[1])
	if err != nil {
		return 0, 0, err
	}
	return i, v, nil
}

func restOf(line, word string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), word))
}
