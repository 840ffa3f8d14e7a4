package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude/calilog/internal/importer"
	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/program"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5a3fc0", Dark: "#b39dfa"})
	phaseStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#0b7a3e", Dark: "#5fd38d"})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ff6b6b"})
)

func renderCatalog(programs []models.Program, circuits []models.IntervalProgram) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Programs"))
	b.WriteString("\n")
	if len(programs) == 0 {
		b.WriteString(mutedStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, p := range programs {
		fmt.Fprintf(&b, "  %3d  %s\n", p.ID, p.Name)
	}
	b.WriteString(titleStyle.Render("Interval programs"))
	b.WriteString("\n")
	if len(circuits) == 0 {
		b.WriteString(mutedStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, c := range circuits {
		fmt.Fprintf(&b, "  %3d  %s %s\n", c.ID, c.Name,
			mutedStyle.Render(fmt.Sprintf("(%ds work, %ds rest, %d rounds, %ds round rest)",
				c.WorkSeconds, c.RestSeconds, c.Rounds, c.RoundRestSeconds)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(s *models.DataStats) string {
	lines := []string{
		titleStyle.Render("Training log"),
		fmt.Sprintf("  %d exercises, %d programs, %d interval programs", s.Exercises, s.Programs, s.IntervalPrograms),
		fmt.Sprintf("  %d sets in %d sessions, %d interval runs", s.TotalSets, s.TotalSessions, s.IntervalRuns),
	}
	if s.EarliestDate != nil && s.LatestDate != nil {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s to %s", *s.EarliestDate, *s.LatestDate)))
	}
	for _, e := range s.SetsByExercise {
		lines = append(lines, fmt.Sprintf("  %-20s %4d sets  best %d", e.Name, e.Sets, e.BestValue))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderImport(s *importer.Stats, dryRun bool) string {
	title := "Imported"
	if dryRun {
		title = "Would import"
	}
	lines := []string{
		titleStyle.Render(title),
		fmt.Sprintf("  %d exercises, %d programs, %d interval programs",
			s.ExercisesInserted, s.ProgramsInserted, s.IntervalProgramsInserted),
		mutedStyle.Render(fmt.Sprintf("  already present: %d exercises, %d programs, %d interval programs",
			s.ExercisesDuplicated, s.ProgramsDuplicated, s.IntervalProgramsDuplicated)),
	}
	if s.FilesErrored > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("  %d files could not be parsed", s.FilesErrored)))
	}
	for _, r := range s.Rejected {
		lines = append(lines, errorStyle.Render("  skipped "+r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgram(s program.Snapshot) string {
	var header string
	switch s.Step.Kind {
	case program.StepConfirm:
		header = "Ready: " + s.Session.Program.Name
	case program.StepStartInterval:
		header = fmt.Sprintf("Get ready  %ds", s.Remaining)
	case program.StepExecuting:
		header = executingHeader(s)
	case program.StepInterval:
		header = fmt.Sprintf("Rest  %ds", s.Remaining)
	case program.StepResult:
		header = "Finished"
		if s.Outcome != program.OutcomeNone {
			header += " (" + string(s.Outcome) + ")"
		}
	}
	if s.Paused {
		header += "  [paused]"
	}

	lines := []string{phaseStyle.Render(header)}
	if set, ex, ok := s.CurrentSet(); ok {
		lines = append(lines, fmt.Sprintf("%s  set %d%s  target %d %s",
			ex.Name, set.SetNumber, sideLabel(set.Side), set.TargetValue, ex.Unit()))
	}
	if s.Step.Kind == program.StepConfirm || s.Step.Kind == program.StepResult {
		lines = append(lines, renderSets(s.Session))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func executingHeader(s program.Snapshot) string {
	switch s.Variant {
	case program.VariantAutoIsometric:
		return fmt.Sprintf("Hold  %ds left", s.Remaining)
	case program.VariantManualIsometric:
		return fmt.Sprintf("Hold  %ds", s.Elapsed)
	default:
		return fmt.Sprintf("Reps  %d", s.Count)
	}
}

func renderSets(session models.ProgramExecutionSession) string {
	var b strings.Builder
	for i, set := range session.Sets {
		ex := session.Exercises[set.ExerciseIndex].Exercise
		mark := " "
		if set.IsCompleted {
			mark = "x"
		}
		value := fmt.Sprintf("target %d", set.TargetValue)
		if set.IsCompleted {
			value = fmt.Sprintf("done %d/%d", set.ActualValue, set.TargetValue)
		}
		rest := ""
		if set.IntervalSeconds > 0 {
			rest = mutedStyle.Render(fmt.Sprintf("  rest %ds", set.IntervalSeconds))
		}
		fmt.Fprintf(&b, "  [%s] %2d  %s #%d%s  %s %s%s\n",
			mark, i+1, ex.Name, set.SetNumber, sideLabel(set.Side), value, ex.Unit(), rest)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sideLabel(side models.Side) string {
	if side == models.SideNone {
		return ""
	}
	return " " + strings.ToLower(string(side))
}

func renderInterval(s interval.Snapshot) string {
	p := s.Phase
	var header string
	switch p.Kind {
	case interval.PhaseLoading:
		header = "Loading"
	case interval.PhaseConfirm:
		header = "Ready: " + s.Program.Name
	case interval.PhasePrepare:
		header = fmt.Sprintf("Get ready  %ds", s.Remaining)
	case interval.PhaseWork:
		header = fmt.Sprintf("Work  round %d/%d  %ds", p.Round, s.Program.Rounds, s.Remaining)
	case interval.PhaseRest:
		header = fmt.Sprintf("Rest  round %d/%d  %ds", p.Round, s.Program.Rounds, s.Remaining)
	case interval.PhaseRoundRest:
		header = fmt.Sprintf("Round %d done, rest  %ds", p.Round, s.Remaining)
	case interval.PhaseComplete:
		if p.IsFullCompletion {
			header = "Circuit complete"
		} else {
			header = fmt.Sprintf("Stopped after %d rounds and %d exercises", p.CompletedRounds, p.CompletedExercisesInLastRound)
		}
		if s.Outcome != interval.OutcomeNone {
			header += " (" + string(s.Outcome) + ")"
		}
	}
	if s.Paused {
		header += "  [paused]"
	}

	lines := []string{phaseStyle.Render(header)}
	if ex, ok := s.CurrentExercise(); ok {
		label := ex.Name
		if p.Kind == interval.PhaseRest {
			label = "after " + ex.Name
		}
		lines = append(lines, label)
	}
	if p.Kind == interval.PhaseConfirm {
		for i, ex := range s.Exercises {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, ex.Name))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderError(err error) string {
	return errorStyle.Render("error: " + err.Error())
}
