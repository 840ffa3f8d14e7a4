// Package importer loads exercise, program and interval program definitions
// from YAML catalog files into a repository.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/setbuilder"
)

// ErrInvalidEntry marks a catalog entry that cannot be stored.
var ErrInvalidEntry = errors.New("invalid catalog entry")

// Catalog is the repository surface the importer writes to.
type Catalog interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, ex models.Exercise) (int64, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	CreateProgram(ctx context.Context, p models.Program, slots []models.ProgramExercise) (int64, error)
	ListIntervalPrograms(ctx context.Context) ([]models.IntervalProgram, error)
	CreateIntervalProgram(ctx context.Context, p models.IntervalProgram, exerciseIDs []int64) (int64, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	ExercisesInserted          int
	ExercisesDuplicated        int
	ProgramsInserted           int
	ProgramsDuplicated         int
	IntervalProgramsInserted   int
	IntervalProgramsDuplicated int

	Rejected []string
}

// File is the YAML document format.
type File struct {
	Exercises        []ExerciseEntry        `yaml:"exercises"`
	Programs         []ProgramEntry         `yaml:"programs"`
	IntervalPrograms []IntervalProgramEntry `yaml:"interval_programs"`
}

type ExerciseEntry struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Laterality   string `yaml:"laterality"`
	TargetSets   *int   `yaml:"target_sets"`
	TargetValue  *int   `yaml:"target_value"`
	RestInterval *int   `yaml:"rest_interval"`
}

type ProgramEntry struct {
	Name          string      `yaml:"name"`
	TimerMode     bool        `yaml:"timer_mode"`
	StartInterval int         `yaml:"start_interval"`
	Exercises     []SlotEntry `yaml:"exercises"`
}

// SlotEntry references an exercise by name.
type SlotEntry struct {
	Exercise string `yaml:"exercise"`
	Sets     int    `yaml:"sets"`
	Target   int    `yaml:"target"`
	Interval int    `yaml:"interval"`
}

type IntervalProgramEntry struct {
	Name      string   `yaml:"name"`
	Work      int      `yaml:"work"`
	Rest      int      `yaml:"rest"`
	Rounds    int      `yaml:"rounds"`
	RoundRest int      `yaml:"round_rest"`
	Exercises []string `yaml:"exercises"`
}

// Importer reads catalog files and inserts entries that do not exist yet.
// Entries are matched by name, case-insensitively.
type Importer struct {
	store  Catalog
	log    *slog.Logger
	dryRun bool
	stats  Stats

	exercises map[string]int64
	programs  map[string]bool
	circuits  map[string]bool
}

// New creates a new Importer.
func New(store Catalog, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// Import processes a single .yaml/.yml file or every such file in a
// directory, in name order.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := catalogFiles(path)
	if err != nil {
		return &imp.stats, err
	}
	if err := imp.loadExisting(ctx); err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return &imp.stats, fmt.Errorf("reading %s: %w", f, err)
		}
		var doc File
		if err := yaml.Unmarshal(data, &doc); err != nil {
			imp.log.Warn("parse failed", "file", f, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		if err := imp.importFile(ctx, doc); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", filepath.Base(f), err)
		}
		imp.stats.FilesProcessed++
	}
	return &imp.stats, nil
}

func catalogFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func (imp *Importer) loadExisting(ctx context.Context) error {
	exercises, err := imp.store.ListExercises(ctx)
	if err != nil {
		return fmt.Errorf("listing exercises: %w", err)
	}
	imp.exercises = make(map[string]int64, len(exercises))
	for _, ex := range exercises {
		imp.exercises[key(ex.Name)] = ex.ID
	}

	programs, err := imp.store.ListPrograms(ctx)
	if err != nil {
		return fmt.Errorf("listing programs: %w", err)
	}
	imp.programs = make(map[string]bool, len(programs))
	for _, p := range programs {
		imp.programs[key(p.Name)] = true
	}

	circuits, err := imp.store.ListIntervalPrograms(ctx)
	if err != nil {
		return fmt.Errorf("listing interval programs: %w", err)
	}
	imp.circuits = make(map[string]bool, len(circuits))
	for _, c := range circuits {
		imp.circuits[key(c.Name)] = true
	}
	return nil
}

// importFile stores exercises first so programs in the same file can
// reference them. Invalid entries are rejected and skipped; repository
// errors abort the import.
func (imp *Importer) importFile(ctx context.Context, doc File) error {
	for _, e := range doc.Exercises {
		if err := imp.importExercise(ctx, e); err != nil {
			if !imp.reject("exercise", e.Name, err) {
				return err
			}
		}
	}
	for _, p := range doc.Programs {
		if err := imp.importProgram(ctx, p); err != nil {
			if !imp.reject("program", p.Name, err) {
				return err
			}
		}
	}
	for _, c := range doc.IntervalPrograms {
		if err := imp.importIntervalProgram(ctx, c); err != nil {
			if !imp.reject("interval program", c.Name, err) {
				return err
			}
		}
	}
	return nil
}

func (imp *Importer) reject(kind, name string, err error) bool {
	if !errors.Is(err, ErrInvalidEntry) {
		return false
	}
	imp.log.Warn("skipping catalog entry", "kind", kind, "name", name, "error", err)
	imp.stats.Rejected = append(imp.stats.Rejected, fmt.Sprintf("%s %q: %v", kind, name, err))
	return true
}

func (imp *Importer) importExercise(ctx context.Context, e ExerciseEntry) error {
	ex, err := e.model()
	if err != nil {
		return err
	}
	if _, ok := imp.exercises[key(ex.Name)]; ok {
		imp.stats.ExercisesDuplicated++
		return nil
	}

	id := int64(-(len(imp.exercises) + 1))
	if !imp.dryRun {
		id, err = imp.store.CreateExercise(ctx, ex)
		if err != nil {
			return fmt.Errorf("creating exercise %q: %w", ex.Name, err)
		}
	}
	imp.exercises[key(ex.Name)] = id
	imp.stats.ExercisesInserted++
	imp.log.Debug("exercise imported", "name", ex.Name, "id", id)
	return nil
}

func (imp *Importer) importProgram(ctx context.Context, p ProgramEntry) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("program without name: %w", ErrInvalidEntry)
	}
	if len(p.Exercises) == 0 {
		return fmt.Errorf("no exercises: %w", ErrInvalidEntry)
	}
	if imp.programs[key(p.Name)] {
		imp.stats.ProgramsDuplicated++
		return nil
	}

	slots := make([]models.ProgramExercise, 0, len(p.Exercises))
	for i, s := range p.Exercises {
		id, err := imp.resolve(s.Exercise)
		if err != nil {
			return err
		}
		if s.Sets < 1 || s.Target < 0 || s.Interval < 0 {
			return fmt.Errorf("slot %d (%s): sets must be positive, target and interval non-negative: %w", i+1, s.Exercise, ErrInvalidEntry)
		}
		slots = append(slots, models.ProgramExercise{
			ExerciseID:      id,
			SortOrder:       i + 1,
			Sets:            s.Sets,
			TargetValue:     s.Target,
			IntervalSeconds: s.Interval,
		})
	}

	if !imp.dryRun {
		program := models.Program{Name: p.Name, TimerMode: p.TimerMode, StartInterval: p.StartInterval}
		if _, err := imp.store.CreateProgram(ctx, program, slots); err != nil {
			return fmt.Errorf("creating program %q: %w", p.Name, err)
		}
	}
	imp.programs[key(p.Name)] = true
	imp.stats.ProgramsInserted++
	return nil
}

func (imp *Importer) importIntervalProgram(ctx context.Context, c IntervalProgramEntry) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("interval program without name: %w", ErrInvalidEntry)
	}
	circuit := models.IntervalProgram{
		Name:             c.Name,
		WorkSeconds:      c.Work,
		RestSeconds:      c.Rest,
		Rounds:           c.Rounds,
		RoundRestSeconds: c.RoundRest,
	}
	if !setbuilder.IsValidIntervalProgram(circuit, len(c.Exercises)) || c.Rest < 0 || c.RoundRest < 0 {
		return fmt.Errorf("needs exercises, positive work and rounds: %w", ErrInvalidEntry)
	}
	if imp.circuits[key(c.Name)] {
		imp.stats.IntervalProgramsDuplicated++
		return nil
	}

	ids := make([]int64, 0, len(c.Exercises))
	for _, name := range c.Exercises {
		id, err := imp.resolve(name)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if !imp.dryRun {
		if _, err := imp.store.CreateIntervalProgram(ctx, circuit, ids); err != nil {
			return fmt.Errorf("creating interval program %q: %w", c.Name, err)
		}
	}
	imp.circuits[key(c.Name)] = true
	imp.stats.IntervalProgramsInserted++
	return nil
}

func (imp *Importer) resolve(name string) (int64, error) {
	id, ok := imp.exercises[key(name)]
	if !ok {
		return 0, fmt.Errorf("unknown exercise %q: %w", name, ErrInvalidEntry)
	}
	return id, nil
}

func (e ExerciseEntry) model() (models.Exercise, error) {
	if strings.TrimSpace(e.Name) == "" {
		return models.Exercise{}, fmt.Errorf("exercise without name: %w", ErrInvalidEntry)
	}
	ex := models.Exercise{
		Name:         strings.TrimSpace(e.Name),
		Type:         models.ExerciseType(e.Type),
		Laterality:   models.Laterality(e.Laterality),
		TargetSets:   e.TargetSets,
		TargetValue:  e.TargetValue,
		RestInterval: e.RestInterval,
	}
	if ex.Laterality == "" {
		ex.Laterality = models.Bilateral
	}
	if ex.Type != models.Dynamic && ex.Type != models.Isometric {
		return models.Exercise{}, fmt.Errorf("type %q: %w", e.Type, ErrInvalidEntry)
	}
	if ex.Laterality != models.Bilateral && ex.Laterality != models.Unilateral {
		return models.Exercise{}, fmt.Errorf("laterality %q: %w", e.Laterality, ErrInvalidEntry)
	}
	return ex, nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
