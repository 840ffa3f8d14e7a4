package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/storage/sqlite"
)

const catalogYAML = `
exercises:
  - name: Pushups
    type: Dynamic
    target_sets: 3
    target_value: 15
  - name: Plank
    type: Isometric
  - name: Lunges
    type: Dynamic
    laterality: Unilateral
  - name: Flying
    type: Magic
programs:
  - name: Morning
    start_interval: 5
    exercises:
      - {exercise: pushups, sets: 3, target: 10, interval: 90}
      - {exercise: Plank, sets: 2, target: 45}
  - name: Broken
    exercises:
      - {exercise: Handstand, sets: 1, target: 10}
interval_programs:
  - name: Circuit
    work: 40
    rest: 20
    rounds: 3
    round_rest: 60
    exercises: [Pushups, Lunges, Plank]
  - name: Empty
    work: 40
    rounds: 3
`

func testImporter(t *testing.T, dryRun bool) (*Importer, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "calilog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), dryRun), store
}

func writeCatalog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestImportCatalog stores valid entries in file order and rejects the rest.
func TestImportCatalog(t *testing.T) {
	ctx := context.Background()
	imp, store := testImporter(t, false)
	path := writeCatalog(t, t.TempDir(), "catalog.yaml", catalogYAML)

	stats, err := imp.Import(ctx, path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.ExercisesInserted != 3 || stats.ProgramsInserted != 1 || stats.IntervalProgramsInserted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Rejected) != 3 {
		t.Errorf("rejected = %v, want 3 entries", stats.Rejected)
	}

	programs, err := store.ListPrograms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(programs) != 1 || programs[0].StartInterval != 5 {
		t.Fatalf("programs = %+v", programs)
	}
	slots, err := store.GetProgramExercisesSync(ctx, programs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0].SortOrder != 1 || slots[0].IntervalSeconds != 90 || slots[1].TargetValue != 45 {
		t.Errorf("slots = %+v", slots)
	}

	exercises, err := store.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, ex := range exercises {
		if ex.Name == "Lunges" && ex.Laterality != models.Unilateral {
			t.Errorf("lunges laterality = %q", ex.Laterality)
		}
		if ex.Name == "Plank" && ex.Laterality != models.Bilateral {
			t.Errorf("plank laterality = %q, want default Bilateral", ex.Laterality)
		}
	}
}

// TestImportTwiceSkipsDuplicates verifies names already stored are not
// inserted again.
func TestImportTwiceSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeCatalog(t, dir, "catalog.yaml", catalogYAML)

	imp, store := testImporter(t, false)
	if _, err := imp.Import(ctx, path); err != nil {
		t.Fatal(err)
	}

	stats, err := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)), false).Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ExercisesInserted != 0 || stats.ExercisesDuplicated != 3 || stats.ProgramsDuplicated != 1 || stats.IntervalProgramsDuplicated != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestImportDirectoryDryRun counts entries across files without writing.
func TestImportDirectoryDryRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeCatalog(t, dir, "01-exercises.yaml", "exercises:\n  - {name: Dips, type: Dynamic}\n")
	writeCatalog(t, dir, "02-programs.yml", "programs:\n  - name: Evening\n    exercises:\n      - {exercise: Dips, sets: 2, target: 8}\n")
	writeCatalog(t, dir, "03-broken.yaml", "exercises: [unterminated\n")
	writeCatalog(t, dir, "notes.txt", "ignored")

	imp, store := testImporter(t, true)
	stats, err := imp.Import(ctx, dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesProcessed != 2 || stats.FilesErrored != 1 {
		t.Errorf("files processed = %d, errored = %d", stats.FilesProcessed, stats.FilesErrored)
	}
	if stats.ExercisesInserted != 1 || stats.ProgramsInserted != 1 {
		t.Errorf("stats = %+v", stats)
	}

	exercises, err := store.ListExercises(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exercises) != 0 {
		t.Errorf("dry run stored %d exercises", len(exercises))
	}
}

// TestImportMissingPath reports an unreadable catalog.
func TestImportMissingPath(t *testing.T) {
	imp, _ := testImporter(t, false)
	if _, err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
