package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/program"
	"github.com/claude/calilog/internal/storage/sqlite"
)

type fixture struct {
	srv        *Server
	store      *sqlite.Store
	pushupsID  int64
	programID  int64
	intervalID int64
}

func newFixture(t *testing.T, apiKey string) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "calilog.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store}
	f.pushupsID, err = store.CreateExercise(ctx, models.Exercise{Name: "Pushups", Type: models.Dynamic, Laterality: models.Bilateral})
	if err != nil {
		t.Fatal(err)
	}
	f.programID, err = store.CreateProgram(ctx, models.Program{Name: "Morning"}, []models.ProgramExercise{
		{ExerciseID: f.pushupsID, SortOrder: 1, Sets: 2, TargetValue: 10, IntervalSeconds: 30},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.intervalID, err = store.CreateIntervalProgram(ctx, models.IntervalProgram{
		Name: "Circuit", WorkSeconds: 40, RestSeconds: 20, Rounds: 2,
	}, []int64{f.pushupsID})
	if err != nil {
		t.Fatal(err)
	}

	settings := program.DefaultSettings()
	settings.StartCountdownSeconds = 0
	settings.DynamicCountSound = false
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.srv = New(store, Defaults{
		Program:  settings,
		Interval: interval.Settings{},
	}, apiKey, log)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

type programRun struct {
	RunID string           `json:"run_id"`
	Kind  string           `json:"kind"`
	State program.Snapshot `json:"state"`
}

type intervalRun struct {
	RunID string            `json:"run_id"`
	State interval.Snapshot `json:"state"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return v
}

func (f *fixture) action(t *testing.T, runID, action string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/runs/"+runID+"/"+action, body)
	if rec.Code != wantStatus {
		t.Fatalf("%s: status = %d, want %d (%s)", action, rec.Code, wantStatus, rec.Body.String())
	}
	return rec
}

// TestListPrograms verifies both catalog endpoints return the stored programs.
func TestListPrograms(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/v1/programs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	programs := decode[[]models.Program](t, rec)
	if len(programs) != 1 || programs[0].Name != "Morning" {
		t.Errorf("programs = %+v", programs)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/interval-programs", nil)
	circuits := decode[[]models.IntervalProgram](t, rec)
	if len(circuits) != 1 || circuits[0].WorkSeconds != 40 {
		t.Errorf("interval programs = %+v", circuits)
	}
}

// TestProgramRunLifecycle drives a program run from Confirm to a saved
// result over HTTP.
func TestProgramRunLifecycle(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/runs/program/%d", f.programID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d (%s)", rec.Code, rec.Body.String())
	}
	run := decode[programRun](t, rec)
	if run.State.Step.Kind != program.StepConfirm || len(run.State.Session.Sets) != 2 {
		t.Fatalf("created run = %+v", run.State)
	}

	got := decode[programRun](t, f.action(t, run.RunID, "target", map[string]any{"set_index": 1, "value": "12"}, http.StatusOK))
	if got.State.Session.Sets[1].TargetValue != 12 {
		t.Errorf("target = %d, want 12", got.State.Session.Sets[1].TargetValue)
	}
	f.action(t, run.RunID, "target", map[string]any{"set_index": 1, "value": "1x"}, http.StatusBadRequest)
	f.action(t, run.RunID, "skip", nil, http.StatusConflict)
	f.action(t, run.RunID, "warp", nil, http.StatusBadRequest)

	got = decode[programRun](t, f.action(t, run.RunID, "start", nil, http.StatusOK))
	if got.State.Step != (program.Step{Kind: program.StepExecuting, SetIndex: 0}) {
		t.Fatalf("after start = %+v", got.State.Step)
	}

	got = decode[programRun](t, f.action(t, run.RunID, "complete", map[string]any{"value": "8"}, http.StatusOK))
	if got.State.Step != (program.Step{Kind: program.StepInterval, SetIndex: 0}) {
		t.Fatalf("after first set = %+v", got.State.Step)
	}
	f.action(t, run.RunID, "skip", nil, http.StatusOK)
	got = decode[programRun](t, f.action(t, run.RunID, "complete", map[string]any{"value": "9"}, http.StatusOK))
	if got.State.Step.Kind != program.StepResult {
		t.Fatalf("after last set = %+v", got.State.Step)
	}

	got = decode[programRun](t, f.action(t, run.RunID, "save", nil, http.StatusOK))
	if got.State.Outcome != program.OutcomeSaved {
		t.Errorf("outcome = %q, want saved", got.State.Outcome)
	}

	records, err := f.store.GetLatestSession(context.Background(), f.pushupsID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ValueRight != 8 || records[1].ValueRight != 9 {
		t.Errorf("stored records = %+v", records)
	}
}

// TestIntervalRunStopAndSave stops an interval run early and saves it.
func TestIntervalRunStopAndSave(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/runs/interval/%d", f.intervalID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d (%s)", rec.Code, rec.Body.String())
	}
	run := decode[intervalRun](t, rec)

	got := decode[intervalRun](t, f.action(t, run.RunID, "start", nil, http.StatusOK))
	if got.State.Phase != interval.Work(1, 0) {
		t.Fatalf("after start = %+v", got.State.Phase)
	}
	f.action(t, run.RunID, "skip", nil, http.StatusConflict)

	got = decode[intervalRun](t, f.action(t, run.RunID, "abort", nil, http.StatusOK))
	if got.State.Phase != interval.Complete(0, 0, false) {
		t.Fatalf("after abort = %+v", got.State.Phase)
	}
	f.action(t, run.RunID, "save", nil, http.StatusOK)

	records, err := f.store.ListIntervalRecords(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ProgramName != "Circuit" {
		t.Errorf("records = %+v", records)
	}
}

// TestRunErrors covers lookup failures.
func TestRunErrors(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"unknown program", http.MethodPost, "/api/v1/runs/program/99", http.StatusNotFound},
		{"unknown interval program", http.MethodPost, "/api/v1/runs/interval/99", http.StatusNotFound},
		{"malformed program id", http.MethodPost, "/api/v1/runs/program/abc", http.StatusBadRequest},
		{"malformed run id", http.MethodGet, "/api/v1/runs/not-a-uuid", http.StatusBadRequest},
		{"unknown run", http.MethodGet, "/api/v1/runs/4b0c7a8e-8c54-4d1b-a3de-1a8b6e0f1f21", http.StatusNotFound},
		{"delete unknown run", http.MethodDelete, "/api/v1/runs/4b0c7a8e-8c54-4d1b-a3de-1a8b6e0f1f21", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

// TestDeleteRun closes a run and forgets it.
func TestDeleteRun(t *testing.T) {
	f := newFixture(t, "")

	run := decode[programRun](t, f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/runs/program/%d", f.programID), nil))
	if rec := f.do(t, http.MethodDelete, "/api/v1/runs/"+run.RunID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/runs/"+run.RunID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

// TestAPIKeyRequired verifies the API rejects requests without the
// configured key.
func TestAPIKeyRequired(t *testing.T) {
	f := newFixture(t, "secret")

	if rec := f.do(t, http.MethodGet, "/api/v1/programs", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}
}

// TestCORSPreflight verifies OPTIONS requests short-circuit.
func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "secret")
	rec := f.do(t, http.MethodOptions, "/api/v1/programs", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}

// TestSettingsActionKeepsOmittedFields verifies that a settings action only
// changes the fields present in the request body.
func TestSettingsActionKeepsOmittedFields(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/runs/program/%d", f.programID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d (%s)", rec.Code, rec.Body.String())
	}
	run := decode[programRun](t, rec)

	body := map[string]any{"settings": map[string]any{"auto_mode": true}}
	got := decode[programRun](t, f.action(t, run.RunID, "settings", body, http.StatusOK)).State.Settings
	want := program.DefaultSettings()
	want.StartCountdownSeconds = 0
	want.DynamicCountSound = false
	want.AutoMode = true
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}

	body = map[string]any{"settings": map[string]any{"start_countdown_seconds": -1}}
	f.action(t, run.RunID, "settings", body, http.StatusBadRequest)
}

// TestIntervalSettingsAction verifies interval settings are patched field by
// field and a negative prepare time is rejected.
func TestIntervalSettingsAction(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/runs/interval/%d", f.intervalID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d (%s)", rec.Code, rec.Body.String())
	}
	run := decode[intervalRun](t, rec)

	body := map[string]any{"settings": map[string]any{"prepare_seconds": 3, "settle_delay": int64(time.Second)}}
	f.action(t, run.RunID, "settings", body, http.StatusOK)

	body = map[string]any{"settings": map[string]any{"prepare_seconds": 4}}
	got := decode[intervalRun](t, f.action(t, run.RunID, "settings", body, http.StatusOK)).State.Settings
	if got.PrepareSeconds != 4 || got.SettleDelay != time.Second {
		t.Errorf("settings = %+v, want prepare 4 and settle delay 1s", got)
	}

	body = map[string]any{"settings": map[string]any{"prepare_seconds": -2}}
	f.action(t, run.RunID, "settings", body, http.StatusBadRequest)
}
