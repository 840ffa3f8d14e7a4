package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/program"
	"github.com/claude/calilog/internal/setbuilder"
)

var errBadRequest = errors.New("bad request")

// actionRequest is the optional body of a run action. Value is the raw text
// the user entered and is only accepted when it is a non-negative integer.
type actionRequest struct {
	SetIndex      int             `json:"set_index"`
	ExerciseIndex int             `json:"exercise_index"`
	Value         string          `json:"value"`
	Delta         int             `json:"delta"`
	Comment       string          `json:"comment"`
	Settings      json.RawMessage `json:"settings"`
}

func (req actionRequest) value() (int, error) {
	return setbuilder.ParseNonNegative(req.Value)
}

func (s *Server) handleRunAction(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	action := chi.URLParam(r, "action")
	var err error
	if run.program != nil {
		err = programAction(r.Context(), run.program, action, req)
	} else {
		err = intervalAction(r.Context(), run.interval, action, req)
	}
	if err != nil {
		s.log.Debug("run action rejected", "run_id", run.id, "action", action, "error", err)
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": run.id, "kind": run.kind, "state": run.state()})
}

func programAction(ctx context.Context, r *program.Runner, action string, req actionRequest) error {
	switch action {
	case "start":
		return r.Start()
	case "skip":
		return r.Skip()
	case "abort":
		return r.Abort()
	case "tap":
		return r.Tap()
	case "pause":
		return r.Pause()
	case "resume":
		return r.Resume()
	case "save":
		return r.Save(ctx)
	case "cancel":
		return r.Cancel()
	case "program-values":
		return r.UseProgramValues()
	case "challenge-values":
		return r.UseChallengeValues()
	case "previous-values":
		return r.UsePreviousRecordValues(ctx)
	case "comment":
		return r.UpdateComment(req.Comment)
	case "adjust":
		return r.AdjustSetValues(req.ExerciseIndex, req.Delta)
	case "settings":
		// Fields the request omits keep their current value.
		settings := r.State().Settings
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			return fmt.Errorf("%w: settings: %v", errBadRequest, err)
		}
		return r.UpdateSettings(settings)
	case "complete":
		if req.Value == "" {
			return r.CompleteMeasured()
		}
		v, err := req.value()
		if err != nil {
			return err
		}
		return r.SetComplete(v)
	}

	if !isValueAction(action) {
		return fmt.Errorf("%w: unknown action %q for a program run", errBadRequest, action)
	}
	v, err := req.value()
	if err != nil {
		return err
	}
	switch action {
	case "target":
		return r.UpdateTargetValue(req.SetIndex, v)
	case "interval":
		return r.UpdateInterval(req.ExerciseIndex, v)
	case "set-count":
		return r.UpdateSetCount(req.ExerciseIndex, v)
	default:
		return r.UpdateActualValue(req.SetIndex, v)
	}
}

func isValueAction(action string) bool {
	switch action {
	case "target", "interval", "set-count", "actual":
		return true
	}
	return false
}

func intervalAction(ctx context.Context, r *interval.Runner, action string, req actionRequest) error {
	switch action {
	case "start":
		return r.Start()
	case "skip":
		return r.Skip()
	case "abort", "stop":
		return r.Stop()
	case "pause":
		return r.Pause()
	case "resume":
		return r.Resume()
	case "save":
		return r.Save(ctx)
	case "cancel":
		return r.Discard()
	case "comment":
		return r.UpdateComment(req.Comment)
	case "settings":
		settings := r.State().Settings
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			return fmt.Errorf("%w: settings: %v", errBadRequest, err)
		}
		return r.UpdateSettings(settings)
	}
	return fmt.Errorf("%w: unknown action %q for an interval run", errBadRequest, action)
}
