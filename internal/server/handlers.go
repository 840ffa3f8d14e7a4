package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/models"
	"github.com/claude/calilog/internal/program"
	"github.com/claude/calilog/internal/setbuilder"
)

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleListIntervalPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListIntervalPrograms(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCreateProgramRun(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}
	runner, err := program.Load(r.Context(), s.store, id, s.defaults.Program, s.defaults.Runner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	run := &run{kind: kindProgram, program: runner}
	s.runs.add(run)
	writeJSON(w, http.StatusCreated, map[string]any{"run_id": run.id, "kind": run.kind, "state": runner.State()})
}

func (s *Server) handleCreateIntervalRun(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}
	opts := interval.Options{
		Clock:    s.defaults.Runner.Clock,
		Feedback: s.defaults.Runner.Feedback,
		Cues:     s.defaults.Runner.Cues,
		Logger:   s.defaults.Runner.Logger,
	}
	runner, err := interval.Open(r.Context(), s.store, id, s.defaults.Interval, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	run := &run{kind: kindInterval, interval: runner}
	s.runs.add(run)
	writeJSON(w, http.StatusCreated, map[string]any{"run_id": run.id, "kind": run.kind, "state": runner.State()})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": run.id, "kind": run.kind, "state": run.state()})
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run ID"})
		return
	}
	if !s.runs.remove(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*run, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run ID"})
		return nil, false
	}
	run, ok := s.runs.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return nil, false
	}
	return run, true
}

func programID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "programID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid program ID"})
		return 0, false
	}
	return id, true
}

// writeError maps runner and repository errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, program.ErrEmptyProgram),
		errors.Is(err, interval.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, program.ErrIllegalAction),
		errors.Is(err, program.ErrFinished),
		errors.Is(err, program.ErrSessionChanged),
		errors.Is(err, interval.ErrIllegalAction),
		errors.Is(err, interval.ErrFinished):
		status = http.StatusConflict
	case errors.Is(err, program.ErrInvalidProgram),
		errors.Is(err, program.ErrInvalidValue),
		errors.Is(err, interval.ErrInvalidProgram),
		errors.Is(err, interval.ErrInvalidValue),
		errors.Is(err, setbuilder.ErrMalformedNumber),
		errors.Is(err, setbuilder.ErrOutOfRange),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
