package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/calilog/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleLatestSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "exerciseID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}
	if _, err := s.store.GetExerciseByID(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	records, err := s.store.GetLatestSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []models.TrainingRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProgramByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProgramExercises(w http.ResponseWriter, r *http.Request) {
	id, ok := programID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetProgramByID(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	slots, err := s.store.GetProgramExercisesSync(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []models.ProgramExercise{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleListIntervalRecords(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	records, err := s.store.ListIntervalRecords(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []models.IntervalRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
