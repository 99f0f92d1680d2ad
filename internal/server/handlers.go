package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/tracker"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 16 << 20
)

// --- Exercises ---

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.tracker.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var in tracker.NewExercise
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := s.tracker.CreateExercise(r.Context(), userIDFromContext(r), in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := s.tracker.GetExercise(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch tracker.ExercisePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	e, err := s.tracker.UpdateExercise(r.Context(), userIDFromContext(r), id, patch)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleChangeUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Unit models.Unit `json:"unit"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Unit == "" {
		writeError(w, s.log, apperr.Validation("unit is required"))
		return
	}
	e, err := s.tracker.ChangeUnit(r.Context(), userIDFromContext(r), id, body.Unit)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.DeleteExercise(r.Context(), userIDFromContext(r), id); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExerciseStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stats, err := s.tracker.GetExerciseStats(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRebuildStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stats, err := s.tracker.RecomputeStats(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	points, err := s.tracker.GetProgressionSeries(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// --- Sessions ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.tracker.ListSessions(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.tracker.StartOrResumeSession(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSkipSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.tracker.SkipNext(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.tracker.GetSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.tracker.CompleteSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionSets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sets, err := s.tracker.ListSetsForSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

// --- Sets ---

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	var in tracker.NewSet
	if !decodeJSON(w, r, &in) {
		return
	}
	set, err := s.tracker.AddSet(r.Context(), userIDFromContext(r), in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.DeleteSet(r.Context(), userIDFromContext(r), id); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Import ---

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	opts := alpha.Options{
		IncludeWarmups: queryBool(r, "warmups"),
		DryRun:         queryBool(r, "dry_run"),
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	result, err := s.alpha.Ingest(r.Context(), body, userIDFromContext(r), opts)
	if err != nil {
		s.log.Warn("alpha import failed", "error", err)
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses. Errors without a code are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal error",
			"code":  string(apperr.CodeUnknown),
		})
		return
	}

	status := http.StatusInternalServerError
	switch e.Code {
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeConflict:
		status = http.StatusConflict
	default:
		log.Error("request failed", "code", e.Code, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": e.Msg, "code": string(e.Code)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON: " + err.Error(),
			"code":  string(apperr.CodeValidation),
		})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid id",
			"code":  string(apperr.CodeValidation),
		})
		return uuid.Nil, false
	}
	return id, true
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
