package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/kinevo/internal/models"
	"github.com/claude/kinevo/internal/trainingroom"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store mutators are no-ops for unknown students, so most room handlers
// return 204 unconditionally: a late request racing a removal is not an
// error, it is the normal shape of trainers tapping a UI.

func (s *Server) handleRoomSnapshot(w http.ResponseWriter, r *http.Request) {
	active, _ := s.room.ActiveStudentID()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":          s.room.Sessions(),
		"active_student_id": active,
	})
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	var setup models.SessionSetup
	if err := json.NewDecoder(r.Body).Decode(&setup); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if len(setup.Exercises) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "setup has no exercises"})
		return
	}
	s.room.AddStudent(studentID, setup)
	sess, _ := s.room.Session(studentID)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	s.room.RemoveStudent(studentID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFocus(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	s.room.SetActiveStudent(studentID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearFocus(w http.ResponseWriter, r *http.Request) {
	s.room.SetActiveStudent(uuid.Nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	s.room.StartWorkout(studentID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFinishing(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	s.room.SetFinishing(studentID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	exerciseIdx, setIdx, ok := roomSetIndexes(w, r)
	if !ok {
		return
	}

	var body struct {
		Field trainingroom.SetField `json:"field"`
		Value string                `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.Field != trainingroom.FieldWeight && body.Field != trainingroom.FieldReps {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field must be weight or reps"})
		return
	}

	s.room.UpdateSet(studentID, exerciseIdx, setIdx, body.Field, body.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	exerciseIdx, setIdx, ok := roomSetIndexes(w, r)
	if !ok {
		return
	}
	s.room.ToggleSetComplete(studentID, exerciseIdx, setIdx)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSwapExercise(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	exerciseIdx, err := strconv.Atoi(chi.URLParam(r, "exerciseIdx"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise index"})
		return
	}

	var body struct {
		Exercise     trainingroom.NewExercise `json:"exercise"`
		PreviousLoad string                   `json:"previous_load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.Exercise.Source != models.SwapManual && body.Exercise.Source != models.SwapAuto {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "swap source must be manual or auto"})
		return
	}

	s.room.SwapExercise(studentID, exerciseIdx, body.Exercise, body.PreviousLoad)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRestTimer(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	var body struct {
		DurationSeconds int `json:"duration_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if body.DurationSeconds <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "duration_seconds must be positive"})
		return
	}
	s.room.StartRestTimer(studentID, body.DurationSeconds)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearRestTimer(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	s.room.ClearRestTimer(studentID)
	w.WriteHeader(http.StatusNoContent)
}

// handleFinish persists a session through the bridge, then evicts it.
// On bridge failure the session stays in finishing with its data intact,
// so the trainer can retry; nothing local is rolled back or retried
// automatically.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	studentID, ok := roomStudentID(w, r)
	if !ok {
		return
	}
	var body struct {
		RPE      *int   `json:"rpe"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	payload, ok := s.room.FinishPayloadFor(studentID, body.RPE, body.Feedback)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no started session for student"})
		return
	}

	sessionID, err := s.bridge.FinishWorkout(r.Context(), payload)
	if err != nil {
		s.log.Error("finish workout persistence failed", "student_id", studentID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	s.room.FinishSession(studentID)
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID})
}

func (s *Server) handleRoomSweep(w http.ResponseWriter, r *http.Request) {
	evicted := s.room.ClearExpiredSessions()
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func roomStudentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return uuid.Nil, false
	}
	return id, true
}

func roomSetIndexes(w http.ResponseWriter, r *http.Request) (exerciseIdx, setIdx int, ok bool) {
	exerciseIdx, err := strconv.Atoi(chi.URLParam(r, "exerciseIdx"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise index"})
		return 0, 0, false
	}
	setIdx, err = strconv.Atoi(chi.URLParam(r, "setIdx"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set index"})
		return 0, 0, false
	}
	return exerciseIdx, setIdx, true
}
