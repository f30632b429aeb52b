// Package trainingroom holds the live workout sessions a trainer is
// tracking: one state machine per student, all coexisting in one keyed
// collection. The store is a pure local cache — the backend only hears
// about a session when the caller persists it at finish time.
package trainingroom

import (
	"log/slog"
	"sync"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"
)

// maxSessionAge bounds local accumulation from abandoned sessions: the
// sweep evicts anything started this long ago.
const maxSessionAge = 24 * time.Hour

// SetField names a per-set value that UpdateSet can write.
type SetField string

const (
	FieldWeight SetField = "weight"
	FieldReps   SetField = "reps"
)

// NewExercise describes the replacement in an exercise swap.
type NewExercise struct {
	ID     uuid.UUID         `json:"id"`
	Name   string            `json:"name"`
	Source models.SwapSource `json:"source"`
}

// Store is an injectable container of live sessions keyed by student ID.
// Each mutator touches only its own key, so sessions progress
// independently; the mutex only serializes individual state-update steps
// across HTTP handler goroutines. Every mutator is a safe no-op for an
// unknown student — UI event handlers may legitimately fire after a
// session was removed by another interaction.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.ActiveSession
	order    []uuid.UUID // admission order, for deterministic focus fallback
	active   uuid.UUID   // uuid.Nil = no focused session

	state *StateDB
	log   *slog.Logger
	now   func() time.Time
}

// NewStore creates a Store, restoring any snapshot from state. A nil state
// keeps the store memory-only (tests, kinevo-mcp).
func NewStore(state *StateDB, log *slog.Logger) *Store {
	s := &Store{
		sessions: make(map[uuid.UUID]*models.ActiveSession),
		state:    state,
		log:      log,
		now:      time.Now,
	}
	s.restore()
	return s
}

// AddStudent admits (or re-admits) a student with a ready session,
// pre-populated with empty set rows, and focuses it. Calling it again for
// the same student replaces the session wholesale — last writer wins,
// including over an unsaved finishing session.
func (s *Store) AddStudent(studentID uuid.UUID, setup models.SessionSetup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exercises := make([]models.ExerciseData, len(setup.Exercises))
	for i, ex := range setup.Exercises {
		ex.SetsData = models.NewSetRows(ex.Sets)
		if ex.SwapSource == "" {
			ex.SwapSource = models.SwapNone
		}
		exercises[i] = ex
	}

	if _, exists := s.sessions[studentID]; !exists {
		s.order = append(s.order, studentID)
	}
	s.sessions[studentID] = &models.ActiveSession{
		StudentID:         studentID,
		StudentName:       setup.StudentName,
		StudentAvatarURL:  setup.StudentAvatarURL,
		AssignedWorkoutID: setup.AssignedWorkoutID,
		AssignedProgramID: setup.AssignedProgramID,
		TrainerID:         setup.TrainerID,
		WorkoutName:       setup.WorkoutName,
		Exercises:         exercises,
		Status:            models.RoomReady,
	}
	s.active = studentID
	s.persistLocked()
}

// RemoveStudent discards a session. If it held focus, focus moves to the
// earliest-admitted survivor, or clears.
func (s *Store) RemoveStudent(studentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(studentID)
	s.persistLocked()
}

func (s *Store) removeLocked(studentID uuid.UUID) {
	if _, ok := s.sessions[studentID]; !ok {
		return
	}
	delete(s.sessions, studentID)
	for i, id := range s.order {
		if id == studentID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == studentID {
		s.active = uuid.Nil
		if len(s.order) > 0 {
			s.active = s.order[0]
		}
	}
}

// SetActiveStudent switches focus. uuid.Nil clears it. Focusing an unknown
// student is allowed through unchanged — the caller is the source of truth
// for what it is looking at.
func (s *Store) SetActiveStudent(studentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = studentID
	s.persistLocked()
}

// StartWorkout moves a session to in_progress and stamps startedAt.
// Re-invoking on an already-started session resets startedAt: cancelling
// the feedback step calls this to back out of finishing, which restarts
// the visible elapsed-time clock. Intentional quirk, kept as-is.
func (s *Store) StartWorkout(studentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok {
		return
	}
	started := s.now()
	sess.Status = models.RoomInProgress
	sess.StartedAt = &started
	s.persistLocked()
}

// SetFinishing moves in_progress → finishing. Any other state is a no-op.
func (s *Store) SetFinishing(studentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || sess.Status != models.RoomInProgress {
		return
	}
	sess.Status = models.RoomFinishing
	s.persistLocked()
}

// UpdateSet writes one field of one set, then waterfalls the value into
// subsequent sets of the same exercise while they are still empty or still
// carry the value being replaced, stopping at the first set the trainer
// edited individually. Weight and reps waterfall independently.
func (s *Store) UpdateSet(studentID uuid.UUID, exerciseIdx, setIdx int, field SetField, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || exerciseIdx < 0 || exerciseIdx >= len(sess.Exercises) {
		return
	}
	sets := sess.Exercises[exerciseIdx].SetsData
	if setIdx < 0 || setIdx >= len(sets) {
		return
	}

	get, set := fieldAccessors(field)
	if get == nil {
		return
	}

	oldValue := get(&sets[setIdx])
	set(&sets[setIdx], value)

	for i := setIdx + 1; i < len(sets); i++ {
		current := get(&sets[i])
		if current != "" && current != oldValue {
			break // diverged: manually edited downstream
		}
		set(&sets[i], value)
	}
	s.persistLocked()
}

func fieldAccessors(field SetField) (func(*models.WorkoutSetData) string, func(*models.WorkoutSetData, string)) {
	switch field {
	case FieldWeight:
		return func(sd *models.WorkoutSetData) string { return sd.Weight },
			func(sd *models.WorkoutSetData, v string) { sd.Weight = v }
	case FieldReps:
		return func(sd *models.WorkoutSetData) string { return sd.Reps },
			func(sd *models.WorkoutSetData, v string) { sd.Reps = v }
	}
	return nil, nil
}

// ToggleSetComplete flips one set's completed flag. Blank weight/reps are
// accepted — marking complete with empty fields is valid input.
func (s *Store) ToggleSetComplete(studentID uuid.UUID, exerciseIdx, setIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || exerciseIdx < 0 || exerciseIdx >= len(sess.Exercises) {
		return
	}
	sets := sess.Exercises[exerciseIdx].SetsData
	if setIdx < 0 || setIdx >= len(sets) {
		return
	}
	sets[setIdx].Completed = !sets[setIdx].Completed
	s.persistLocked()
}

// SwapExercise substitutes the exercise in a slot and resets its logged
// sets to fresh empty rows — the new exercise's load history is unrelated
// to the old one's, so in-progress logging for the slot is discarded.
func (s *Store) SwapExercise(studentID uuid.UUID, exerciseIdx int, newExercise NewExercise, previousLoad string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || exerciseIdx < 0 || exerciseIdx >= len(sess.Exercises) {
		return
	}
	ex := &sess.Exercises[exerciseIdx]
	ex.ExerciseID = newExercise.ID
	ex.Name = newExercise.Name
	ex.SwapSource = newExercise.Source
	ex.PreviousLoad = previousLoad
	ex.SetsData = models.NewSetRows(ex.Sets)
	s.persistLocked()
}

// StartRestTimer records a rest deadline. The store only holds the
// deadline; countdown display and expiry notification are the UI's job.
func (s *Store) StartRestTimer(studentID uuid.UUID, durationSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok {
		return
	}
	end := s.now().Add(time.Duration(durationSeconds) * time.Second)
	sess.RestTimerEnd = &end
	sess.RestTimerDuration = durationSeconds
	s.persistLocked()
}

// ClearRestTimer clears any rest deadline.
func (s *Store) ClearRestTimer(studentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok {
		return
	}
	sess.RestTimerEnd = nil
	sess.RestTimerDuration = 0
	s.persistLocked()
}

// FinishSession evicts a session after the caller has persisted it. The
// store has no knowledge of the persistence outcome: call the persistence
// bridge first and only call this on success, otherwise the data is gone.
func (s *Store) FinishSession(studentID uuid.UUID) {
	s.RemoveStudent(studentID)
}

// ClearExpiredSessions evicts every session started more than 24 hours
// ago. Ready sessions (never started) are kept. Returns the number
// evicted. Runs once at process start, not on a timer.
func (s *Store) ClearExpiredSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []uuid.UUID
	for id, sess := range s.sessions {
		if sess.StartedAt != nil && now.Sub(*sess.StartedAt) >= maxSessionAge {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.removeLocked(id)
	}
	if len(expired) > 0 {
		s.persistLocked()
	}
	return len(expired)
}

// Session returns a deep copy of one session.
func (s *Store) Session(studentID uuid.UUID) (models.ActiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok {
		return models.ActiveSession{}, false
	}
	return copySession(sess), true
}

// Sessions returns deep copies of all sessions in admission order.
func (s *Store) Sessions() []models.ActiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActiveSession, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copySession(s.sessions[id]))
	}
	return out
}

// ActiveStudentID returns the focused student, or (uuid.Nil, false) when
// no session holds focus.
func (s *Store) ActiveStudentID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != uuid.Nil
}

// FinishPayloadFor assembles the persistence payload for a session,
// without mutating the store. Returns false if the session does not exist
// or was never started.
func (s *Store) FinishPayloadFor(studentID uuid.UUID, rpe *int, feedback string) (models.FinishPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[studentID]
	if !ok || sess.StartedAt == nil {
		return models.FinishPayload{}, false
	}
	copied := copySession(sess)
	return models.FinishPayload{
		StudentID:         copied.StudentID,
		TrainerID:         copied.TrainerID,
		AssignedWorkoutID: copied.AssignedWorkoutID,
		AssignedProgramID: copied.AssignedProgramID,
		StartedAt:         *copied.StartedAt,
		Exercises:         copied.Exercises,
		RPE:               rpe,
		Feedback:          feedback,
	}, true
}

func copySession(sess *models.ActiveSession) models.ActiveSession {
	out := *sess
	out.Exercises = make([]models.ExerciseData, len(sess.Exercises))
	for i, ex := range sess.Exercises {
		ex.SetsData = append([]models.WorkoutSetData(nil), ex.SetsData...)
		ex.SubstituteExerciseIDs = append([]uuid.UUID(nil), ex.SubstituteExerciseIDs...)
		out.Exercises[i] = ex
	}
	if sess.StartedAt != nil {
		t := *sess.StartedAt
		out.StartedAt = &t
	}
	if sess.RestTimerEnd != nil {
		t := *sess.RestTimerEnd
		out.RestTimerEnd = &t
	}
	return out
}
