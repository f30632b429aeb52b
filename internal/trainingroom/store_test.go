package trainingroom

import (
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"
)

var (
	studentAna  = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	studentBeto = uuid.MustParse("20000000-0000-0000-0000-000000000002")
	trainerID   = uuid.MustParse("f0000000-0000-0000-0000-00000000000f")
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSetup(name string) models.SessionSetup {
	return models.SessionSetup{
		StudentName:       name,
		AssignedWorkoutID: uuid.New(),
		AssignedProgramID: uuid.New(),
		TrainerID:         trainerID,
		WorkoutName:       "Upper A",
		Exercises: []models.ExerciseData{
			{ID: uuid.New(), ExerciseID: uuid.New(), Name: "Bench Press", Sets: 5, Reps: "12", RestSeconds: 90},
			{ID: uuid.New(), ExerciseID: uuid.New(), Name: "Row", Sets: 3, Reps: "10", RestSeconds: 60},
		},
	}
}

// TestAddStudentInitializesSession verifies admission: fresh empty set
// rows sized from Sets, default swap source, ready status, and focus.
func TestAddStudentInitializesSession(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	sess, ok := s.Session(studentAna)
	if !ok {
		t.Fatal("session not found after AddStudent")
	}
	if sess.Status != models.RoomReady {
		t.Errorf("status = %q, want ready", sess.Status)
	}
	if sess.StartedAt != nil {
		t.Error("startedAt should be nil before StartWorkout")
	}
	if got := len(sess.Exercises[0].SetsData); got != 5 {
		t.Errorf("exercise 0 has %d set rows, want 5", got)
	}
	if got := len(sess.Exercises[1].SetsData); got != 3 {
		t.Errorf("exercise 1 has %d set rows, want 3", got)
	}
	for _, row := range sess.Exercises[0].SetsData {
		if row.Weight != "" || row.Reps != "" || row.Completed {
			t.Fatalf("set row not empty: %+v", row)
		}
	}
	if sess.Exercises[0].SwapSource != models.SwapNone {
		t.Errorf("swap source = %q, want none", sess.Exercises[0].SwapSource)
	}
	if active, ok := s.ActiveStudentID(); !ok || active != studentAna {
		t.Errorf("active = (%v, %v), want Ana focused", active, ok)
	}
}

// TestAddStudentReplacesSession verifies that re-admitting a student
// discards prior progress wholesale instead of merging.
func TestAddStudentReplacesSession(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))
	s.StartWorkout(studentAna)
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "80")

	s.AddStudent(studentAna, testSetup("Ana"))
	sess, _ := s.Session(studentAna)
	if sess.Status != models.RoomReady || sess.StartedAt != nil {
		t.Errorf("re-admitted session not reset: status=%q startedAt=%v", sess.Status, sess.StartedAt)
	}
	if sess.Exercises[0].SetsData[0].Weight != "" {
		t.Error("re-admitted session kept old set data")
	}
	if got := len(s.Sessions()); got != 1 {
		t.Errorf("session count = %d, want 1", got)
	}
}

// TestUpdateSetWaterfall verifies forward propagation: a value flows into
// subsequent empty sets, a later edit flows until it hits a diverged set.
func TestUpdateSetWaterfall(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	weights := func() []string {
		sess, _ := s.Session(studentAna)
		out := make([]string, len(sess.Exercises[0].SetsData))
		for i, row := range sess.Exercises[0].SetsData {
			out[i] = row.Weight
		}
		return out
	}

	s.UpdateSet(studentAna, 0, 0, FieldWeight, "50")
	if got := weights(); !slices.Equal(got, []string{"50", "50", "50", "50", "50"}) {
		t.Fatalf("after first edit: %v", got)
	}

	s.UpdateSet(studentAna, 0, 2, FieldWeight, "60")
	if got := weights(); !slices.Equal(got, []string{"50", "50", "60", "60", "60"}) {
		t.Fatalf("after second edit: %v", got)
	}

	// Editing set 0 again propagates through the remaining "50"s but stops
	// at set 2, which diverged.
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "55")
	if got := weights(); !slices.Equal(got, []string{"55", "55", "60", "60", "60"}) {
		t.Fatalf("after third edit: %v", got)
	}
}

// TestUpdateSetFieldsIndependent verifies that weight and reps waterfall
// separately: a reps edit never stops at a weight divergence.
func TestUpdateSetFieldsIndependent(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	s.UpdateSet(studentAna, 0, 0, FieldWeight, "50")
	s.UpdateSet(studentAna, 0, 3, FieldWeight, "70")
	s.UpdateSet(studentAna, 0, 0, FieldReps, "10")

	sess, _ := s.Session(studentAna)
	for i, row := range sess.Exercises[0].SetsData {
		if row.Reps != "10" {
			t.Errorf("set %d reps = %q, want 10", i, row.Reps)
		}
	}
	if sess.Exercises[0].SetsData[3].Weight != "70" {
		t.Error("reps edit disturbed diverged weight")
	}
}

// TestUpdateSetBoundsAndUnknowns verifies the no-op guarantees: unknown
// student, out-of-range indexes, and unknown field all leave state alone.
func TestUpdateSetBoundsAndUnknowns(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	s.UpdateSet(studentBeto, 0, 0, FieldWeight, "50")
	s.UpdateSet(studentAna, 5, 0, FieldWeight, "50")
	s.UpdateSet(studentAna, 0, 9, FieldWeight, "50")
	s.UpdateSet(studentAna, 0, -1, FieldWeight, "50")
	s.UpdateSet(studentAna, 0, 0, SetField("tempo"), "3-1-1")

	sess, _ := s.Session(studentAna)
	for i, row := range sess.Exercises[0].SetsData {
		if row.Weight != "" {
			t.Errorf("set %d weight = %q, want untouched", i, row.Weight)
		}
	}
}

// TestTwoStudentIsolation verifies that sessions progress independently
// and edits never leak across students.
func TestTwoStudentIsolation(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))
	s.AddStudent(studentBeto, testSetup("Beto"))

	if active, _ := s.ActiveStudentID(); active != studentBeto {
		t.Errorf("focus = %v, want most recently admitted", active)
	}

	s.StartWorkout(studentAna)
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "100")
	s.ToggleSetComplete(studentAna, 0, 0)

	beto, _ := s.Session(studentBeto)
	if beto.Status != models.RoomReady {
		t.Errorf("Beto status = %q, want ready", beto.Status)
	}
	if beto.Exercises[0].SetsData[0].Weight != "" || beto.Exercises[0].SetsData[0].Completed {
		t.Error("Ana's edits leaked into Beto's session")
	}

	ana, _ := s.Session(studentAna)
	if ana.Status != models.RoomInProgress || !ana.Exercises[0].SetsData[0].Completed {
		t.Errorf("Ana session wrong: status=%q", ana.Status)
	}
}

// TestRemoveStudentFocusFallback verifies focus moves to the earliest
// remaining admission when the focused session is discarded, and clears
// when the room empties.
func TestRemoveStudentFocusFallback(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))
	s.AddStudent(studentBeto, testSetup("Beto"))

	s.RemoveStudent(studentBeto) // focused
	if active, ok := s.ActiveStudentID(); !ok || active != studentAna {
		t.Errorf("focus after removal = (%v, %v), want Ana", active, ok)
	}

	s.RemoveStudent(studentAna)
	if _, ok := s.ActiveStudentID(); ok {
		t.Error("focus should clear when the room empties")
	}
	if got := len(s.Sessions()); got != 0 {
		t.Errorf("session count = %d, want 0", got)
	}
}

// TestRemoveStudentIdempotent verifies discarding an unknown or already
// removed student is a harmless no-op.
func TestRemoveStudentIdempotent(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	s.RemoveStudent(studentBeto)
	s.RemoveStudent(studentAna)
	s.RemoveStudent(studentAna)

	if got := len(s.Sessions()); got != 0 {
		t.Errorf("session count = %d, want 0", got)
	}
}

// TestStartWorkoutRestampsClock verifies the deliberate quirk: starting an
// already-started session resets startedAt, restarting the elapsed clock.
func TestStartWorkoutRestampsClock(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	s.AddStudent(studentAna, testSetup("Ana"))
	s.StartWorkout(studentAna)

	current = base.Add(20 * time.Minute)
	s.StartWorkout(studentAna)

	sess, _ := s.Session(studentAna)
	if sess.StartedAt == nil || !sess.StartedAt.Equal(current) {
		t.Errorf("startedAt = %v, want restamped to %v", sess.StartedAt, current)
	}
	if sess.Status != models.RoomInProgress {
		t.Errorf("status = %q, want in_progress", sess.Status)
	}
}

// TestSetFinishingTransitions verifies finishing is only reachable from
// in_progress.
func TestSetFinishingTransitions(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	s.SetFinishing(studentAna) // ready: no-op
	if sess, _ := s.Session(studentAna); sess.Status != models.RoomReady {
		t.Errorf("status = %q, want ready (finishing from ready is invalid)", sess.Status)
	}

	s.StartWorkout(studentAna)
	s.SetFinishing(studentAna)
	if sess, _ := s.Session(studentAna); sess.Status != models.RoomFinishing {
		t.Errorf("status = %q, want finishing", sess.Status)
	}

	// Cancelling the feedback step goes back through StartWorkout.
	s.StartWorkout(studentAna)
	if sess, _ := s.Session(studentAna); sess.Status != models.RoomInProgress {
		t.Errorf("status = %q, want in_progress after cancel", sess.Status)
	}
}

// TestSwapExerciseResetsSets verifies a swap replaces the slot's exercise
// and discards its logged sets, leaving other slots untouched.
func TestSwapExerciseResetsSets(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "50")
	s.UpdateSet(studentAna, 1, 0, FieldWeight, "40")
	s.ToggleSetComplete(studentAna, 0, 0)

	replacement := NewExercise{ID: uuid.New(), Name: "Incline Press", Source: models.SwapManual}
	s.SwapExercise(studentAna, 0, replacement, "45kg")

	sess, _ := s.Session(studentAna)
	slot := sess.Exercises[0]
	if slot.ExerciseID != replacement.ID || slot.Name != "Incline Press" {
		t.Errorf("slot not replaced: %s", slot.Name)
	}
	if slot.SwapSource != models.SwapManual {
		t.Errorf("swap source = %q, want manual", slot.SwapSource)
	}
	if slot.PreviousLoad != "45kg" {
		t.Errorf("previous load = %q, want 45kg", slot.PreviousLoad)
	}
	if len(slot.SetsData) != 5 {
		t.Fatalf("set rows = %d, want planned count 5", len(slot.SetsData))
	}
	for i, row := range slot.SetsData {
		if row.Weight != "" || row.Completed {
			t.Errorf("set %d not reset: %+v", i, row)
		}
	}
	// PlannedExerciseID keeps pointing at the program's original pick.
	if slot.PlannedExerciseID == replacement.ID {
		t.Error("planned exercise id should not change on swap")
	}
	if sess.Exercises[1].SetsData[0].Weight != "40" {
		t.Error("swap disturbed a different slot")
	}
}

// TestRestTimer verifies the deadline arithmetic and clearing.
func TestRestTimer(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.AddStudent(studentAna, testSetup("Ana"))
	s.StartRestTimer(studentAna, 90)

	sess, _ := s.Session(studentAna)
	if sess.RestTimerEnd == nil || !sess.RestTimerEnd.Equal(base.Add(90*time.Second)) {
		t.Errorf("rest timer end = %v, want base+90s", sess.RestTimerEnd)
	}
	if sess.RestTimerDuration != 90 {
		t.Errorf("rest timer duration = %d, want 90", sess.RestTimerDuration)
	}

	s.ClearRestTimer(studentAna)
	sess, _ = s.Session(studentAna)
	if sess.RestTimerEnd != nil || sess.RestTimerDuration != 0 {
		t.Error("rest timer not cleared")
	}
}

// TestClearExpiredSessions verifies the 24h cutoff is inclusive, ready
// sessions are immune, and a fresher started session survives.
func TestClearExpiredSessions(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	s.AddStudent(studentAna, testSetup("Ana"))
	s.StartWorkout(studentAna) // started at base

	current = base.Add(2 * time.Hour)
	s.AddStudent(studentBeto, testSetup("Beto"))
	s.StartWorkout(studentBeto) // started at base+2h

	current = base.Add(25 * time.Hour)
	if got := s.ClearExpiredSessions(); got != 1 {
		t.Fatalf("evicted = %d, want 1 (only the 25h-old session)", got)
	}
	if _, ok := s.Session(studentAna); ok {
		t.Error("25h-old session not evicted")
	}
	if _, ok := s.Session(studentBeto); !ok {
		t.Error("23h-old session wrongly evicted")
	}

	// Exactly 24h is expired (inclusive bound).
	current = base.Add(26 * time.Hour)
	if got := s.ClearExpiredSessions(); got != 1 {
		t.Errorf("evicted = %d, want 1 at the 24h mark", got)
	}
}

// TestClearExpiredSessionsKeepsReady verifies never-started sessions are
// kept regardless of age.
func TestClearExpiredSessionsKeepsReady(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	s.AddStudent(studentAna, testSetup("Ana")) // never started

	current = base.Add(48 * time.Hour)
	if got := s.ClearExpiredSessions(); got != 0 {
		t.Errorf("evicted = %d, want 0 for a ready session", got)
	}
}

// TestFinishPayloadFor verifies payload assembly and the started
// precondition.
func TestFinishPayloadFor(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.AddStudent(studentAna, testSetup("Ana"))

	if _, ok := s.FinishPayloadFor(studentAna, nil, ""); ok {
		t.Fatal("payload allowed for a never-started session")
	}

	s.StartWorkout(studentAna)
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "50")
	s.ToggleSetComplete(studentAna, 0, 0)

	rpe := 8
	payload, ok := s.FinishPayloadFor(studentAna, &rpe, "solid session")
	if !ok {
		t.Fatal("payload not assembled for started session")
	}
	if payload.StudentID != studentAna || payload.TrainerID != trainerID {
		t.Error("payload identity fields wrong")
	}
	if !payload.StartedAt.Equal(base) {
		t.Errorf("startedAt = %v, want %v", payload.StartedAt, base)
	}
	if *payload.RPE != 8 || payload.Feedback != "solid session" {
		t.Error("rpe/feedback not carried")
	}
	if !payload.Exercises[0].SetsData[0].Completed {
		t.Error("set data not carried into payload")
	}

	// Assembly must not mutate: the session is still present until
	// FinishSession.
	if _, ok := s.Session(studentAna); !ok {
		t.Error("FinishPayloadFor removed the session")
	}
	s.FinishSession(studentAna)
	if _, ok := s.Session(studentAna); ok {
		t.Error("FinishSession left the session behind")
	}
}

// TestSessionsReturnsCopies verifies reads are deep copies: mutating a
// returned session never touches the store.
func TestSessionsReturnsCopies(t *testing.T) {
	s := testStore(t)
	s.AddStudent(studentAna, testSetup("Ana"))

	sess, _ := s.Session(studentAna)
	sess.Exercises[0].SetsData[0].Weight = "999"
	sess.WorkoutName = "tampered"

	fresh, _ := s.Session(studentAna)
	if fresh.Exercises[0].SetsData[0].Weight != "" || fresh.WorkoutName != "Upper A" {
		t.Error("returned session shares memory with the store")
	}
}
