package trainingroom

import (
	"io"
	"log/slog"
	"testing"

	"github.com/claude/kinevo/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStateDBRoundTrip verifies save/load of the raw snapshot row,
// including overwrite semantics and the no-row case.
func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	if _, ok, err := state.LoadSnapshot(); err != nil || ok {
		t.Fatalf("fresh db: ok=%v err=%v, want no snapshot", ok, err)
	}

	if err := state.SaveSnapshot([]byte(`{"version":1}`)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := state.SaveSnapshot([]byte(`{"version":1,"sessions":[]}`)); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}

	data, ok, err := state.LoadSnapshot()
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"version":1,"sessions":[]}` {
		t.Errorf("data = %s, want latest write", data)
	}
}

// TestStoreRestoreAcrossRestart verifies that a store rebuilt over the
// same state db recovers sessions, admission order, focus, and progress.
func TestStoreRestoreAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	state, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	s := NewStore(state, testLogger())
	s.AddStudent(studentAna, testSetup("Ana"))
	s.AddStudent(studentBeto, testSetup("Beto"))
	s.StartWorkout(studentAna)
	s.UpdateSet(studentAna, 0, 0, FieldWeight, "50")
	s.SetActiveStudent(studentAna)
	if err := state.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	state2, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer state2.Close()
	restored := NewStore(state2, testLogger())

	sessions := restored.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("restored %d sessions, want 2", len(sessions))
	}
	if sessions[0].StudentID != studentAna || sessions[1].StudentID != studentBeto {
		t.Error("admission order not preserved across restart")
	}
	if active, ok := restored.ActiveStudentID(); !ok || active != studentAna {
		t.Errorf("focus = (%v, %v), want Ana", active, ok)
	}

	ana, _ := restored.Session(studentAna)
	if ana.Status != models.RoomInProgress || ana.StartedAt == nil {
		t.Errorf("Ana not restored in_progress: status=%q", ana.Status)
	}
	if ana.Exercises[0].SetsData[0].Weight != "50" {
		t.Error("set data lost across restart")
	}

	// The restored store keeps persisting: mutate, reopen again, check.
	restored.RemoveStudent(studentBeto)
	state2.Close()

	state3, err := OpenStateDB(dir)
	if err != nil {
		t.Fatalf("third open: %v", err)
	}
	defer state3.Close()
	third := NewStore(state3, testLogger())
	if got := len(third.Sessions()); got != 1 {
		t.Errorf("after removal restart: %d sessions, want 1", got)
	}
}

// TestRestoreCorruptSnapshot verifies a corrupt blob yields an empty room
// rather than an error.
func TestRestoreCorruptSnapshot(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	if err := state.SaveSnapshot([]byte(`{"version":1,"sessions":[{`)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	s := NewStore(state, testLogger())
	if got := len(s.Sessions()); got != 0 {
		t.Errorf("corrupt snapshot restored %d sessions, want 0", got)
	}
	if _, ok := s.ActiveStudentID(); ok {
		t.Error("corrupt snapshot left a focused session")
	}
}

// TestRestoreVersionMismatch verifies snapshots from an unknown schema
// version are ignored.
func TestRestoreVersionMismatch(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	blob := `{"version":99,"sessions":[{"student_id":"` + studentAna.String() + `"}]}`
	if err := state.SaveSnapshot([]byte(blob)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	s := NewStore(state, testLogger())
	if got := len(s.Sessions()); got != 0 {
		t.Errorf("version-99 snapshot restored %d sessions, want 0", got)
	}
}

// TestRestoreDropsDanglingFocus verifies a persisted focus pointing at a
// student with no session is discarded on load.
func TestRestoreDropsDanglingFocus(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	blob := `{"version":1,"sessions":[],"active_student_id":"` + studentAna.String() + `"}`
	if err := state.SaveSnapshot([]byte(blob)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	s := NewStore(state, testLogger())
	if _, ok := s.ActiveStudentID(); ok {
		t.Error("dangling focus survived restore")
	}
}

// TestNilStateMemoryOnly verifies a store without a state db works and
// never panics on mutation.
func TestNilStateMemoryOnly(t *testing.T) {
	s := NewStore(nil, testLogger())
	s.AddStudent(studentAna, testSetup("Ana"))
	s.StartWorkout(studentAna)
	s.RemoveStudent(studentAna)
	if got := len(s.Sessions()); got != 0 {
		t.Errorf("session count = %d, want 0", got)
	}
}
