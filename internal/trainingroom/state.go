package trainingroom

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// stateKey names the persisted training-room snapshot. One row, replaced
// on every save.
const stateKey = "kinevo-training-room"

// snapshotVersion is bumped on any incompatible snapshot schema change.
// Loads of another version start with an empty room instead of failing.
const snapshotVersion = 1

// snapshot is the serialized form of the store. Sessions are a slice so
// admission order survives the round trip. Unknown fields from newer
// writers are dropped on load, which beats crashing on a schema change.
type snapshot struct {
	Version         int                    `json:"version"`
	Sessions        []models.ActiveSession `json:"sessions"`
	ActiveStudentID uuid.UUID              `json:"active_student_id"`
}

// StateDB is the durable local home of the training room, so a process
// restart does not lose in-progress sessions.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS training_room_state (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// SaveSnapshot replaces the stored snapshot.
func (s *StateDB) SaveSnapshot(data []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO training_room_state (key, data, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)`,
		stateKey, string(data),
	)
	return err
}

// LoadSnapshot returns the stored snapshot, or ok=false when none exists.
func (s *StateDB) LoadSnapshot() ([]byte, bool, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT data FROM training_room_state WHERE key = ?`, stateKey,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(data), true, nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// persistLocked writes the current store contents to the state db. Errors
// are logged, never surfaced: a failed local save must not break a live
// mutation. Caller holds s.mu.
func (s *Store) persistLocked() {
	if s.state == nil {
		return
	}
	snap := snapshot{
		Version:         snapshotVersion,
		ActiveStudentID: s.active,
		Sessions:        make([]models.ActiveSession, 0, len(s.order)),
	}
	for _, id := range s.order {
		snap.Sessions = append(snap.Sessions, copySession(s.sessions[id]))
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("marshaling training room snapshot", "error", err)
		return
	}
	if err := s.state.SaveSnapshot(data); err != nil {
		s.log.Error("saving training room snapshot", "error", err)
	}
}

// restore loads the persisted snapshot into an empty store. Any load
// problem (missing, corrupt, wrong version) leaves the room empty.
func (s *Store) restore() {
	if s.state == nil {
		return
	}
	data, ok, err := s.state.LoadSnapshot()
	if err != nil {
		s.log.Warn("loading training room snapshot", "error", err)
		return
	}
	if !ok {
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("corrupt training room snapshot, starting empty", "error", err)
		return
	}
	if snap.Version != snapshotVersion {
		s.log.Warn("unknown training room snapshot version, starting empty",
			"version", snap.Version)
		return
	}

	for i := range snap.Sessions {
		sess := snap.Sessions[i]
		s.sessions[sess.StudentID] = &sess
		s.order = append(s.order, sess.StudentID)
	}
	if _, ok := s.sessions[snap.ActiveStudentID]; ok {
		s.active = snap.ActiveStudentID
	}
	s.log.Info("training room restored", "sessions", len(s.order))
}
