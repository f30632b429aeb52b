package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Student is one roster entry for a trainer.
type Student struct {
	ID        uuid.UUID `json:"id"`
	CoachID   uuid.UUID `json:"coach_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListStudents returns a trainer's students, newest first.
func (db *DB) ListStudents(ctx context.Context, trainerID uuid.UUID) ([]Student, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, coach_id, name, COALESCE(avatar_url, ''), created_at
		 FROM students
		 WHERE coach_id = $1
		 ORDER BY created_at DESC`,
		trainerID)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.CoachID, &s.Name, &s.AvatarURL, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// StudentStats holds aggregate training statistics for one student.
type StudentStats struct {
	TotalSessions     int64              `json:"total_sessions"`
	TotalSets         int64              `json:"total_sets"`
	TotalVolume       float64            `json:"total_volume"` // sum of weight * reps
	AvgRPE            *float64           `json:"avg_rpe,omitempty"`
	FirstSession      *time.Time         `json:"first_session,omitempty"`
	LastSession       *time.Time         `json:"last_session,omitempty"`
	SessionsByWorkout []WorkoutCountStat `json:"sessions_by_workout"`
}

// WorkoutCountStat holds summary stats for one assigned workout.
type WorkoutCountStat struct {
	Name          string  `json:"name"`
	Count         int64   `json:"count"`
	TotalDuration float64 `json:"total_duration_sec"`
}

// GetStudentStats returns aggregate statistics over a student's completed
// sessions.
func (db *DB) GetStudentStats(ctx context.Context, studentID uuid.UUID) (*StudentStats, error) {
	stats := &StudentStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(started_at), MAX(started_at), AVG(rpe)
		 FROM workout_sessions
		 WHERE student_id = $1 AND status = 'completed'`,
		studentID).Scan(&stats.TotalSessions, &stats.FirstSession, &stats.LastSession, &stats.AvgRPE)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(sl.weight * sl.reps_completed), 0)
		 FROM set_logs sl
		 JOIN workout_sessions ws ON ws.id = sl.workout_session_id
		 WHERE ws.student_id = $1`,
		studentID).Scan(&stats.TotalSets, &stats.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT aw.name, COUNT(*), COALESCE(SUM(ws.duration_seconds), 0)
		 FROM workout_sessions ws
		 JOIN assigned_workouts aw ON aw.id = ws.assigned_workout_id
		 WHERE ws.student_id = $1 AND ws.status = 'completed'
		 GROUP BY aw.name
		 ORDER BY COUNT(*) DESC`,
		studentID)
	if err != nil {
		return nil, fmt.Errorf("querying workout counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutCountStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalDuration); err != nil {
			return nil, fmt.Errorf("scanning workout count: %w", err)
		}
		stats.SessionsByWorkout = append(stats.SessionsByWorkout, s)
	}
	return stats, rows.Err()
}
