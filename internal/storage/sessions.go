package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"
)

// QuerySessionRefs returns a student's workout sessions overlapping a date
// range, as read by the calendar projector. The range may be buffered
// generously; the projector ignores sessions outside the days it renders.
func (db *DB) QuerySessionRefs(ctx context.Context, studentID uuid.UUID, start, end time.Time) ([]models.SessionRef, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, assigned_workout_id, started_at, completed_at, status, rpe
		 FROM workout_sessions
		 WHERE student_id = $1 AND started_at >= $2 AND started_at < $3
		 ORDER BY started_at ASC`,
		studentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying session refs: %w", err)
	}
	defer rows.Close()

	var refs []models.SessionRef
	for rows.Next() {
		var r models.SessionRef
		if err := rows.Scan(&r.ID, &r.AssignedWorkoutID, &r.StartedAt, &r.CompletedAt, &r.Status, &r.RPE); err != nil {
			return nil, fmt.Errorf("scanning session ref: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// SessionSummary is a completed session with its logged-set count, for
// history views and MCP reads.
type SessionSummary struct {
	ID                uuid.UUID  `json:"id"`
	AssignedWorkoutID uuid.UUID  `json:"assigned_workout_id"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	DurationSeconds   int        `json:"duration_seconds"`
	RPE               *int       `json:"rpe,omitempty"`
	Feedback          string     `json:"feedback,omitempty"`
	SetCount          int        `json:"set_count"`
}

// QuerySessionHistory returns a student's completed sessions in a range,
// newest first, with per-session set counts.
func (db *DB) QuerySessionHistory(ctx context.Context, studentID uuid.UUID, start, end time.Time) ([]SessionSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.assigned_workout_id, s.started_at, s.completed_at,
		        COALESCE(s.duration_seconds, 0), s.rpe, COALESCE(s.feedback, ''),
		        COUNT(l.id)
		 FROM workout_sessions s
		 LEFT JOIN set_logs l ON l.workout_session_id = s.id
		 WHERE s.student_id = $1 AND s.status = 'completed'
		   AND s.started_at >= $2 AND s.started_at < $3
		 GROUP BY s.id
		 ORDER BY s.started_at DESC`,
		studentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying session history: %w", err)
	}
	defer rows.Close()

	var result []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.AssignedWorkoutID, &s.StartedAt, &s.CompletedAt,
			&s.DurationSeconds, &s.RPE, &s.Feedback, &s.SetCount); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// FinishWorkout converts a finished live session into one workout_sessions
// row plus set_logs rows for the completed sets, in a single transaction.
// This is the one-shot persistence bridge: the caller evicts the local
// session only after this returns successfully.
func (db *DB) FinishWorkout(ctx context.Context, p models.FinishPayload) (uuid.UUID, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning finish tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	duration := int(now.Sub(p.StartedAt).Seconds())

	var sessionID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO workout_sessions (student_id, trainer_id, assigned_workout_id,
		 assigned_program_id, status, started_at, completed_at, duration_seconds, rpe, feedback)
		 VALUES ($1,$2,$3,$4,'completed',$5,$6,$7,$8,NULLIF($9,''))
		 RETURNING id`,
		p.StudentID, p.TrainerID, p.AssignedWorkoutID, p.AssignedProgramID,
		p.StartedAt, now, duration, p.RPE, p.Feedback).Scan(&sessionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting workout session: %w", err)
	}

	// Only completed sets become rows. Weight and reps are typed free-form
	// during the session; blanks parse to zero rather than failing the save.
	type setLog struct {
		itemID     uuid.UUID
		plannedID  uuid.UUID
		executedID uuid.UUID
		swapSource models.SwapSource
		setNumber  int
		weight     float64
		reps       int
	}
	var logs []setLog
	for _, ex := range p.Exercises {
		planned := ex.PlannedExerciseID
		if planned == uuid.Nil {
			planned = ex.ExerciseID
		}
		for i, set := range ex.SetsData {
			if !set.Completed {
				continue
			}
			logs = append(logs, setLog{
				itemID:     ex.ID,
				plannedID:  planned,
				executedID: ex.ExerciseID,
				swapSource: ex.SwapSource,
				setNumber:  i + 1,
				weight:     parseDecimal(set.Weight),
				reps:       parseInt(set.Reps),
			})
		}
	}

	if len(logs) > 0 {
		query := `INSERT INTO set_logs (workout_session_id, assigned_workout_item_id,
			planned_exercise_id, executed_exercise_id, swap_source, set_number,
			weight, reps_completed, completed_at, weight_unit) VALUES `
		args := make([]any, 0, len(logs)*10)
		valueStrings := make([]string, 0, len(logs))
		for i, l := range logs {
			base := i * 10
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5,
				base+6, base+7, base+8, base+9, base+10,
			))
			args = append(args, sessionID, l.itemID, l.plannedID, l.executedID,
				string(l.swapSource), l.setNumber, l.weight, l.reps, now, "kg")
		}
		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return uuid.Nil, fmt.Errorf("inserting set logs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("committing finish tx: %w", err)
	}
	return sessionID, nil
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
