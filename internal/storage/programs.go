package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoProgram is returned when a student has no current program assignment.
var ErrNoProgram = errors.New("no current program")

// GetAssignedProgram returns a student's current program (the most recent
// non-superseded assignment) together with its workouts and their
// recurrence days, in program order. This is the snapshot the schedule
// projector consumes.
func (db *DB) GetAssignedProgram(ctx context.Context, studentID uuid.UUID) (models.Program, []models.ScheduledWorkout, error) {
	var p models.Program
	err := db.Pool.QueryRow(ctx,
		`SELECT id, student_id, trainer_id, name, started_at, COALESCE(duration_weeks, 0)
		 FROM assigned_programs
		 WHERE student_id = $1 AND superseded_at IS NULL
		 ORDER BY started_at DESC
		 LIMIT 1`,
		studentID).Scan(&p.ID, &p.StudentID, &p.TrainerID, &p.Name, &p.StartedAt, &p.DurationWeeks)
	if err == pgx.ErrNoRows {
		return models.Program{}, nil, ErrNoProgram
	}
	if err != nil {
		return models.Program{}, nil, fmt.Errorf("querying assigned program: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, COALESCE(scheduled_days, '{}')
		 FROM assigned_workouts
		 WHERE assigned_program_id = $1
		 ORDER BY order_index ASC`,
		p.ID)
	if err != nil {
		return models.Program{}, nil, fmt.Errorf("querying assigned workouts: %w", err)
	}
	defer rows.Close()

	var workouts []models.ScheduledWorkout
	for rows.Next() {
		var w models.ScheduledWorkout
		var days []int32
		if err := rows.Scan(&w.ID, &w.Name, &days); err != nil {
			return models.Program{}, nil, fmt.Errorf("scanning assigned workout: %w", err)
		}
		w.ScheduledDays = make([]int, len(days))
		for i, d := range days {
			w.ScheduledDays[i] = int(d)
		}
		workouts = append(workouts, w)
	}
	return p, workouts, rows.Err()
}

// SupersedeProgram marks a student's current program as superseded.
// Assigning a new program never mutates the old one; it closes it out.
func (db *DB) SupersedeProgram(ctx context.Context, studentID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE assigned_programs SET superseded_at = now()
		 WHERE student_id = $1 AND superseded_at IS NULL`,
		studentID)
	if err != nil {
		return fmt.Errorf("superseding program: %w", err)
	}
	return nil
}

// StudentOwnedBy reports whether a student belongs to the given trainer.
func (db *DB) StudentOwnedBy(ctx context.Context, studentID, trainerID uuid.UUID) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE id = $1 AND coach_id = $2`,
		studentID, trainerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking student ownership: %w", err)
	}
	return count > 0, nil
}
