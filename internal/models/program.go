package models

import (
	"time"

	"github.com/google/uuid"
)

// Program is an assignment of recurring workouts to a student. Open-ended
// when DurationWeeks is zero. Immutable once projected against; a new
// assignment supersedes it rather than mutating it.
type Program struct {
	ID            uuid.UUID `json:"id"`
	StudentID     uuid.UUID `json:"student_id"`
	TrainerID     uuid.UUID `json:"trainer_id"`
	Name          string    `json:"name"`
	StartedAt     time.Time `json:"started_at"`
	DurationWeeks int       `json:"duration_weeks"` // 0 = open-ended
}

// ScheduledWorkout is a workout within a program together with the weekdays
// it recurs on (0 = Sunday .. 6 = Saturday). ScheduledDays may be empty.
type ScheduledWorkout struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ScheduledDays []int     `json:"scheduled_days"`
}

// WorkoutRef is the id/name projection of a ScheduledWorkout used in
// calendar output.
type WorkoutRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Session status values as stored by the backend.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// SessionRef is a backend workout session row as read by the calendar
// projector. The projector never writes these.
type SessionRef struct {
	ID                uuid.UUID  `json:"id"`
	AssignedWorkoutID uuid.UUID  `json:"assigned_workout_id"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Status            string     `json:"status"`
	RPE               *int       `json:"rpe,omitempty"`
}
