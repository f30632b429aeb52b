package models

import "time"

// DayStatus classifies a single date relative to a program and its sessions.
type DayStatus string

const (
	DayDone         DayStatus = "done"
	DayMissed       DayStatus = "missed"
	DayScheduled    DayStatus = "scheduled"
	DayRest         DayStatus = "rest"
	DayOutOfProgram DayStatus = "out_of_program"
)

// CalendarDay is one derived day of a program calendar. Recomputed on
// demand, never persisted.
type CalendarDay struct {
	Date              time.Time    `json:"date"`
	DateKey           string       `json:"date_key"` // YYYY-MM-DD
	DayOfWeek         int          `json:"day_of_week"`
	IsToday           bool         `json:"is_today"`
	IsInProgram       bool         `json:"is_in_program"`
	ProgramWeek       int          `json:"program_week"` // 1-indexed, 0 when outside
	ScheduledWorkouts []WorkoutRef `json:"scheduled_workouts"`
	CompletedSessions []SessionRef `json:"completed_sessions"`
	Status            DayStatus    `json:"status"`
}
