package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutSetData is one logged set within a live session. Weight and reps
// stay strings until persistence so partially-typed values survive as-is.
type WorkoutSetData struct {
	Weight    string `json:"weight"`
	Reps      string `json:"reps"`
	Completed bool   `json:"completed"`
}

// SwapSource records how the exercise occupying a slot was chosen.
type SwapSource string

const (
	SwapNone   SwapSource = "none"
	SwapManual SwapSource = "manual"
	SwapAuto   SwapSource = "auto"
)

// ExerciseData is one exercise slot of a live session. ExerciseID may
// differ from PlannedExerciseID after a swap. SetsData always holds
// exactly Sets entries; entries are overwritten or reset, never removed.
type ExerciseData struct {
	ID                    uuid.UUID        `json:"id"` // assigned workout item id
	PlannedExerciseID     uuid.UUID        `json:"planned_exercise_id"`
	ExerciseID            uuid.UUID        `json:"exercise_id"`
	Name                  string           `json:"name"`
	Sets                  int              `json:"sets"`
	Reps                  string           `json:"reps"` // target, e.g. "12" or "8-12"
	RestSeconds           int              `json:"rest_seconds"`
	VideoURL              string           `json:"video_url,omitempty"`
	SubstituteExerciseIDs []uuid.UUID      `json:"substitute_exercise_ids"`
	SwapSource            SwapSource       `json:"swap_source"`
	SetsData              []WorkoutSetData `json:"sets_data"`
	PreviousLoad          string           `json:"previous_load,omitempty"` // e.g. "80kg"
}

// RoomStatus is the lifecycle state of a live training-room session.
type RoomStatus string

const (
	RoomReady      RoomStatus = "ready"
	RoomInProgress RoomStatus = "in_progress"
	RoomFinishing  RoomStatus = "finishing"
)

// ActiveSession is the in-memory record of one student's live workout.
// StartedAt is non-nil exactly while status is in_progress or finishing.
type ActiveSession struct {
	StudentID         uuid.UUID      `json:"student_id"`
	StudentName       string         `json:"student_name"`
	StudentAvatarURL  string         `json:"student_avatar_url,omitempty"`
	AssignedWorkoutID uuid.UUID      `json:"assigned_workout_id"`
	AssignedProgramID uuid.UUID      `json:"assigned_program_id"`
	TrainerID         uuid.UUID      `json:"trainer_id"`
	WorkoutName       string         `json:"workout_name"`
	Exercises         []ExerciseData `json:"exercises"`
	Status            RoomStatus     `json:"status"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	RestTimerEnd      *time.Time     `json:"rest_timer_end,omitempty"`
	RestTimerDuration int            `json:"rest_timer_duration,omitempty"` // seconds
}

// SessionSetup is the payload that admits a student into the training room.
// Exercises arrive pre-fetched, including previous-load strings.
type SessionSetup struct {
	StudentName       string         `json:"student_name"`
	StudentAvatarURL  string         `json:"student_avatar_url,omitempty"`
	AssignedWorkoutID uuid.UUID      `json:"assigned_workout_id"`
	AssignedProgramID uuid.UUID      `json:"assigned_program_id"`
	TrainerID         uuid.UUID      `json:"trainer_id"`
	WorkoutName       string         `json:"workout_name"`
	Exercises         []ExerciseData `json:"exercises"`
}

// FinishPayload is the one-shot persistence payload for a finished session.
type FinishPayload struct {
	StudentID         uuid.UUID      `json:"student_id"`
	TrainerID         uuid.UUID      `json:"trainer_id"`
	AssignedWorkoutID uuid.UUID      `json:"assigned_workout_id"`
	AssignedProgramID uuid.UUID      `json:"assigned_program_id"`
	StartedAt         time.Time      `json:"started_at"`
	Exercises         []ExerciseData `json:"exercises"`
	RPE               *int           `json:"rpe,omitempty"`
	Feedback          string         `json:"feedback,omitempty"`
}

// NewSetRows returns count empty set rows, the initial state of every
// exercise slot and the reset state after a swap.
func NewSetRows(count int) []WorkoutSetData {
	rows := make([]WorkoutSetData, count)
	return rows
}
