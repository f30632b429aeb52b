package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/claude/kinevo/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkoutSetup is everything the training room needs to admit a student:
// workout identity plus the ordered exercise list with previous loads.
type WorkoutSetup struct {
	AssignedProgramID uuid.UUID             `json:"assigned_program_id"`
	WorkoutName       string                `json:"workout_name"`
	Exercises         []models.ExerciseData `json:"exercises"`
}

// GetWorkoutSetup builds the session setup payload for an assigned
// workout: its exercise items in order, each annotated with the student's
// most recent logged weight for that exercise (e.g. "80kg").
func (db *DB) GetWorkoutSetup(ctx context.Context, studentID, assignedWorkoutID uuid.UUID) (*WorkoutSetup, error) {
	var setup WorkoutSetup
	err := db.Pool.QueryRow(ctx,
		`SELECT assigned_program_id, name FROM assigned_workouts WHERE id = $1`,
		assignedWorkoutID).Scan(&setup.AssignedProgramID, &setup.WorkoutName)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("assigned workout %s not found", assignedWorkoutID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying assigned workout: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT i.id, i.exercise_id, COALESCE(e.name, i.exercise_name),
		        i.sets, COALESCE(i.reps, '12'), COALESCE(i.rest_seconds, 60),
		        COALESCE(e.video_url, ''), COALESCE(i.substitute_exercise_ids, '{}')
		 FROM assigned_workout_items i
		 LEFT JOIN exercises e ON e.id = i.exercise_id
		 WHERE i.assigned_workout_id = $1 AND i.item_type = 'exercise'
		 ORDER BY i.order_index ASC`,
		assignedWorkoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.ExerciseData
		if err := rows.Scan(&ex.ID, &ex.ExerciseID, &ex.Name, &ex.Sets, &ex.Reps,
			&ex.RestSeconds, &ex.VideoURL, &ex.SubstituteExerciseIDs); err != nil {
			return nil, fmt.Errorf("scanning workout item: %w", err)
		}
		ex.PlannedExerciseID = ex.ExerciseID
		ex.SwapSource = models.SwapNone
		ex.SetsData = models.NewSetRows(ex.Sets)
		setup.Exercises = append(setup.Exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(setup.Exercises) == 0 {
		return nil, fmt.Errorf("assigned workout %s has no exercises", assignedWorkoutID)
	}

	exerciseIDs := make([]uuid.UUID, 0, len(setup.Exercises))
	for _, ex := range setup.Exercises {
		exerciseIDs = append(exerciseIDs, ex.ExerciseID)
	}
	loads, err := db.PreviousLoads(ctx, studentID, exerciseIDs)
	if err != nil {
		return nil, err
	}
	for i := range setup.Exercises {
		setup.Exercises[i].PreviousLoad = loads[setup.Exercises[i].ExerciseID]
	}

	return &setup, nil
}

// PreviousLoads returns, per exercise, the weight of the student's most
// recently logged set of that exercise, rendered as a display string like
// "80kg". Exercises with no history are absent from the map.
func (db *DB) PreviousLoads(ctx context.Context, studentID uuid.UUID, exerciseIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	loads := make(map[uuid.UUID]string)
	if len(exerciseIDs) == 0 {
		return loads, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (l.executed_exercise_id)
		        l.executed_exercise_id, l.weight, COALESCE(l.weight_unit, 'kg')
		 FROM set_logs l
		 JOIN workout_sessions s ON s.id = l.workout_session_id
		 WHERE s.student_id = $1 AND l.executed_exercise_id = ANY($2) AND l.weight > 0
		 ORDER BY l.executed_exercise_id, l.completed_at DESC`,
		studentID, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("querying previous loads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var weight float64
		var unit string
		if err := rows.Scan(&id, &weight, &unit); err != nil {
			return nil, fmt.Errorf("scanning previous load: %w", err)
		}
		loads[id] = formatLoad(weight, unit)
	}
	return loads, rows.Err()
}

// formatLoad renders a weight for display: 80.0 shows as "80kg",
// 22.5 as "22.5kg".
func formatLoad(weight float64, unit string) string {
	return strconv.FormatFloat(weight, 'f', -1, 64) + unit
}
