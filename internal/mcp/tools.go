package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/claude/kinevo/internal/schedule"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.ParseInLocation("2006-01-02", s, time.Local)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetStudentCalendar = mcp.NewTool("get_student_calendar",
	mcp.WithDescription("Project a student's current program onto a date range. Returns one entry per day with status (done/missed/scheduled/rest/out_of_program), 1-indexed program week, scheduled workouts, and completed sessions."),
	mcp.WithString("student_id", mcp.Required(), mcp.Description("Student UUID")),
	mcp.WithString("start", mcp.Description("Range start (ISO 8601 or YYYY-MM-DD). Defaults to the current week's Sunday.")),
	mcp.WithString("end", mcp.Description("Range end. Defaults to the current week's Saturday.")),
)

var toolGetTodayWorkouts = mcp.NewTool("get_today_workouts",
	mcp.WithDescription("List the workouts scheduled for a student today under their current program, with the program week."),
	mcp.WithString("student_id", mcp.Required(), mcp.Description("Student UUID")),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("Completed workout sessions for a student, newest first, with duration, RPE, feedback, and logged-set counts."),
	mcp.WithString("student_id", mcp.Required(), mcp.Description("Student UUID")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetPreviousLoads = mcp.NewTool("get_previous_loads",
	mcp.WithDescription("Most recent logged weight per exercise for a student, as display strings like '80kg'."),
	mcp.WithString("student_id", mcp.Required(), mcp.Description("Student UUID")),
	mcp.WithString("exercise_ids", mcp.Required(), mcp.Description("Comma-separated exercise UUIDs")),
)

// --- Tool handlers ---

func (h *handlers) getStudentCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, errResult := requireStudentID(req)
	if errResult != nil {
		return errResult, nil
	}

	var rng schedule.DateRange
	startStr := req.GetString("start", "")
	endStr := req.GetString("end", "")
	if startStr == "" && endStr == "" {
		rng = schedule.WeekRange(time.Now())
	} else {
		start, end, err := defaultTimeRange(startStr, endStr)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		rng = schedule.DateRange{Start: start, End: end}
	}

	program, workouts, err := h.ds.GetAssignedProgram(ctx, studentID)
	if err != nil {
		h.log.Error("mcp get_student_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	sessions, err := h.ds.QuerySessionRefs(ctx, studentID,
		schedule.AddDays(rng.Start, -1), schedule.AddDays(rng.End, 2))
	if err != nil {
		h.log.Error("mcp get_student_calendar sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	days := schedule.GenerateCalendarDays(rng.Start, rng.End, workouts, sessions,
		program.StartedAt, program.DurationWeeks)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"program": program,
		"days":    days,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTodayWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, errResult := requireStudentID(req)
	if errResult != nil {
		return errResult, nil
	}

	program, workouts, err := h.ds.GetAssignedProgram(ctx, studentID)
	if err != nil {
		h.log.Error("mcp get_today_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	today := time.Now()
	week, _ := schedule.ProgramWeek(today, program.StartedAt, program.DurationWeeks)
	scheduled := schedule.ScheduledWorkoutsFor(today, workouts, program.StartedAt, program.DurationWeeks)
	if scheduled == nil {
		scheduled = []models.WorkoutRef{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"date_key":     schedule.ToDateKey(today),
		"program_week": week,
		"workouts":     scheduled,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, errResult := requireStudentID(req)
	if errResult != nil {
		return errResult, nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	history, err := h.ds.QuerySessionHistory(ctx, studentID, start, end)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(history)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPreviousLoads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, errResult := requireStudentID(req)
	if errResult != nil {
		return errResult, nil
	}

	raw, err := req.RequireString("exercise_ids")
	if err != nil {
		return mcp.NewToolResultError("exercise_ids parameter is required"), nil
	}
	var exerciseIDs []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return mcp.NewToolResultError("invalid exercise id: " + part), nil
		}
		exerciseIDs = append(exerciseIDs, id)
	}

	loads, err := h.ds.PreviousLoads(ctx, studentID, exerciseIDs)
	if err != nil {
		h.log.Error("mcp get_previous_loads", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(loads)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func requireStudentID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("student_id")
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("student_id parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("invalid student_id: " + raw)
	}
	return id, nil
}
