package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/claude/kinevo/internal/schedule"
	"github.com/claude/kinevo/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleCalendar projects a student's current program onto a date range.
// The range comes either from explicit start/end query params or from a
// view (week | month | grid) anchored at date (default today).
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}

	rng, err := parseCalendarRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	program, workouts, err := s.db.GetAssignedProgram(r.Context(), studentID)
	if errors.Is(err, storage.ErrNoProgram) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no current program"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Buffer one day each side so sessions logged near midnight in another
	// timezone still land on a rendered day; extras are ignored.
	sessions, err := s.db.QuerySessionRefs(r.Context(), studentID,
		schedule.AddDays(rng.Start, -1), schedule.AddDays(rng.End, 2))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	days := schedule.GenerateCalendarDays(rng.Start, rng.End, workouts, sessions,
		program.StartedAt, program.DurationWeeks)

	writeJSON(w, http.StatusOK, map[string]any{
		"program": program,
		"range":   rng,
		"days":    days,
	})
}

// handleToday returns the workouts scheduled for a student today, the
// input for admitting them into the training room.
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}

	program, workouts, err := s.db.GetAssignedProgram(r.Context(), studentID)
	if errors.Is(err, storage.ErrNoProgram) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no current program"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	today := time.Now()
	week, _ := schedule.ProgramWeek(today, program.StartedAt, program.DurationWeeks)
	scheduled := schedule.ScheduledWorkoutsFor(today, workouts, program.StartedAt, program.DurationWeeks)
	if scheduled == nil {
		scheduled = []models.WorkoutRef{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date_key":     schedule.ToDateKey(today),
		"in_program":   schedule.IsDateInProgram(today, program.StartedAt, program.DurationWeeks),
		"program_week": week,
		"workouts":     scheduled,
	})
}

// handleWorkoutSetup returns the session setup payload for one assigned
// workout: ordered exercises with previous-load annotations.
func (s *Server) handleWorkoutSetup(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}
	workoutID, err := uuid.Parse(chi.URLParam(r, "workoutID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	setup, err := s.db.GetWorkoutSetup(r.Context(), studentID, workoutID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	history, err := s.db.QuerySessionHistory(r.Context(), studentID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleStudentStats(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student ID"})
		return
	}

	stats, err := s.db.GetStudentStats(r.Context(), studentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStudentRoster(w http.ResponseWriter, r *http.Request) {
	trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid trainer ID"})
		return
	}

	students, err := s.db.ListStudents(r.Context(), trainerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if students == nil {
		students = []storage.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseCalendarRange resolves the requested calendar span. Explicit
// start/end win; otherwise view + date select a week, month, or padded
// month grid.
func parseCalendarRange(r *http.Request) (schedule.DateRange, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return schedule.DateRange{}, fmt.Errorf("start and end must be given together")
		}
		start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
		if err != nil {
			return schedule.DateRange{}, fmt.Errorf("invalid start date %q", startStr)
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
		if err != nil {
			return schedule.DateRange{}, fmt.Errorf("invalid end date %q", endStr)
		}
		if end.Before(start) {
			return schedule.DateRange{}, fmt.Errorf("end before start")
		}
		return schedule.DateRange{Start: start, End: end}, nil
	}

	anchor := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			return schedule.DateRange{}, fmt.Errorf("invalid date %q", dateStr)
		}
		anchor = parsed
	}

	switch view := r.URL.Query().Get("view"); view {
	case "", "week":
		return schedule.WeekRange(anchor), nil
	case "month":
		return schedule.MonthRange(anchor), nil
	case "grid":
		return schedule.MonthGridRange(anchor), nil
	default:
		return schedule.DateRange{}, fmt.Errorf("unknown view %q", view)
	}
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
