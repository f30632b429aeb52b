package schedule

import (
	"slices"
	"time"

	"github.com/claude/kinevo/internal/models"
)

// All projector functions are total for well-typed input: they never
// return errors, and every day resolves to one of the five statuses.
// Zero time.Time values are undefined behavior, not a handled case —
// inputs come from already-validated backend rows.

// ProgramEndDate returns the inclusive last day of a bounded program.
// Only meaningful when durationWeeks > 0.
func ProgramEndDate(startedAt time.Time, durationWeeks int) time.Time {
	return AddDays(StartOfDay(startedAt), durationWeeks*7-1)
}

// IsDateInProgram reports whether date falls inside the program bounds.
// A durationWeeks of 0 means open-ended: every date on or after the start
// is in the program.
func IsDateInProgram(date, startedAt time.Time, durationWeeks int) bool {
	d := StartOfDay(date)
	start := StartOfDay(startedAt)
	if d.Before(start) {
		return false
	}
	if durationWeeks <= 0 {
		return true
	}
	return !d.After(ProgramEndDate(startedAt, durationWeeks))
}

// ProgramWeek returns the 1-indexed program week containing date, or
// (0, false) outside the program bounds.
func ProgramWeek(date, startedAt time.Time, durationWeeks int) (int, bool) {
	d := StartOfDay(date)
	start := StartOfDay(startedAt)
	if d.Before(start) {
		return 0, false
	}
	week := daysBetween(start, d)/7 + 1
	if durationWeeks > 0 && week > durationWeeks {
		return 0, false
	}
	return week, true
}

// ScheduledWorkoutsFor returns the workouts recurring on date's weekday,
// preserving input order. Empty when date is outside the program.
func ScheduledWorkoutsFor(date time.Time, workouts []models.ScheduledWorkout, startedAt time.Time, durationWeeks int) []models.WorkoutRef {
	if !IsDateInProgram(date, startedAt, durationWeeks) {
		return nil
	}
	weekday := int(date.Weekday())
	var refs []models.WorkoutRef
	for _, w := range workouts {
		if slices.Contains(w.ScheduledDays, weekday) {
			refs = append(refs, models.WorkoutRef{ID: w.ID, Name: w.Name})
		}
	}
	return refs
}

// GenerateCalendarDays builds one CalendarDay per date in
// [rangeStart, rangeEnd] inclusive, classified against time.Now.
func GenerateCalendarDays(rangeStart, rangeEnd time.Time, workouts []models.ScheduledWorkout, sessions []models.SessionRef, startedAt time.Time, durationWeeks int) []models.CalendarDay {
	return generateCalendarDays(rangeStart, rangeEnd, workouts, sessions, startedAt, durationWeeks, time.Now())
}

// generateCalendarDays is the now-injectable core of GenerateCalendarDays.
func generateCalendarDays(rangeStart, rangeEnd time.Time, workouts []models.ScheduledWorkout, sessions []models.SessionRef, startedAt time.Time, durationWeeks int, now time.Time) []models.CalendarDay {
	today := StartOfDay(now)
	start := StartOfDay(rangeStart)
	end := StartOfDay(rangeEnd)

	// Index sessions by local date key for O(1) per-day lookup. Callers may
	// pass a buffered superset of the range; extras are simply never read.
	sessionsByDate := make(map[string][]models.SessionRef)
	for _, s := range sessions {
		key := ToDateKey(s.StartedAt)
		sessionsByDate[key] = append(sessionsByDate[key], s)
	}

	var days []models.CalendarDay
	for cursor := start; !cursor.After(end); cursor = AddDays(cursor, 1) {
		dateKey := ToDateKey(cursor)
		inProgram := IsDateInProgram(cursor, startedAt, durationWeeks)
		week, _ := ProgramWeek(cursor, startedAt, durationWeeks)
		scheduled := ScheduledWorkoutsFor(cursor, workouts, startedAt, durationWeeks)

		var completed []models.SessionRef
		for _, s := range sessionsByDate[dateKey] {
			if s.Status == models.SessionCompleted {
				completed = append(completed, s)
			}
		}

		// Status priority is a load-bearing tie-break: a day with one
		// completed session and further unfinished scheduled workouts is
		// done, never missed.
		var status models.DayStatus
		switch {
		case !inProgram:
			status = models.DayOutOfProgram
		case len(completed) > 0:
			status = models.DayDone
		case len(scheduled) > 0 && cursor.Before(today):
			status = models.DayMissed
		case len(scheduled) > 0:
			status = models.DayScheduled // today or future
		default:
			status = models.DayRest
		}

		days = append(days, models.CalendarDay{
			Date:              cursor,
			DateKey:           dateKey,
			DayOfWeek:         int(cursor.Weekday()),
			IsToday:           cursor.Equal(today),
			IsInProgram:       inProgram,
			ProgramWeek:       week,
			ScheduledWorkouts: scheduled,
			CompletedSessions: completed,
			Status:            status,
		})
	}
	return days
}
