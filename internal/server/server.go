package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/kinevo/internal/models"
	"github.com/claude/kinevo/internal/storage"
	"github.com/claude/kinevo/internal/trainingroom"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PersistenceBridge is the one-shot finish-workout persistence call. The
// server treats it as opaque: success evicts the local session, failure
// leaves it untouched for a manual retry. *storage.DB satisfies this.
type PersistenceBridge interface {
	FinishWorkout(ctx context.Context, p models.FinishPayload) (uuid.UUID, error)
}

// Compile-time check: *storage.DB satisfies PersistenceBridge.
var _ PersistenceBridge = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	room   *trainingroom.Store
	bridge PersistenceBridge
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, room *trainingroom.Store, bridge PersistenceBridge, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		room:   room,
		bridge: bridge,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Schedule / calendar reads (no auth — tsnet handles access)
	s.router.Route("/api/v1/students/{studentID}", func(r chi.Router) {
		r.Get("/calendar", s.handleCalendar)
		r.Get("/today", s.handleToday)
		r.Get("/sessions", s.handleSessionHistory)
		r.Get("/stats", s.handleStudentStats)
		r.Get("/workouts/{workoutID}/setup", s.handleWorkoutSetup)
	})
	s.router.Get("/api/v1/trainers/{trainerID}/students", s.handleStudentRoster)

	// Training room (API key required — these mutate live sessions)
	s.router.Route("/api/v1/room", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Get("/", s.handleRoomSnapshot)
		r.Post("/sweep", s.handleRoomSweep)
		r.Delete("/focus", s.handleClearFocus)

		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Post("/", s.handleAddStudent)
			r.Delete("/", s.handleRemoveStudent)
			r.Post("/focus", s.handleSetFocus)
			r.Post("/start", s.handleStartWorkout)
			r.Post("/finishing", s.handleSetFinishing)
			r.Post("/finish", s.handleFinish)
			r.Put("/exercises/{exerciseIdx}/sets/{setIdx}", s.handleUpdateSet)
			r.Post("/exercises/{exerciseIdx}/sets/{setIdx}/toggle", s.handleToggleSet)
			r.Post("/exercises/{exerciseIdx}/swap", s.handleSwapExercise)
			r.Post("/rest-timer", s.handleStartRestTimer)
			r.Delete("/rest-timer", s.handleClearRestTimer)
		})
	})
}
