package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/kinevo/internal/trainingroom"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
// state may be nil, in which case the training-room resource reports an
// empty room.
func New(ds DataSource, state *trainingroom.StateDB, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Kinevo", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Kinevo coaching data server. Query program calendars, today's scheduled workouts, session history, and previous exercise loads. All tools are read-only; live-session mutations go through the trainer UI."),
	)

	h := &handlers{ds: ds, state: state, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetStudentCalendar, Handler: h.getStudentCalendar},
		server.ServerTool{Tool: toolGetTodayWorkouts, Handler: h.getTodayWorkouts},
		server.ServerTool{Tool: toolGetSessionHistory, Handler: h.getSessionHistory},
		server.ServerTool{Tool: toolGetPreviousLoads, Handler: h.getPreviousLoads},
	)

	s.AddResources(
		server.ServerResource{Resource: resTrainingRoom, Handler: h.trainingRoom},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	state *trainingroom.StateDB
	log   *slog.Logger
}

var resTrainingRoom = mcp.NewResource(
	"kinevo://training_room",
	"Training Room",
	mcp.WithResourceDescription("Current live training-room snapshot: admitted students, their session state, and logged sets"),
	mcp.WithMIMEType("application/json"),
)

// trainingRoom serves the persisted training-room snapshot. The MCP
// process shares the state database with the server rather than the
// server's in-memory store, so a missing snapshot means an empty room.
func (h *handlers) trainingRoom(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data := []byte(`{"sessions":[],"active_student_id":null}`)
	if h.state != nil {
		snap, ok, err := h.state.LoadSnapshot()
		if err != nil {
			h.log.Error("mcp training_room snapshot", "error", err)
			return nil, err
		}
		if ok {
			data = snap
		}
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
