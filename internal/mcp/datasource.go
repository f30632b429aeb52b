package mcp

import (
	"context"
	"time"

	"github.com/claude/kinevo/internal/models"
	"github.com/claude/kinevo/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools, so tools are testable
// against a fake. *storage.DB satisfies this.
type DataSource interface {
	GetAssignedProgram(ctx context.Context, studentID uuid.UUID) (models.Program, []models.ScheduledWorkout, error)
	QuerySessionRefs(ctx context.Context, studentID uuid.UUID, start, end time.Time) ([]models.SessionRef, error)
	QuerySessionHistory(ctx context.Context, studentID uuid.UUID, start, end time.Time) ([]storage.SessionSummary, error)
	PreviousLoads(ctx context.Context, studentID uuid.UUID, exerciseIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
