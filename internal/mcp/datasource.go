package mcp

import (
	"context"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/tracker"
)

// DataSource abstracts the tracker for MCP tools. Both *tracker.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	GetExerciseStats(ctx context.Context, userID int, exerciseID uuid.UUID) (models.ExerciseStats, error)
	GetProgressionSeries(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.ProgressionPoint, error)
	ListSessions(ctx context.Context, userID int) ([]models.Session, error)
	ListSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.SetEntry, error)
}

// Compile-time check: *tracker.Service satisfies DataSource.
var _ DataSource = (*tracker.Service)(nil)
