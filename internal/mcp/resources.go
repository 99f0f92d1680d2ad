package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
)

const recentSessionCount = 10

type catalogEntry struct {
	models.Exercise
	Stats *models.ExerciseStats `json:"stats,omitempty"`
}

type sessionWithSets struct {
	models.Session
	Sets []models.SetEntry `json:"sets"`
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	exercises, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		return nil, err
	}

	entries := make([]catalogEntry, 0, len(exercises))
	for _, e := range exercises {
		entry := catalogEntry{Exercise: e}
		stats, err := h.ds.GetExerciseStats(ctx, uid, e.ID)
		if err != nil {
			h.log.Warn("exercise_catalog: stats query failed", "exercise_id", e.ID, "error", err)
		} else {
			entry.Stats = &stats
		}
		entries = append(entries, entry)
	}

	return textContents(req.Params.URI, entries)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.ListSessions(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(sessions) > recentSessionCount {
		sessions = sessions[len(sessions)-recentSessionCount:]
	}

	out := make([]sessionWithSets, 0, len(sessions))
	for _, s := range sessions {
		sets, err := h.ds.ListSetsForSession(ctx, uid, s.ID)
		if err != nil {
			h.log.Warn("recent_sessions: set query failed", "session_id", s.ID, "error", err)
			sets = []models.SetEntry{}
		}
		out = append(out, sessionWithSets{Session: s, Sets: sets})
	}

	return textContents(req.Params.URI, out)
}

func textContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
