package mcp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
)

// resolveExercise accepts an exercise ID or a case-insensitive name.
func (h *handlers) resolveExercise(ctx context.Context, uid int, ref string) (models.Exercise, error) {
	exercises, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		return models.Exercise{}, err
	}
	id, idErr := uuid.Parse(ref)
	for _, e := range exercises {
		if idErr == nil && e.ID == id {
			return e, nil
		}
		if strings.EqualFold(strings.TrimSpace(ref), e.Name) {
			return e, nil
		}
	}
	return models.Exercise{}, fmt.Errorf("no exercise matching %q", ref)
}

// resolveSession accepts a session ID or a session index.
func (h *handlers) resolveSession(ctx context.Context, uid int, ref string) (models.Session, error) {
	sessions, err := h.ds.ListSessions(ctx, uid)
	if err != nil {
		return models.Session{}, err
	}
	if id, err := uuid.Parse(ref); err == nil {
		for _, s := range sessions {
			if s.ID == id {
				return s, nil
			}
		}
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(ref), "#")); err == nil {
		for _, s := range sessions {
			if s.Index == n {
				return s, nil
			}
		}
	}
	return models.Session{}, fmt.Errorf("no session matching %q", ref)
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the user's exercise catalog with ID, name, unit (mass-kg or mass-lb), group and primary muscle."),
	mcp.WithString("group", mcp.Description("Only return exercises whose group matches (case-insensitive).")),
)

var toolGetExerciseStats = mcp.NewTool("get_exercise_stats",
	mcp.WithDescription("Get the materialized stats of an exercise: best set weight of the latest completed session, Epley estimated 1RM and total volume across completed sessions. Null values mean no completed sets."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or exact name (case-insensitive)")),
)

var toolGetProgressionSeries = mcp.NewTool("get_progression_series",
	mcp.WithDescription("Session-by-session progression of an exercise ordered by session index. Skipped and planned sessions keep their slot with null values."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or exact name (case-insensitive)")),
	mcp.WithNumber("last", mcp.Description("Only return the last N points. Defaults to all.")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List training sessions ordered by index, optionally filtered by status."),
	mcp.WithString("status", mcp.Description("Filter by status."), mcp.Enum("planned", "completed", "skipped")),
	mcp.WithNumber("limit", mcp.Description("Only return the most recent N sessions. Defaults to all.")),
)

var toolGetSessionSets = mcp.NewTool("get_session_sets",
	mcp.WithDescription("List the sets logged in one session, in the order they were logged."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session ID or session index (e.g. 12)")),
)

// --- Tool handlers ---

// Tool failures are reported in the result so the model can see them;
// the returned error is reserved for protocol failures.
func (h *handlers) failed(tool string, err error) (*mcp.CallToolResult, error) {
	h.log.Error("mcp tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(tool + ": " + err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	res, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("encoding result: " + err.Error()), nil
	}
	return res, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	exercises, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		return h.failed("list_exercises", err)
	}

	if group := strings.TrimSpace(req.GetString("group", "")); group != "" {
		filtered := make([]models.Exercise, 0, len(exercises))
		for _, e := range exercises {
			if e.GroupRef != nil && strings.EqualFold(*e.GroupRef, group) {
				filtered = append(filtered, e)
			}
		}
		exercises = filtered
	}

	return jsonResult(exercises)
}

func (h *handlers) getExerciseStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	ex, err := h.resolveExercise(ctx, uid, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stats, err := h.ds.GetExerciseStats(ctx, uid, ex.ID)
	if err != nil {
		return h.failed("get_exercise_stats", err)
	}

	return jsonResult(map[string]any{
		"exercise": ex,
		"stats":    stats,
	})
}

func (h *handlers) getProgressionSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	ex, err := h.resolveExercise(ctx, uid, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	points, err := h.ds.GetProgressionSeries(ctx, uid, ex.ID)
	if err != nil {
		return h.failed("get_progression_series", err)
	}
	if last := req.GetInt("last", 0); last > 0 && last < len(points) {
		points = points[len(points)-last:]
	}

	return jsonResult(map[string]any{
		"exercise": ex.Name,
		"unit":     ex.Unit,
		"points":   points,
	})
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.ListSessions(ctx, uid)
	if err != nil {
		return h.failed("list_sessions", err)
	}

	if status := req.GetString("status", ""); status != "" {
		filtered := make([]models.Session, 0, len(sessions))
		for _, s := range sessions {
			if string(s.Status) == status {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Index < sessions[j].Index })
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(sessions) {
		sessions = sessions[len(sessions)-limit:]
	}

	return jsonResult(sessions)
}

func (h *handlers) getSessionSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError("session parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	sess, err := h.resolveSession(ctx, uid, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sets, err := h.ds.ListSetsForSession(ctx, uid, sess.ID)
	if err != nil {
		return h.failed("get_session_sets", err)
	}

	return jsonResult(map[string]any{
		"session": sess,
		"sets":    sets,
	})
}
