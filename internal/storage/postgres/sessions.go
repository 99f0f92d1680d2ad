package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

const sessionColumns = `id, user_id, session_index, status, scheduled_at, created_at, completed_at`

func scanSession(row interface{ Scan(...any) error }) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.Index, &s.Status, &s.ScheduledAt, &s.CreatedAt, &s.CompletedAt)
	return s, err
}

func (q *queries) getSession(ctx context.Context, where string, args ...any) (models.Session, error) {
	s, err := scanSession(q.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM training_sessions WHERE `+where, args...))
	if err != nil {
		if notFound(err) {
			return models.Session{}, storage.ErrNotFound
		}
		return models.Session{}, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

// MaxSessionIndex returns the highest index the user has, or 0.
func (q *queries) MaxSessionIndex(ctx context.Context, userID int) (int, error) {
	var idx int
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(session_index), 0) FROM training_sessions WHERE user_id = $1`, userID).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("reading max session index: %w", err)
	}
	return idx, nil
}

// InsertSession stores a new session. A taken index or a second planned
// session yields storage.ErrDuplicate.
func (q *queries) InsertSession(ctx context.Context, s models.Session) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO training_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.Index, s.Status, s.ScheduledAt, s.CreatedAt, s.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// GetSession returns one session owned by userID.
func (q *queries) GetSession(ctx context.Context, userID int, id uuid.UUID) (models.Session, error) {
	return q.getSession(ctx, `id = $1 AND user_id = $2`, id, userID)
}

// GetPlannedSession returns the user's open session.
func (q *queries) GetPlannedSession(ctx context.Context, userID int) (models.Session, error) {
	return q.getSession(ctx, `user_id = $1 AND status = $2`, userID, models.SessionPlanned)
}

// FindSessionByScheduledAt returns the session scheduled at exactly at.
func (q *queries) FindSessionByScheduledAt(ctx context.Context, userID int, at time.Time) (models.Session, error) {
	return q.getSession(ctx, `user_id = $1 AND scheduled_at = $2 ORDER BY session_index LIMIT 1`, userID, at)
}

// ListSessions returns every session of the user in index order.
func (q *queries) ListSessions(ctx context.Context, userID int) ([]models.Session, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE user_id = $1 ORDER BY session_index`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// UpdateSessionStatus transitions a session that is currently in from.
func (q *queries) UpdateSessionStatus(ctx context.Context, userID int, id uuid.UUID, from, to models.SessionStatus, completedAt *time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE training_sessions SET status = $1, completed_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5`,
		to, completedAt, id, userID, from)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("updating session status: %w", err)
	}
	return affected(tag)
}

// AbandonSession turns a planned session into a skipped one without a schedule.
func (q *queries) AbandonSession(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE training_sessions SET status = $1, scheduled_at = NULL
		WHERE id = $2 AND user_id = $3 AND status = $4`,
		models.SessionSkipped, id, userID, models.SessionPlanned)
	if err != nil {
		return fmt.Errorf("abandoning session: %w", err)
	}
	return affected(tag)
}
