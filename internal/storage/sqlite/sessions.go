package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

const sessionColumns = `id, user_id, session_index, status, scheduled_at, created_at, completed_at`

func scanSession(row interface{ Scan(...any) error }) (models.Session, error) {
	var (
		s                    models.Session
		scheduled, completed sql.NullInt64
		created              int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Index, &s.Status, &scheduled, &created, &completed); err != nil {
		return models.Session{}, err
	}
	s.ScheduledAt = timePtr(scheduled)
	s.CreatedAt = fromNanos(created)
	s.CompletedAt = timePtr(completed)
	return s, nil
}

func (q *queries) getSession(ctx context.Context, where string, args ...any) (models.Session, error) {
	s, err := scanSession(q.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM training_sessions WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, storage.ErrNotFound
		}
		return models.Session{}, fmt.Errorf("getting session: %w", err)
	}
	return s, nil
}

// MaxSessionIndex returns the highest index the user has, or 0.
func (q *queries) MaxSessionIndex(ctx context.Context, userID int) (int, error) {
	var idx int
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(session_index), 0) FROM training_sessions WHERE user_id = ?`, userID).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("reading max session index: %w", err)
	}
	return idx, nil
}

// InsertSession stores a new session. A taken index or a second planned
// session yields storage.ErrDuplicate.
func (q *queries) InsertSession(ctx context.Context, s models.Session) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO training_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Index, s.Status, nullNanos(s.ScheduledAt), toNanos(s.CreatedAt), nullNanos(s.CompletedAt))
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
	return q.getSession(ctx, `id = ? AND user_id = ?`, id, userID)
}

// GetPlannedSession returns the user's open session.
func (q *queries) GetPlannedSession(ctx context.Context, userID int) (models.Session, error) {
	return q.getSession(ctx, `user_id = ? AND status = ?`, userID, models.SessionPlanned)
}

// FindSessionByScheduledAt returns the session scheduled at exactly at.
func (q *queries) FindSessionByScheduledAt(ctx context.Context, userID int, at time.Time) (models.Session, error) {
	return q.getSession(ctx, `user_id = ? AND scheduled_at = ? ORDER BY session_index LIMIT 1`, userID, toNanos(at))
}

// ListSessions returns every session of the user in index order.
func (q *queries) ListSessions(ctx context.Context, userID int) ([]models.Session, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE user_id = ? ORDER BY session_index`, userID)
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
	res, err := q.db.ExecContext(ctx, `
		UPDATE training_sessions SET status = ?, completed_at = ?
		WHERE id = ? AND user_id = ? AND status = ?`,
		to, nullNanos(completedAt), id, userID, from)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("updating session status: %w", err)
	}
	return affected(res)
}

// AbandonSession turns a planned session into a skipped one without a schedule.
func (q *queries) AbandonSession(ctx context.Context, userID int, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE training_sessions SET status = ?, scheduled_at = NULL
		WHERE id = ? AND user_id = ? AND status = ?`,
		models.SessionSkipped, id, userID, models.SessionPlanned)
	if err != nil {
		return fmt.Errorf("abandoning session: %w", err)
	}
	return affected(res)
}
