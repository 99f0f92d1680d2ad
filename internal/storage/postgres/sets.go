package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

const setColumns = `s.seq, s.id, s.user_id, s.session_id, s.exercise_id, s.set_number, s.weight, s.reps, s.unit, s.logged_at`

func scanSet(row interface{ Scan(...any) error }) (models.SetEntry, error) {
	var e models.SetEntry
	err := row.Scan(&e.Seq, &e.ID, &e.UserID, &e.SessionID, &e.ExerciseID,
		&e.SetNumber, &e.Weight, &e.Reps, &e.Unit, &e.LoggedAt)
	return e, err
}

func (q *queries) listSets(ctx context.Context, query string, args ...any) ([]models.SetEntry, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetEntry
	for rows.Next() {
		e, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// InsertSet appends a set entry and records its sequence number.
func (q *queries) InsertSet(ctx context.Context, e *models.SetEntry) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO set_entries (id, user_id, session_id, exercise_id, set_number, weight, reps, unit, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`,
		e.ID, e.UserID, e.SessionID, e.ExerciseID, e.SetNumber, e.Weight, e.Reps, e.Unit, e.LoggedAt,
	).Scan(&e.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

// GetSet returns one set owned by userID.
func (q *queries) GetSet(ctx context.Context, userID int, id uuid.UUID) (models.SetEntry, error) {
	e, err := scanSet(q.db.QueryRow(ctx,
		`SELECT `+setColumns+` FROM set_entries s WHERE s.id = $1 AND s.user_id = $2`, id, userID))
	if err != nil {
		if notFound(err) {
			return models.SetEntry{}, storage.ErrNotFound
		}
		return models.SetEntry{}, fmt.Errorf("getting set: %w", err)
	}
	return e, nil
}

// DeleteSet removes one set owned by userID.
func (q *queries) DeleteSet(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM set_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting set: %w", err)
	}
	return affected(tag)
}

// DeleteSetsForSession removes every set logged in the session.
func (q *queries) DeleteSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) (int, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM set_entries WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting session sets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListSetsForSession returns the session's sets in logging order.
func (q *queries) ListSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.SetEntry, error) {
	return q.listSets(ctx,
		`SELECT `+setColumns+` FROM set_entries s
		 WHERE s.session_id = $1 AND s.user_id = $2
		 ORDER BY s.logged_at, s.seq`, sessionID, userID)
}

// CountSetsForSession returns how many sets the session holds.
func (q *queries) CountSetsForSession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM set_entries WHERE session_id = $1`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sets: %w", err)
	}
	return n, nil
}

// ListExerciseIDsForSession returns the distinct exercises trained in a session.
func (q *queries) ListExerciseIDsForSession(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx,
		`SELECT DISTINCT exercise_id FROM set_entries WHERE session_id = $1 ORDER BY exercise_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning exercise id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSetsForExercise returns every set of the exercise regardless of session status.
func (q *queries) ListSetsForExercise(ctx context.Context, exerciseID uuid.UUID) ([]models.SetEntry, error) {
	return q.listSets(ctx,
		`SELECT `+setColumns+` FROM set_entries s
		 WHERE s.exercise_id = $1
		 ORDER BY s.logged_at, s.seq`, exerciseID)
}

// ListCompletedSetsForExercise returns the sets that count towards statistics.
func (q *queries) ListCompletedSetsForExercise(ctx context.Context, exerciseID uuid.UUID) ([]models.SetEntry, error) {
	return q.listSets(ctx,
		`SELECT `+setColumns+` FROM set_entries s
		 JOIN training_sessions t ON t.id = s.session_id
		 WHERE s.exercise_id = $1 AND t.status = $2
		 ORDER BY s.logged_at, s.seq`, exerciseID, models.SessionCompleted)
}

// UpdateSetWeight rewrites a set's weight and unit.
func (q *queries) UpdateSetWeight(ctx context.Context, id uuid.UUID, weight float64, unit models.Unit) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE set_entries SET weight = $1, unit = $2 WHERE id = $3`, weight, unit, id)
	if err != nil {
		return fmt.Errorf("updating set weight: %w", err)
	}
	return affected(tag)
}
