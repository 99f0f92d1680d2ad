package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

const exerciseColumns = `id, user_id, name, group_ref, primary_muscle, unit, created_at, updated_at`

func scanExercise(row interface{ Scan(...any) error }) (models.Exercise, error) {
	var (
		e                models.Exercise
		group, muscle    sql.NullString
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &group, &muscle, &e.Unit, &created, &updated); err != nil {
		return models.Exercise{}, err
	}
	e.GroupRef = stringPtr(group)
	e.PrimaryMuscle = stringPtr(muscle)
	e.CreatedAt = fromNanos(created)
	e.UpdatedAt = fromNanos(updated)
	return e, nil
}

// InsertExercise stores a new exercise.
func (q *queries) InsertExercise(ctx context.Context, e models.Exercise) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO exercises (`+exerciseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Name, nullString(e.GroupRef), nullString(e.PrimaryMuscle),
		e.Unit, toNanos(e.CreatedAt), toNanos(e.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// GetExercise returns one exercise owned by userID.
func (q *queries) GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error) {
	e, err := scanExercise(q.db.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Exercise{}, storage.ErrNotFound
		}
		return models.Exercise{}, fmt.Errorf("getting exercise: %w", err)
	}
	return e, nil
}

// LockExercise reads the exercise. SQLite holds a single writer per
// transaction, so the read needs no explicit lock.
func (q *queries) LockExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error) {
	return q.GetExercise(ctx, userID, id)
}

// ListExercises returns the user's exercises ordered by name.
func (q *queries) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE user_id = ? ORDER BY name COLLATE NOCASE, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateExercise overwrites the mutable fields of an exercise.
func (q *queries) UpdateExercise(ctx context.Context, e models.Exercise) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE exercises
		SET name = ?, group_ref = ?, primary_muscle = ?, unit = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Name, nullString(e.GroupRef), nullString(e.PrimaryMuscle), e.Unit, toNanos(e.UpdatedAt),
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	return affected(res)
}

// DeleteExercise removes the exercise, its sets and its stats row.
func (q *queries) DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM exercise_stats WHERE exercise_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("deleting exercise stats: %w", err)
	}
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM set_entries WHERE exercise_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("deleting exercise sets: %w", err)
	}
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM exercises WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return affected(res)
}
