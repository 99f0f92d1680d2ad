package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

const exerciseColumns = `id, user_id, name, group_ref, primary_muscle, unit, created_at, updated_at`

func scanExercise(row interface{ Scan(...any) error }) (models.Exercise, error) {
	var e models.Exercise
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.GroupRef, &e.PrimaryMuscle, &e.Unit, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertExercise stores a new exercise.
func (q *queries) InsertExercise(ctx context.Context, e models.Exercise) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO exercises (`+exerciseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.Name, e.GroupRef, e.PrimaryMuscle, e.Unit, e.CreatedAt, e.UpdatedAt)
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
	return q.getExercise(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1 AND user_id = $2`, id, userID)
}

// LockExercise reads the exercise and row-locks it for the rest of the transaction.
func (q *queries) LockExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error) {
	return q.getExercise(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
}

func (q *queries) getExercise(ctx context.Context, query string, args ...any) (models.Exercise, error) {
	e, err := scanExercise(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if notFound(err) {
			return models.Exercise{}, storage.ErrNotFound
		}
		return models.Exercise{}, fmt.Errorf("getting exercise: %w", err)
	}
	return e, nil
}

// ListExercises returns the user's exercises ordered by name.
func (q *queries) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE user_id = $1 ORDER BY lower(name), created_at`, userID)
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
	tag, err := q.db.Exec(ctx, `
		UPDATE exercises
		SET name = $1, group_ref = $2, primary_muscle = $3, unit = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		e.Name, e.GroupRef, e.PrimaryMuscle, e.Unit, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	return affected(tag)
}

// DeleteExercise removes the exercise, its sets and its stats row.
func (q *queries) DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error {
	if _, err := q.db.Exec(ctx,
		`DELETE FROM exercise_stats WHERE exercise_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("deleting exercise stats: %w", err)
	}
	if _, err := q.db.Exec(ctx,
		`DELETE FROM set_entries WHERE exercise_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("deleting exercise sets: %w", err)
	}
	tag, err := q.db.Exec(ctx, `DELETE FROM exercises WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return affected(tag)
}
