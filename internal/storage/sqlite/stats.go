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

// UpsertStats replaces the materialized stats row of an exercise.
func (q *queries) UpsertStats(ctx context.Context, st models.ExerciseStats) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO exercise_stats (exercise_id, user_id, unit, last_best_set_value, estimated_1rm, total_volume, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (exercise_id) DO UPDATE SET
			unit = excluded.unit,
			last_best_set_value = excluded.last_best_set_value,
			estimated_1rm = excluded.estimated_1rm,
			total_volume = excluded.total_volume,
			updated_at = excluded.updated_at`,
		st.ExerciseID, st.UserID, st.Unit,
		nullFloat(st.LastBestSetValue), nullFloat(st.Estimated1RM), nullFloat(st.TotalVolume),
		toNanos(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting exercise stats: %w", err)
	}
	return nil
}

// GetStats returns the stats row of an exercise.
func (q *queries) GetStats(ctx context.Context, exerciseID uuid.UUID) (models.ExerciseStats, error) {
	var (
		st                 models.ExerciseStats
		best, e1rm, volume sql.NullFloat64
		updated            int64
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT exercise_id, user_id, unit, last_best_set_value, estimated_1rm, total_volume, updated_at
		FROM exercise_stats WHERE exercise_id = ?`, exerciseID,
	).Scan(&st.ExerciseID, &st.UserID, &st.Unit, &best, &e1rm, &volume, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ExerciseStats{}, storage.ErrNotFound
		}
		return models.ExerciseStats{}, fmt.Errorf("getting exercise stats: %w", err)
	}
	st.LastBestSetValue = floatPtr(best)
	st.Estimated1RM = floatPtr(e1rm)
	st.TotalVolume = floatPtr(volume)
	st.UpdatedAt = fromNanos(updated)
	return st, nil
}
