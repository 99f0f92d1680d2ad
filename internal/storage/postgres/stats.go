package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// UpsertStats replaces the materialized stats row of an exercise.
func (q *queries) UpsertStats(ctx context.Context, st models.ExerciseStats) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO exercise_stats (exercise_id, user_id, unit, last_best_set_value, estimated_1rm, total_volume, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (exercise_id) DO UPDATE SET
			unit = EXCLUDED.unit,
			last_best_set_value = EXCLUDED.last_best_set_value,
			estimated_1rm = EXCLUDED.estimated_1rm,
			total_volume = EXCLUDED.total_volume,
			updated_at = EXCLUDED.updated_at`,
		st.ExerciseID, st.UserID, st.Unit, st.LastBestSetValue, st.Estimated1RM, st.TotalVolume, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting exercise stats: %w", err)
	}
	return nil
}

// GetStats returns the stats row of an exercise.
func (q *queries) GetStats(ctx context.Context, exerciseID uuid.UUID) (models.ExerciseStats, error) {
	var st models.ExerciseStats
	err := q.db.QueryRow(ctx, `
		SELECT exercise_id, user_id, unit, last_best_set_value, estimated_1rm, total_volume, updated_at
		FROM exercise_stats WHERE exercise_id = $1`, exerciseID,
	).Scan(&st.ExerciseID, &st.UserID, &st.Unit, &st.LastBestSetValue, &st.Estimated1RM, &st.TotalVolume, &st.UpdatedAt)
	if err != nil {
		if notFound(err) {
			return models.ExerciseStats{}, storage.ErrNotFound
		}
		return models.ExerciseStats{}, fmt.Errorf("getting exercise stats: %w", err)
	}
	return st, nil
}
