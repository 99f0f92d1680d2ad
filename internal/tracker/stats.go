package tracker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
)

// recompute rebuilds the stats row of e from its sets in completed sessions.
func (s *Service) recompute(ctx context.Context, q storage.Queries, e models.Exercise) (models.ExerciseStats, error) {
	sets, err := q.ListCompletedSetsForExercise(ctx, e.ID)
	if err != nil {
		return models.ExerciseStats{}, err
	}
	sum := progress.Aggregate(sets)
	st := models.ExerciseStats{
		ExerciseID:       e.ID,
		UserID:           e.UserID,
		Unit:             e.Unit,
		LastBestSetValue: sum.BestSetWeight,
		Estimated1RM:     sum.Estimated1RM,
		TotalVolume:      sum.TotalVolume,
		UpdatedAt:        s.now(),
	}
	if err := q.UpsertStats(ctx, st); err != nil {
		return models.ExerciseStats{}, err
	}
	s.metrics.CounterStatsRecomputed.Inc()
	return st, nil
}

// GetExerciseStats returns the materialized stats of an exercise. An exercise
// without qualifying sets yields nil metrics; a missing exercise is NOT_FOUND.
func (s *Service) GetExerciseStats(ctx context.Context, userID int, exerciseID uuid.UUID) (models.ExerciseStats, error) {
	e, err := s.store.GetExercise(ctx, userID, exerciseID)
	if err != nil {
		return models.ExerciseStats{}, notFound(err, "exercise")
	}
	st, err := s.store.GetStats(ctx, exerciseID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.ExerciseStats{ExerciseID: e.ID, UserID: e.UserID, Unit: e.Unit}, nil
	}
	if err != nil {
		return models.ExerciseStats{}, err
	}
	return st, nil
}

// RecomputeStats rebuilds the stats of one exercise from the ledger.
func (s *Service) RecomputeStats(ctx context.Context, userID int, exerciseID uuid.UUID) (models.ExerciseStats, error) {
	var st models.ExerciseStats
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		e, err := q.LockExercise(ctx, userID, exerciseID)
		if err != nil {
			return notFound(err, "exercise")
		}
		st, err = s.recompute(ctx, q, e)
		return err
	})
	return st, err
}

// GetProgressionSeries returns one point per session the user has ever had,
// in index order. Skipped and planned sessions are placeholders without values.
func (s *Service) GetProgressionSeries(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.ProgressionPoint, error) {
	var points []models.ProgressionPoint
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetExercise(ctx, userID, exerciseID); err != nil {
			return notFound(err, "exercise")
		}
		sessions, err := q.ListSessions(ctx, userID)
		if err != nil {
			return err
		}
		sets, err := q.ListSetsForExercise(ctx, exerciseID)
		if err != nil {
			return err
		}
		points = progress.Series(sessions, sets)
		return nil
	})
	return points, err
}

// ResolveUser maps a login to a user ID, creating the user on first sight.
func (s *Service) ResolveUser(ctx context.Context, login, displayName string) (int, error) {
	return s.store.GetOrCreateUser(ctx, login, displayName)
}
