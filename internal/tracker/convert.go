package tracker

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
)

// convert rewrites every set of e into unit and rebuilds its stats. It runs
// inside the caller's transaction and sets e.Unit on success. A set too light
// to survive two-decimal rounding is a VALIDATION error; any other failure is
// CONVERSION_FAILED. Either way the caller rolls everything back.
func (s *Service) convert(ctx context.Context, q storage.Queries, e *models.Exercise, unit models.Unit) error {
	sets, err := q.ListSetsForExercise(ctx, e.ID)
	if err != nil {
		return apperr.ConversionFailed(err)
	}
	for _, set := range sets {
		if set.Unit == unit {
			continue
		}
		w, err := progress.ConvertWeight(set.Weight, set.Unit, unit)
		if err != nil {
			return apperr.ConversionFailed(fmt.Errorf("set %s: %w", set.ID, err))
		}
		if w <= 0 {
			return apperr.Validation("set %s (%v %s) rounds to zero in %s; delete or correct it before converting",
				set.ID, set.Weight, set.Unit, unit)
		}
		if err := q.UpdateSetWeight(ctx, set.ID, w, unit); err != nil {
			return apperr.ConversionFailed(fmt.Errorf("set %s: %w", set.ID, err))
		}
	}
	e.Unit = unit
	if _, err := s.recompute(ctx, q, *e); err != nil {
		return apperr.ConversionFailed(err)
	}
	s.log.Debug("sets converted", "exercise_id", e.ID, "count", len(sets), "unit", unit)
	return nil
}
