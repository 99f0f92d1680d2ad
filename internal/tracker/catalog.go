package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// NewExercise is the input of CreateExercise.
type NewExercise struct {
	Name          string      `json:"name"`
	Unit          models.Unit `json:"unit"`
	GroupRef      *string     `json:"group_ref,omitempty"`
	PrimaryMuscle *string     `json:"primary_muscle,omitempty"`
}

// ExercisePatch lists the fields UpdateExercise changes. Nil fields are left
// alone; an empty GroupRef or PrimaryMuscle clears the value.
type ExercisePatch struct {
	Name          *string      `json:"name,omitempty"`
	GroupRef      *string      `json:"group_ref,omitempty"`
	PrimaryMuscle *string      `json:"primary_muscle,omitempty"`
	Unit          *models.Unit `json:"unit,omitempty"`
}

// CreateExercise adds an exercise to the user's catalog. Duplicate names are allowed.
func (s *Service) CreateExercise(ctx context.Context, userID int, in NewExercise) (models.Exercise, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Exercise{}, apperr.Validation("name is required")
	}
	if !in.Unit.Valid() {
		return models.Exercise{}, apperr.Validation("unit must be %s or %s", models.UnitKg, models.UnitLb)
	}

	now := s.now()
	e := models.Exercise{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		GroupRef:      optional(in.GroupRef),
		PrimaryMuscle: optional(in.PrimaryMuscle),
		Unit:          in.Unit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertExercise(ctx, e); err != nil {
		return models.Exercise{}, fmt.Errorf("creating exercise: %w", err)
	}
	s.log.Info("exercise created", "user_id", userID, "exercise_id", e.ID, "name", e.Name, "unit", e.Unit)
	return e, nil
}

// GetExercise returns one exercise of the user.
func (s *Service) GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error) {
	e, err := s.store.GetExercise(ctx, userID, id)
	if err != nil {
		return models.Exercise{}, notFound(err, "exercise")
	}
	return e, nil
}

// ListExercises returns the user's catalog ordered by name.
func (s *Service) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	list, err := s.store.ListExercises(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Exercise{}
	}
	return list, nil
}

// UpdateExercise applies a patch. A unit change rewrites the exercise's set
// history in the same transaction; see ChangeUnit.
func (s *Service) UpdateExercise(ctx context.Context, userID int, id uuid.UUID, p ExercisePatch) (models.Exercise, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return models.Exercise{}, apperr.Validation("name must not be empty")
	}
	if p.Unit != nil && !p.Unit.Valid() {
		return models.Exercise{}, apperr.Validation("unit must be %s or %s", models.UnitKg, models.UnitLb)
	}

	var (
		updated   models.Exercise
		converted bool
		from      models.Unit
	)
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		e, err := q.LockExercise(ctx, userID, id)
		if err != nil {
			return notFound(err, "exercise")
		}
		from = e.Unit

		changed := false
		if p.Name != nil && strings.TrimSpace(*p.Name) != e.Name {
			e.Name = strings.TrimSpace(*p.Name)
			changed = true
		}
		if p.GroupRef != nil && !samePtr(e.GroupRef, optional(p.GroupRef)) {
			e.GroupRef = optional(p.GroupRef)
			changed = true
		}
		if p.PrimaryMuscle != nil && !samePtr(e.PrimaryMuscle, optional(p.PrimaryMuscle)) {
			e.PrimaryMuscle = optional(p.PrimaryMuscle)
			changed = true
		}
		if p.Unit != nil && *p.Unit != e.Unit {
			if err := s.convert(ctx, q, &e, *p.Unit); err != nil {
				return err
			}
			converted = true
			changed = true
		}
		if changed {
			e.UpdatedAt = s.now()
			if err := q.UpdateExercise(ctx, e); err != nil {
				if converted {
					return apperr.ConversionFailed(err)
				}
				return err
			}
		}
		updated = e
		return nil
	})
	if err != nil {
		if converted || apperr.IsCode(err, apperr.CodeConversionFailed) {
			s.metrics.CounterUnitConversions.WithLabelValues("failed").Inc()
			s.log.Error("unit conversion aborted", "user_id", userID, "exercise_id", id, "error", err)
		}
		return models.Exercise{}, err
	}
	if converted {
		s.metrics.CounterUnitConversions.WithLabelValues("ok").Inc()
		s.log.Info("exercise unit converted", "user_id", userID, "exercise_id", id, "from", from, "to", updated.Unit)
	}
	return updated, nil
}

// ChangeUnit switches the exercise to unit, converting every historical set
// and rebuilding the stats in one transaction. It is a no-op when the unit is
// unchanged.
func (s *Service) ChangeUnit(ctx context.Context, userID int, id uuid.UUID, unit models.Unit) (models.Exercise, error) {
	return s.UpdateExercise(ctx, userID, id, ExercisePatch{Unit: &unit})
}

// DeleteExercise removes the exercise together with its sets and stats.
func (s *Service) DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error {
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		if _, err := q.LockExercise(ctx, userID, id); err != nil {
			return notFound(err, "exercise")
		}
		return notFound(q.DeleteExercise(ctx, userID, id), "exercise")
	})
	if err != nil {
		return err
	}
	s.log.Info("exercise deleted", "user_id", userID, "exercise_id", id)
	return nil
}

// optional normalizes blank strings to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
