package tracker

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
)

// NewSet is the input of AddSet. An empty Unit means the exercise's unit and
// a zero LoggedAt means now.
type NewSet struct {
	SessionID  uuid.UUID   `json:"session_id"`
	ExerciseID uuid.UUID   `json:"exercise_id"`
	SetNumber  int         `json:"set_number"`
	Weight     float64     `json:"weight"`
	Reps       int         `json:"reps"`
	Unit       models.Unit `json:"unit,omitempty"`
	LoggedAt   time.Time   `json:"logged_at,omitempty"`
}

func (in NewSet) validate() error {
	switch {
	case in.SessionID == uuid.Nil:
		return apperr.Validation("session_id is required")
	case in.ExerciseID == uuid.Nil:
		return apperr.Validation("exercise_id is required")
	case math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0):
		return apperr.Validation("weight must be a finite number")
	case progress.Round2(in.Weight) <= 0:
		return apperr.Validation("weight must be greater than 0")
	case in.Reps < 1:
		return apperr.Validation("reps must be at least 1")
	case in.SetNumber < 1:
		return apperr.Validation("set_number must be at least 1")
	case in.Unit != "" && !in.Unit.Valid():
		return apperr.Validation("unit must be %s or %s", models.UnitKg, models.UnitLb)
	}
	return nil
}

// AddSet appends a set to a planned session and rebuilds the exercise's stats.
func (s *Service) AddSet(ctx context.Context, userID int, in NewSet) (models.SetEntry, error) {
	if err := in.validate(); err != nil {
		return models.SetEntry{}, err
	}

	var entry models.SetEntry
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		sess, err := q.GetSession(ctx, userID, in.SessionID)
		if err != nil {
			return notFound(err, "session")
		}
		e, err := q.LockExercise(ctx, userID, in.ExerciseID)
		if err != nil {
			return notFound(err, "exercise")
		}
		unit := in.Unit
		if unit == "" {
			unit = e.Unit
		}
		if unit != e.Unit {
			return apperr.Validation("unit %s does not match exercise unit %s", unit, e.Unit)
		}
		if sess.Status != models.SessionPlanned {
			return apperr.Conflict("cannot add sets to %s session %d", sess.Status, sess.Index)
		}

		loggedAt := in.LoggedAt.UTC()
		if in.LoggedAt.IsZero() {
			loggedAt = s.now()
		}
		entry = models.SetEntry{
			ID:         uuid.New(),
			UserID:     userID,
			SessionID:  sess.ID,
			ExerciseID: e.ID,
			SetNumber:  in.SetNumber,
			Weight:     progress.Round2(in.Weight),
			Reps:       in.Reps,
			Unit:       unit,
			LoggedAt:   loggedAt,
		}
		if err := q.InsertSet(ctx, &entry); err != nil {
			return err
		}
		_, err = s.recompute(ctx, q, e)
		return err
	})
	if err != nil {
		return models.SetEntry{}, err
	}
	s.metrics.CounterSetsLogged.Inc()
	s.log.Debug("set logged", "user_id", userID, "session_id", entry.SessionID,
		"exercise_id", entry.ExerciseID, "weight", entry.Weight, "reps", entry.Reps)
	return entry, nil
}

// DeleteSet removes a set from any session and rebuilds the exercise's stats.
func (s *Service) DeleteSet(ctx context.Context, userID int, setID uuid.UUID) error {
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		set, err := q.GetSet(ctx, userID, setID)
		if err != nil {
			return notFound(err, "set")
		}
		e, err := q.LockExercise(ctx, userID, set.ExerciseID)
		if err != nil {
			return notFound(err, "exercise")
		}
		if err := q.DeleteSet(ctx, userID, setID); err != nil {
			return notFound(err, "set")
		}
		_, err = s.recompute(ctx, q, e)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.CounterSetsDeleted.Inc()
	s.log.Debug("set deleted", "user_id", userID, "set_id", setID)
	return nil
}

// ListSetsForSession returns the session's sets ordered by timestamp.
func (s *Service) ListSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.SetEntry, error) {
	if _, err := s.store.GetSession(ctx, userID, sessionID); err != nil {
		return nil, notFound(err, "session")
	}
	sets, err := s.store.ListSetsForSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.SetEntry{}
	}
	return sets, nil
}
