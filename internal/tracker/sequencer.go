package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// StartOrResumeSession returns the user's planned session, or allocates the
// next index as a new planned session when there is none.
func (s *Service) StartOrResumeSession(ctx context.Context, userID int) (models.Session, error) {
	return s.allocate(ctx, userID, models.SessionPlanned, nil, true)
}

// StartSessionAt allocates a planned session carrying a scheduled timestamp.
// Unlike StartOrResumeSession it fails with STATE_CONFLICT when a planned
// session is already open.
func (s *Service) StartSessionAt(ctx context.Context, userID int, at time.Time) (models.Session, error) {
	at = at.UTC()
	return s.allocate(ctx, userID, models.SessionPlanned, &at, false)
}

// SkipNext consumes the next index as a skipped session. Skipped sessions
// never receive sets.
func (s *Service) SkipNext(ctx context.Context, userID int) (models.Session, error) {
	return s.allocate(ctx, userID, models.SessionSkipped, nil, false)
}

// allocate inserts a session at max(index)+1. The storage layer rejects a
// taken index, in which case the read and insert are retried.
func (s *Service) allocate(ctx context.Context, userID int, status models.SessionStatus, scheduledAt *time.Time, resume bool) (models.Session, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if status == models.SessionPlanned {
			open, err := s.store.GetPlannedSession(ctx, userID)
			switch {
			case err == nil && resume:
				return open, nil
			case err == nil:
				return models.Session{}, apperr.Conflict("session %d is still planned", open.Index)
			case !errors.Is(err, storage.ErrNotFound):
				return models.Session{}, err
			}
		}

		last, err := s.store.MaxSessionIndex(ctx, userID)
		if err != nil {
			return models.Session{}, err
		}
		sess := models.Session{
			ID:          uuid.New(),
			UserID:      userID,
			Index:       last + 1,
			Status:      status,
			ScheduledAt: scheduledAt,
			CreatedAt:   s.now(),
		}
		err = s.store.InsertSession(ctx, sess)
		if err == nil {
			s.metrics.CounterSessionsAllocated.WithLabelValues(string(status)).Inc()
			s.log.Info("session allocated", "user_id", userID, "index", sess.Index, "status", status)
			return sess, nil
		}
		if !errors.Is(err, storage.ErrDuplicate) {
			return models.Session{}, err
		}
		s.metrics.CounterIndexConflicts.Inc()
		s.log.Warn("session index taken, retrying", "user_id", userID, "index", sess.Index, "attempt", attempt)
	}
	return models.Session{}, apperr.Conflict("could not allocate a session index after %d attempts", s.attempts)
}

// CompleteSession closes a planned session that holds at least one set and
// rebuilds the stats of every exercise trained in it.
func (s *Service) CompleteSession(ctx context.Context, userID int, sessionID uuid.UUID) (models.Session, error) {
	var done models.Session
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		sess, err := q.GetSession(ctx, userID, sessionID)
		if err != nil {
			return notFound(err, "session")
		}
		if sess.Status != models.SessionPlanned {
			return apperr.Conflict("session %d is %s", sess.Index, sess.Status)
		}
		n, err := q.CountSetsForSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.Conflict("session %d has no sets", sess.Index)
		}

		now := s.now()
		err = q.UpdateSessionStatus(ctx, userID, sessionID, models.SessionPlanned, models.SessionCompleted, &now)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Conflict("session %d is no longer planned", sess.Index)
		}
		if err != nil {
			return err
		}
		sess.Status = models.SessionCompleted
		sess.CompletedAt = &now

		ids, err := q.ListExerciseIDsForSession(ctx, sessionID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			e, err := q.LockExercise(ctx, userID, id)
			if err != nil {
				return fmt.Errorf("locking exercise %s: %w", id, err)
			}
			if _, err := s.recompute(ctx, q, e); err != nil {
				return err
			}
		}
		done = sess
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.log.Info("session completed", "user_id", userID, "index", done.Index)
	return done, nil
}

// AbandonSession turns a planned session into a skipped one and drops its
// sets. The index stays consumed and the scheduled time is cleared so an
// import can place that session again.
func (s *Service) AbandonSession(ctx context.Context, userID int, sessionID uuid.UUID) (models.Session, error) {
	var (
		done    models.Session
		dropped int
	)
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		sess, err := q.GetSession(ctx, userID, sessionID)
		if err != nil {
			return notFound(err, "session")
		}
		if sess.Status != models.SessionPlanned {
			return apperr.Conflict("session %d is %s", sess.Index, sess.Status)
		}
		dropped, err = q.DeleteSetsForSession(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		err = q.AbandonSession(ctx, userID, sessionID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Conflict("session %d is no longer planned", sess.Index)
		}
		if err != nil {
			return err
		}
		sess.Status = models.SessionSkipped
		sess.ScheduledAt = nil
		done = sess
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	s.log.Info("session abandoned", "user_id", userID, "index", done.Index, "sets_dropped", dropped)
	return done, nil
}

// GetSession returns one session of the user.
func (s *Service) GetSession(ctx context.Context, userID int, id uuid.UUID) (models.Session, error) {
	sess, err := s.store.GetSession(ctx, userID, id)
	if err != nil {
		return models.Session{}, notFound(err, "session")
	}
	return sess, nil
}

// ListSessions returns the user's sessions in index order.
func (s *Service) ListSessions(ctx context.Context, userID int) ([]models.Session, error) {
	list, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Session{}
	}
	return list, nil
}

// HasSessionAt reports whether a session with this scheduled timestamp exists.
func (s *Service) HasSessionAt(ctx context.Context, userID int, at time.Time) (bool, error) {
	_, err := s.store.FindSessionByScheduledAt(ctx, userID, at.UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
