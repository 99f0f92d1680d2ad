package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// setupStore migrates and opens a fresh database in a temp dir.
func setupStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, RunMigrations(path))
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

var base = time.Date(2026, 5, 4, 17, 30, 0, 0, time.UTC)

func newExercise(t *testing.T, s *Store, name string) models.Exercise {
	t.Helper()
	e := models.Exercise{
		ID: uuid.New(), UserID: 1, Name: name, Unit: models.UnitKg,
		CreatedAt: base, UpdatedAt: base,
	}
	require.NoError(t, s.InsertExercise(context.Background(), e))
	return e
}

func newSession(t *testing.T, s *Store, index int, status models.SessionStatus) models.Session {
	t.Helper()
	sess := models.Session{ID: uuid.New(), UserID: 1, Index: index, Status: status, CreatedAt: base}
	require.NoError(t, s.InsertSession(context.Background(), sess))
	return sess
}

func newSet(t *testing.T, s *Store, sess models.Session, ex models.Exercise, weight float64, reps int, at time.Time) models.SetEntry {
	t.Helper()
	e := models.SetEntry{
		ID: uuid.New(), UserID: 1, SessionID: sess.ID, ExerciseID: ex.ID,
		SetNumber: 1, Weight: weight, Reps: reps, Unit: ex.Unit, LoggedAt: at,
	}
	require.NoError(t, s.InsertSet(context.Background(), &e))
	return e
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}

func TestExerciseRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	group := "push"
	e := newExercise(t, s, "Bench Press")
	e.GroupRef = &group
	e.Unit = models.UnitLb
	e.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdateExercise(ctx, e))

	got, err := s.GetExercise(ctx, 1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", got.Name)
	require.NotNil(t, got.GroupRef)
	assert.Equal(t, "push", *got.GroupRef)
	assert.Nil(t, got.PrimaryMuscle)
	assert.Equal(t, models.UnitLb, got.Unit)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	_, err = s.GetExercise(ctx, 2, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	newExercise(t, s, "arnold press")
	list, err := s.ListExercises(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "arnold press", list[0].Name)
}

func TestSessionConstraints(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	top, err := s.MaxSessionIndex(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, top)

	first := newSession(t, s, 1, models.SessionPlanned)

	t.Run("index is unique per user", func(t *testing.T) {
		err := s.InsertSession(ctx, models.Session{ID: uuid.New(), UserID: 1, Index: 1, Status: models.SessionSkipped, CreatedAt: base})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("one planned session per user", func(t *testing.T) {
		err := s.InsertSession(ctx, models.Session{ID: uuid.New(), UserID: 1, Index: 2, Status: models.SessionPlanned, CreatedAt: base})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})

	t.Run("conditional status transition", func(t *testing.T) {
		done := base.Add(time.Hour)
		require.NoError(t, s.UpdateSessionStatus(ctx, 1, first.ID, models.SessionPlanned, models.SessionCompleted, &done))
		err := s.UpdateSessionStatus(ctx, 1, first.ID, models.SessionPlanned, models.SessionCompleted, &done)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		got, err := s.GetSession(ctx, 1, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(done))
	})

	newSession(t, s, 2, models.SessionSkipped)
	planned := newSession(t, s, 3, models.SessionPlanned)

	got, err := s.GetPlannedSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, planned.ID, got.ID)

	top, err = s.MaxSessionIndex(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, top)

	all, err := s.ListSessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, sess := range all {
		assert.Equal(t, i+1, sess.Index)
	}
}

func TestFindSessionByScheduledAt(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	at := base.Add(-48 * time.Hour)
	sess := models.Session{ID: uuid.New(), UserID: 1, Index: 1, Status: models.SessionCompleted, ScheduledAt: &at, CreatedAt: base}
	require.NoError(t, s.InsertSession(ctx, sess))

	got, err := s.FindSessionByScheduledAt(ctx, 1, at)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = s.FindSessionByScheduledAt(ctx, 1, at.Add(time.Second))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetLedgerQueries(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	bench := newExercise(t, s, "Bench Press")
	squat := newExercise(t, s, "Squat")
	done := newSession(t, s, 1, models.SessionCompleted)
	open := newSession(t, s, 2, models.SessionPlanned)

	a := newSet(t, s, done, bench, 80, 5, base.Add(2*time.Minute))
	b := newSet(t, s, done, bench, 70, 10, base.Add(time.Minute))
	c := newSet(t, s, done, squat, 100, 5, base.Add(time.Minute))
	newSet(t, s, open, bench, 90, 3, base.Add(time.Hour))
	assert.Less(t, a.Seq, b.Seq)

	sets, err := s.ListSetsForSession(ctx, 1, done.ID)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	// ordered by logged_at, then insertion
	assert.Equal(t, b.ID, sets[0].ID)
	assert.Equal(t, c.ID, sets[1].ID)
	assert.Equal(t, a.ID, sets[2].ID)

	n, err := s.CountSetsForSession(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := s.ListExerciseIDsForSession(ctx, done.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{bench.ID, squat.ID}, ids)

	all, err := s.ListSetsForExercise(ctx, bench.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := s.ListCompletedSetsForExercise(ctx, bench.ID)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	require.NoError(t, s.UpdateSetWeight(ctx, a.ID, 176.37, models.UnitLb))
	got, err := s.GetSet(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 176.37, got.Weight)
	assert.Equal(t, models.UnitLb, got.Unit)

	require.NoError(t, s.DeleteSet(ctx, 1, a.ID))
	assert.ErrorIs(t, s.DeleteSet(ctx, 1, a.ID), storage.ErrNotFound)
	_, err = s.GetSet(ctx, 1, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStatsUpsertAndCascade(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ex := newExercise(t, s, "Deadlift")
	sess := newSession(t, s, 1, models.SessionCompleted)
	newSet(t, s, sess, ex, 140, 3, base)

	e1rm, vol, best := 154.0, 420.0, 140.0
	require.NoError(t, s.UpsertStats(ctx, models.ExerciseStats{
		ExerciseID: ex.ID, UserID: 1, Unit: models.UnitKg,
		LastBestSetValue: &best, Estimated1RM: &e1rm, TotalVolume: &vol, UpdatedAt: base,
	}))
	got, err := s.GetStats(ctx, ex.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TotalVolume)
	assert.Equal(t, 420.0, *got.TotalVolume)

	require.NoError(t, s.UpsertStats(ctx, models.ExerciseStats{ExerciseID: ex.ID, UserID: 1, Unit: models.UnitKg, UpdatedAt: base}))
	got, err = s.GetStats(ctx, ex.ID)
	require.NoError(t, err)
	assert.True(t, got.Empty())

	require.NoError(t, s.DeleteExercise(ctx, 1, ex.ID))
	_, err = s.GetStats(ctx, ex.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	sets, err := s.ListSetsForExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.ErrorIs(t, s.DeleteExercise(ctx, 1, ex.ID), storage.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	ex := newExercise(t, s, "Row")

	err := s.InTx(ctx, func(q storage.Queries) error {
		ex.Name = "Pendlay Row"
		if err := q.UpdateExercise(ctx, ex); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := s.GetExercise(ctx, 1, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "Row", got.Name)
}

func TestGetOrCreateUser(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.GetOrCreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	assert.NotEqual(t, 1, id)

	again, err := s.GetOrCreateUser(ctx, "alice@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestAbandonSessionClearsScheduleAndSets(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	ex := newExercise(t, s, "Deadlift")
	at := base.Add(time.Hour)
	sess := models.Session{ID: uuid.New(), UserID: 1, Index: 1, Status: models.SessionPlanned, ScheduledAt: &at, CreatedAt: base}
	require.NoError(t, s.InsertSession(ctx, sess))
	newSet(t, s, sess, ex, 140, 3, base)
	newSet(t, s, sess, ex, 150, 2, base.Add(time.Minute))

	n, err := s.DeleteSetsForSession(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, s.AbandonSession(ctx, 1, sess.ID))

	got, err := s.GetSession(ctx, 1, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionSkipped, got.Status)
	assert.Nil(t, got.ScheduledAt)
	_, err = s.FindSessionByScheduledAt(ctx, 1, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.AbandonSession(ctx, 1, sess.ID), storage.ErrNotFound, "only planned sessions")
}
