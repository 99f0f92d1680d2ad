package tracker

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
)

func TestAddSetValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Overhead Press", models.UnitKg)
	sess := mustStart(t, svc)

	valid := NewSet{SessionID: sess.ID, ExerciseID: ex.ID, SetNumber: 1, Weight: 40, Reps: 5}

	tests := []struct {
		name   string
		modify func(in *NewSet)
		code   apperr.Code
	}{
		{name: "zero weight", modify: func(in *NewSet) { in.Weight = 0 }, code: apperr.CodeValidation},
		{name: "negative weight", modify: func(in *NewSet) { in.Weight = -20 }, code: apperr.CodeValidation},
		{name: "weight rounds to zero", modify: func(in *NewSet) { in.Weight = 0.001 }, code: apperr.CodeValidation},
		{name: "NaN weight", modify: func(in *NewSet) { in.Weight = math.NaN() }, code: apperr.CodeValidation},
		{name: "infinite weight", modify: func(in *NewSet) { in.Weight = math.Inf(1) }, code: apperr.CodeValidation},
		{name: "zero reps", modify: func(in *NewSet) { in.Reps = 0 }, code: apperr.CodeValidation},
		{name: "zero set number", modify: func(in *NewSet) { in.SetNumber = 0 }, code: apperr.CodeValidation},
		{name: "missing session", modify: func(in *NewSet) { in.SessionID = uuid.Nil }, code: apperr.CodeValidation},
		{name: "unknown unit", modify: func(in *NewSet) { in.Unit = "mass-stone" }, code: apperr.CodeValidation},
		{name: "unit differs from exercise", modify: func(in *NewSet) { in.Unit = models.UnitLb }, code: apperr.CodeValidation},
		{name: "unknown session", modify: func(in *NewSet) { in.SessionID = uuid.New() }, code: apperr.CodeNotFound},
		{name: "unknown exercise", modify: func(in *NewSet) { in.ExerciseID = uuid.New() }, code: apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := svc.AddSet(ctx, user, in)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.GetCode(err))
		})
	}

	sets, err := svc.ListSetsForSession(ctx, user, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, sets, "rejected sets must not be written")
}

func TestAddSetRoundsAndDefaultsUnit(t *testing.T) {
	svc, m := setupService(t)
	ex := mustExercise(t, svc, "Curl", models.UnitLb)
	sess := mustStart(t, svc)

	set := mustSet(t, svc, sess, ex, 1, 27.499, 12)
	assert.Equal(t, 27.5, set.Weight)
	assert.Equal(t, models.UnitLb, set.Unit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSetsLogged))
}

func TestAddSetRejectsClosedSessions(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Bench Press", models.UnitKg)

	done := mustStart(t, svc)
	mustSet(t, svc, done, ex, 1, 80, 5)
	mustComplete(t, svc, done)

	skipped, err := svc.SkipNext(ctx, user)
	require.NoError(t, err)

	for _, sess := range []models.Session{done, skipped} {
		_, err := svc.AddSet(ctx, user, NewSet{SessionID: sess.ID, ExerciseID: ex.ID, SetNumber: 2, Weight: 80, Reps: 5})
		assert.Equal(t, apperr.CodeConflict, apperr.GetCode(err), "status %s", sess.Status)
	}
}

func TestListSetsOrderedByTimestamp(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	bench := mustExercise(t, svc, "Bench Press", models.UnitKg)
	row := mustExercise(t, svc, "Row", models.UnitKg)
	sess := mustStart(t, svc)

	a := mustSet(t, svc, sess, bench, 1, 80, 5)
	b := mustSet(t, svc, sess, row, 1, 70, 8)
	c := mustSet(t, svc, sess, bench, 2, 80, 5)

	sets, err := svc.ListSetsForSession(ctx, user, sess.ID)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, []uuid.UUID{sets[0].ID, sets[1].ID, sets[2].ID})

	_, err = svc.ListSetsForSession(ctx, user, uuid.New())
	assert.Equal(t, apperr.CodeNotFound, apperr.GetCode(err))
}

func TestDeleteSetRecomputesStats(t *testing.T) {
	svc, m := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Deadlift", models.UnitKg)

	sess := mustStart(t, svc)
	heavy := mustSet(t, svc, sess, ex, 1, 180, 3)
	mustSet(t, svc, sess, ex, 2, 150, 5)
	mustComplete(t, svc, sess)

	st, err := svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	require.NotNil(t, st.LastBestSetValue)
	assert.Equal(t, 180.0, *st.LastBestSetValue)

	// deleting from a completed session is allowed
	require.NoError(t, svc.DeleteSet(ctx, user, heavy.ID))
	st, err = svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, *st.LastBestSetValue)
	assert.InDelta(t, 750.0, *st.TotalVolume, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSetsDeleted))

	err = svc.DeleteSet(ctx, user, heavy.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.GetCode(err))
}
