package tracker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/models"
)

func TestStatsCountOnlyCompletedSessions(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Squat", models.UnitKg)

	st, err := svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	assert.True(t, st.Empty(), "no data yields nulls, not zero")

	sess := mustStart(t, svc)
	mustSet(t, svc, sess, ex, 1, 100, 5)
	mustSet(t, svc, sess, ex, 2, 90, 8)

	st, err = svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	assert.True(t, st.Empty(), "planned session must not contribute")

	mustComplete(t, svc, sess)
	st, err = svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	require.False(t, st.Empty())
	assert.InDelta(t, 1220.0, *st.TotalVolume, 1e-9)
	assert.Equal(t, 100.0, *st.LastBestSetValue)
	assert.InDelta(t, 116.67, *st.Estimated1RM, 0.005)
	assert.Equal(t, models.UnitKg, st.Unit)

	// a new open session with a heavier set leaves the stats alone
	next := mustStart(t, svc)
	mustSet(t, svc, next, ex, 1, 140, 1)
	st, err = svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *st.LastBestSetValue)
	assert.InDelta(t, 1220.0, *st.TotalVolume, 1e-9)
}

func TestBestSetTieGoesToEarliest(t *testing.T) {
	tests := []struct {
		name  string
		first [2]float64
		then  [2]float64
		want  float64
	}{
		{name: "80x5 first", first: [2]float64{80, 5}, then: [2]float64{70, 10}, want: 80},
		{name: "70x10 first", first: [2]float64{70, 10}, then: [2]float64{80, 5}, want: 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupService(t)
			ex := mustExercise(t, svc, "Bench Press", models.UnitKg)
			sess := mustStart(t, svc)
			mustSet(t, svc, sess, ex, 1, tt.first[0], int(tt.first[1]))
			mustSet(t, svc, sess, ex, 2, tt.then[0], int(tt.then[1]))
			mustComplete(t, svc, sess)

			st, err := svc.GetExerciseStats(context.Background(), user, ex.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *st.LastBestSetValue)
			assert.InDelta(t, 93.33, *st.Estimated1RM, 0.005)
		})
	}
}

func TestProgressionSeriesKeepsPlaceholders(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Bench Press", models.UnitKg)

	s1 := mustStart(t, svc)
	mustSet(t, svc, s1, ex, 1, 80, 5)
	// 70×10 estimates the same 93.33; the earlier 80×5 keeps the slot
	mustSet(t, svc, s1, ex, 2, 70, 10)
	mustComplete(t, svc, s1)
	_, err := svc.SkipNext(ctx, user)
	require.NoError(t, err)
	mustStart(t, svc)

	points, err := svc.GetProgressionSeries(ctx, user, ex.ID)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 1, points[0].SessionIndex)
	assert.False(t, points[0].Skipped)
	require.NotNil(t, points[0].BestSetWeight)
	assert.Equal(t, 80.0, *points[0].BestSetWeight)
	assert.Equal(t, 5, *points[0].BestSetReps)
	assert.InDelta(t, 93.33, *points[0].Estimated1RM, 0.005)

	assert.Equal(t, 2, points[1].SessionIndex)
	assert.True(t, points[1].Skipped)
	assert.Nil(t, points[1].Estimated1RM)
	assert.Nil(t, points[1].BestSetWeight)

	assert.Equal(t, 3, points[2].SessionIndex)
	assert.False(t, points[2].Skipped)
	assert.Nil(t, points[2].Estimated1RM)

	_, err = svc.GetProgressionSeries(ctx, user, uuid.New())
	assert.Equal(t, apperr.CodeNotFound, apperr.GetCode(err))
}

func TestRecomputeStatsIsIdempotent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ex := mustExercise(t, svc, "Row", models.UnitKg)
	sess := mustStart(t, svc)
	mustSet(t, svc, sess, ex, 1, 70, 10)
	mustComplete(t, svc, sess)

	before, err := svc.GetExerciseStats(ctx, user, ex.ID)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		after, err := svc.RecomputeStats(ctx, user, ex.ID)
		require.NoError(t, err)
		assert.Equal(t, *before.TotalVolume, *after.TotalVolume)
		assert.Equal(t, *before.Estimated1RM, *after.Estimated1RM)
	}

	_, err = svc.RecomputeStats(ctx, user, uuid.New())
	assert.Equal(t, apperr.CodeNotFound, apperr.GetCode(err))
}
