package progress

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftlog/internal/models"
)

// TestAggregateRandomLedgers checks Aggregate against a direct recomputation
// over randomly generated ledgers.
func TestAggregateRandomLedgers(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 200; round++ {
		sess := uuid.New()
		n := faker.IntRange(1, 25)
		sets := make([]models.SetEntry, 0, n)
		for i := 0; i < n; i++ {
			weight := Round2(faker.Float64Range(0.5, 300))
			reps := faker.IntRange(1, 20)
			sets = append(sets, set(sess, int64(i+1), weight, reps, time.Duration(i)*time.Minute))
		}

		var volume, maxEst float64
		for _, s := range sets {
			volume += s.Weight * float64(s.Reps)
			if e := Estimate1RM(s.Weight, s.Reps); e > maxEst {
				maxEst = e
			}
		}

		sum := Aggregate(sets)
		require.NotNil(t, sum.TotalVolume)
		require.NotNil(t, sum.Estimated1RM)
		require.NotNil(t, sum.BestSetWeight)
		require.NotNil(t, sum.BestSetReps)
		assert.InDelta(t, volume, *sum.TotalVolume, 1e-6, "round %d", round)
		assert.InDelta(t, maxEst, *sum.Estimated1RM, 1e-9, "round %d", round)
		assert.InDelta(t, *sum.Estimated1RM, Estimate1RM(*sum.BestSetWeight, *sum.BestSetReps), 1e-9)
	}
}
