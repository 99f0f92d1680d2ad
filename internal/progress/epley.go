// Package progress derives strength metrics from raw set entries. Everything
// here is pure; callers load the ledger rows and persist the results.
package progress

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

// tolerance is the window within which two 1RM estimates count as equal.
const tolerance = 1e-9

// Estimate1RM applies the Epley relation weight × (1 + reps/30).
// The product is formed as weight × (30+reps) / 30 so sets that are equal on
// paper, such as 80×5 and 70×10, produce bit-identical estimates.
func Estimate1RM(weight float64, reps int) float64 {
	return weight * float64(30+reps) / 30
}

// better reports whether a beats b: higher estimate first, then the earlier
// LoggedAt, then the lower insertion sequence.
func better(a, b models.SetEntry) bool {
	ea, eb := Estimate1RM(a.Weight, a.Reps), Estimate1RM(b.Weight, b.Reps)
	if math.Abs(ea-eb) > tolerance {
		return ea > eb
	}
	if !a.LoggedAt.Equal(b.LoggedAt) {
		return a.LoggedAt.Before(b.LoggedAt)
	}
	return a.Seq < b.Seq
}

// BestSet returns the set with the highest estimated 1RM.
// The boolean is false when sets is empty.
func BestSet(sets []models.SetEntry) (models.SetEntry, bool) {
	if len(sets) == 0 {
		return models.SetEntry{}, false
	}
	best := sets[0]
	for _, s := range sets[1:] {
		if better(s, best) {
			best = s
		}
	}
	return best, true
}

// Summary holds the aggregate metrics for one exercise.
// All fields are nil when no qualifying sets exist.
type Summary struct {
	BestSetWeight *float64
	BestSetReps   *int
	Estimated1RM  *float64
	TotalVolume   *float64
}

// Aggregate folds the given sets into a Summary. Callers pass only sets from
// completed sessions.
func Aggregate(sets []models.SetEntry) Summary {
	best, ok := BestSet(sets)
	if !ok {
		return Summary{}
	}
	var volume float64
	for _, s := range sets {
		volume += s.Volume()
	}
	weight := best.Weight
	reps := best.Reps
	e1rm := Estimate1RM(best.Weight, best.Reps)
	return Summary{
		BestSetWeight: &weight,
		BestSetReps:   &reps,
		Estimated1RM:  &e1rm,
		TotalVolume:   &volume,
	}
}

// Series builds one progression point per session in index order. Only
// completed sessions carry values; skipped and planned sessions keep their
// slot on the axis with nil values.
func Series(sessions []models.Session, sets []models.SetEntry) []models.ProgressionPoint {
	bySession := make(map[uuid.UUID][]models.SetEntry)
	for _, s := range sets {
		bySession[s.SessionID] = append(bySession[s.SessionID], s)
	}

	ordered := make([]models.Session, len(sessions))
	copy(ordered, sessions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	points := make([]models.ProgressionPoint, 0, len(ordered))
	for _, sess := range ordered {
		p := models.ProgressionPoint{
			SessionIndex: sess.Index,
			SessionID:    sess.ID,
			Status:       sess.Status,
			Skipped:      sess.Status == models.SessionSkipped,
		}
		if sess.Status == models.SessionCompleted {
			sum := Aggregate(bySession[sess.ID])
			p.BestSetWeight = sum.BestSetWeight
			p.BestSetReps = sum.BestSetReps
			p.Estimated1RM = sum.Estimated1RM
		}
		points = append(points, p)
	}
	return points
}
