package models

import (
	"time"

	"github.com/google/uuid"
)

// Exercise is a user-owned exercise definition.
type Exercise struct {
	ID            uuid.UUID `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	GroupRef      *string   `json:"group_ref,omitempty"`
	PrimaryMuscle *string   `json:"primary_muscle,omitempty"`
	Unit          Unit      `json:"unit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionStatus is the lifecycle state of a training session.
type SessionStatus string

const (
	SessionPlanned   SessionStatus = "planned"
	SessionCompleted SessionStatus = "completed"
	SessionSkipped   SessionStatus = "skipped"
)

// Session is one numbered training occasion. Index values are gapless per user.
type Session struct {
	ID          uuid.UUID     `json:"id"`
	UserID      int           `json:"user_id"`
	Index       int           `json:"session_index"`
	Status      SessionStatus `json:"status"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// SetEntry is a single weighted set in the ledger.
// Seq is the storage insertion order and breaks LoggedAt ties.
type SetEntry struct {
	ID         uuid.UUID `json:"id"`
	Seq        int64     `json:"-"`
	UserID     int       `json:"user_id"`
	SessionID  uuid.UUID `json:"session_id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	SetNumber  int       `json:"set_number"`
	Weight     float64   `json:"weight"`
	Reps       int       `json:"reps"`
	Unit       Unit      `json:"unit"`
	LoggedAt   time.Time `json:"logged_at"`
}

// Volume returns weight × reps.
func (s SetEntry) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// ExerciseStats is the materialized per-exercise aggregate. Nil metrics mean
// no qualifying sets exist.
type ExerciseStats struct {
	ExerciseID       uuid.UUID `json:"exercise_id"`
	UserID           int       `json:"user_id"`
	Unit             Unit      `json:"unit"`
	LastBestSetValue *float64  `json:"last_best_set_value"`
	Estimated1RM     *float64  `json:"estimated_1rm"`
	TotalVolume      *float64  `json:"total_volume"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Empty reports whether the stats carry no data.
func (s ExerciseStats) Empty() bool {
	return s.LastBestSetValue == nil && s.Estimated1RM == nil && s.TotalVolume == nil
}

// ProgressionPoint is one x-axis entry of an exercise's progression chart.
// Sessions without qualifying data keep their slot with nil values.
type ProgressionPoint struct {
	SessionIndex  int           `json:"session_index"`
	SessionID     uuid.UUID     `json:"session_id"`
	Status        SessionStatus `json:"status"`
	BestSetWeight *float64      `json:"best_set_weight"`
	BestSetReps   *int          `json:"best_set_reps"`
	Estimated1RM  *float64      `json:"estimated_1rm"`
	Skipped       bool          `json:"skipped"`
}
