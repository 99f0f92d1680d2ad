// Package storage defines the persistence contract of the tracker. The
// postgres and sqlite subpackages implement it with identical semantics.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

var (
	// ErrNotFound is returned when a lookup, update or delete matches no row
	// owned by the given user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

// Queries is the set of row-level operations available both on the store
// and inside a transaction.
type Queries interface {
	InsertExercise(ctx context.Context, e models.Exercise) error
	GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error)
	// LockExercise reads the exercise and holds a write lock on it until the
	// surrounding transaction ends.
	LockExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	UpdateExercise(ctx context.Context, e models.Exercise) error
	// DeleteExercise removes the exercise together with its sets and stats.
	DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error

	// MaxSessionIndex returns 0 when the user has no sessions.
	MaxSessionIndex(ctx context.Context, userID int) (int, error)
	InsertSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, userID int, id uuid.UUID) (models.Session, error)
	GetPlannedSession(ctx context.Context, userID int) (models.Session, error)
	FindSessionByScheduledAt(ctx context.Context, userID int, at time.Time) (models.Session, error)
	// ListSessions returns every session of the user in index order.
	ListSessions(ctx context.Context, userID int) ([]models.Session, error)
	// UpdateSessionStatus moves a session from one status to another and
	// returns ErrNotFound when the session is not currently in from.
	UpdateSessionStatus(ctx context.Context, userID int, id uuid.UUID, from, to models.SessionStatus, completedAt *time.Time) error
	// AbandonSession marks a planned session skipped and clears its
	// scheduled time. It returns ErrNotFound when the session is not planned.
	AbandonSession(ctx context.Context, userID int, id uuid.UUID) error

	// InsertSet stores the entry and fills in its Seq.
	InsertSet(ctx context.Context, s *models.SetEntry) error
	GetSet(ctx context.Context, userID int, id uuid.UUID) (models.SetEntry, error)
	DeleteSet(ctx context.Context, userID int, id uuid.UUID) error
	// DeleteSetsForSession returns the number of sets removed.
	DeleteSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) (int, error)
	// ListSetsForSession orders by logged_at, then insertion order.
	ListSetsForSession(ctx context.Context, userID int, sessionID uuid.UUID) ([]models.SetEntry, error)
	CountSetsForSession(ctx context.Context, sessionID uuid.UUID) (int, error)
	ListExerciseIDsForSession(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
	ListSetsForExercise(ctx context.Context, exerciseID uuid.UUID) ([]models.SetEntry, error)
	// ListCompletedSetsForExercise returns only sets whose session is completed.
	ListCompletedSetsForExercise(ctx context.Context, exerciseID uuid.UUID) ([]models.SetEntry, error)
	UpdateSetWeight(ctx context.Context, id uuid.UUID, weight float64, unit models.Unit) error

	UpsertStats(ctx context.Context, st models.ExerciseStats) error
	GetStats(ctx context.Context, exerciseID uuid.UUID) (models.ExerciseStats, error)
}

// Store is a Queries bound to a database plus transaction and user management.
type Store interface {
	Queries
	// InTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error
	// GetOrCreateUser finds or creates a user by login name and returns its ID.
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	Close()
}
