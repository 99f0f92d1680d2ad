// Package tracker is the progressive-overload engine: exercise catalog,
// session sequencing, the set ledger and the statistics derived from it.
// Every operation is scoped to a user ID.
package tracker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/storage"
)

// DefaultAllocationAttempts bounds the read-max/insert retries for a session index.
const DefaultAllocationAttempts = 5

// Service implements the tracker operations on top of a storage.Store.
type Service struct {
	store    storage.Store
	metrics  *metrics.Manager
	log      *slog.Logger
	now      func() time.Time
	attempts int
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAllocationAttempts sets how often session allocation retries after
// losing an index race. Values below 1 are ignored.
func WithAllocationAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.attempts = n
		}
	}
}

// New creates a Service. A nil metrics manager records into a private registry.
func New(store storage.Store, m *metrics.Manager, log *slog.Logger, opts ...Option) *Service {
	if m == nil {
		m = metrics.NewManager("liftlog", "tracker", prometheus.NewRegistry())
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:    store,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		attempts: DefaultAllocationAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notFound turns storage.ErrNotFound into a NOT_FOUND error for entity.
func notFound(err error, entity string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return err
}
