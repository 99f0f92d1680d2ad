package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/text/cases"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/tracker"
)

// Tracker is the subset of the tracker service the importer replays through.
type Tracker interface {
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, userID int, in tracker.NewExercise) (models.Exercise, error)
	ListSessions(ctx context.Context, userID int) ([]models.Session, error)
	HasSessionAt(ctx context.Context, userID int, at time.Time) (bool, error)
	StartSessionAt(ctx context.Context, userID int, at time.Time) (models.Session, error)
	AddSet(ctx context.Context, userID int, in tracker.NewSet) (models.SetEntry, error)
	CompleteSession(ctx context.Context, userID int, sessionID uuid.UUID) (models.Session, error)
	AbandonSession(ctx context.Context, userID int, sessionID uuid.UUID) (models.Session, error)
}

// Options controls which parsed sets are imported.
type Options struct {
	IncludeWarmups bool
	DryRun         bool
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	tr  Tracker
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(tr Tracker, log *slog.Logger) *Provider {
	return &Provider{tr: tr, log: log}
}

// pendingSet is a parsed set that passed filtering, in tracker terms.
type pendingSet struct {
	exercise string
	group    string
	number   int
	weightKg float64
	reps     int
}

// Ingest parses a CSV export and replays every session, oldest first, as
// start, add sets, complete. Sessions whose timestamp is already present are
// skipped so a re-import is a no-op.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int, opts Options) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, apperr.Validation("parsing CSV: %v", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date.Before(sessions[j].Date) })

	result := &ingest.Result{SessionsReceived: len(sessions), DryRun: opts.DryRun}

	if !opts.DryRun {
		existing, err := p.tr.ListSessions(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		for _, s := range existing {
			if s.Status == models.SessionPlanned {
				return nil, apperr.Conflict("session %d is still planned; complete it before importing", s.Index)
			}
		}
	}

	var byName map[string]models.Exercise
	if !opts.DryRun {
		byName, err = p.exerciseIndex(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	for _, s := range sessions {
		sets := collectSets(s, opts.IncludeWarmups, result)
		if len(sets) == 0 {
			result.SessionsEmpty++
			continue
		}
		exists, err := p.tr.HasSessionAt(ctx, userID, s.Date)
		if err != nil {
			return result, fmt.Errorf("checking session %s: %w", s.Date.Format(time.DateTime), err)
		}
		if exists {
			result.SessionsSkipped++
			continue
		}
		if opts.DryRun {
			result.SessionsImported++
			result.SetsInserted += len(sets)
			continue
		}

		if err := p.replay(ctx, userID, s, sets, byName, result); err != nil {
			return result, fmt.Errorf("importing session %s: %w", s.Date.Format(time.DateTime), err)
		}
		result.SessionsImported++
	}

	result.Message = fmt.Sprintf("imported %d of %d sessions", result.SessionsImported, result.SessionsReceived)
	p.log.Info("alpha import finished",
		"user_id", userID,
		"sessions", result.SessionsImported,
		"skipped", result.SessionsSkipped,
		"sets", result.SetsInserted,
		"dry_run", opts.DryRun)
	return result, nil
}

// collectSets flattens a session into importable sets. Warm-ups are dropped
// unless requested and sets without positive load never qualify.
func collectSets(s Session, warmups bool, result *ingest.Result) []pendingSet {
	var out []pendingSet
	group := sessionGroup(s.Name)
	for _, ex := range s.Exercises {
		n := 0
		for _, set := range ex.Sets {
			result.SetsReceived++
			if (set.IsWarmup && !warmups) || progress.Round2(set.WeightKg) <= 0 || set.Reps < 1 {
				result.SetsSkipped++
				continue
			}
			n++
			out = append(out, pendingSet{
				exercise: ex.Name,
				group:    group,
				number:   n,
				weightKg: set.WeightKg,
				reps:     set.Reps,
			})
		}
	}
	return out
}

func (p *Provider) exerciseIndex(ctx context.Context, userID int) (map[string]models.Exercise, error) {
	exercises, err := p.tr.ListExercises(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	idx := make(map[string]models.Exercise, len(exercises))
	for _, e := range exercises {
		idx[nameKey(e.Name)] = e
	}
	return idx, nil
}

// replay imports one session. When any step after the start fails the
// session is abandoned so the next import can place it again.
func (p *Provider) replay(ctx context.Context, userID int, s Session, sets []pendingSet, byName map[string]models.Exercise, result *ingest.Result) error {
	sess, err := p.tr.StartSessionAt(ctx, userID, s.Date)
	if err != nil {
		return err
	}

	added, err := p.fill(ctx, userID, sess, s.Date, sets, byName, result)
	if err == nil {
		_, err = p.tr.CompleteSession(ctx, userID, sess.ID)
	}
	if err != nil {
		if _, aerr := p.tr.AbandonSession(context.WithoutCancel(ctx), userID, sess.ID); aerr != nil {
			return multierr.Append(err, fmt.Errorf("abandoning session %d: %w", sess.Index, aerr))
		}
		p.log.Warn("import session abandoned", "user_id", userID, "index", sess.Index, "error", err)
		return err
	}
	result.SetsInserted += added
	return nil
}

// fill adds the sets of one session and returns how many were written.
func (p *Provider) fill(ctx context.Context, userID int, sess models.Session, at time.Time, sets []pendingSet, byName map[string]models.Exercise, result *ingest.Result) (int, error) {
	for i, ps := range sets {
		ex, err := p.resolve(ctx, userID, ps, byName, result)
		if err != nil {
			return i, err
		}
		weight, err := progress.ConvertWeight(ps.weightKg, models.UnitKg, ex.Unit)
		if err != nil {
			return i, err
		}
		_, err = p.tr.AddSet(ctx, userID, tracker.NewSet{
			SessionID:  sess.ID,
			ExerciseID: ex.ID,
			SetNumber:  ps.number,
			Weight:     weight,
			Reps:       ps.reps,
			LoggedAt:   at.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			return i, err
		}
	}
	return len(sets), nil
}

// nameKey folds case so "Bench Press" and "bench press" match.
func nameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// resolve finds an exercise by case-insensitive name or creates it in kg.
func (p *Provider) resolve(ctx context.Context, userID int, ps pendingSet, byName map[string]models.Exercise, result *ingest.Result) (models.Exercise, error) {
	key := nameKey(ps.exercise)
	if ex, ok := byName[key]; ok {
		return ex, nil
	}
	in := tracker.NewExercise{Name: ps.exercise, Unit: models.UnitKg}
	if ps.group != "" {
		group := ps.group
		in.GroupRef = &group
	}
	ex, err := p.tr.CreateExercise(ctx, userID, in)
	if err != nil {
		return models.Exercise{}, err
	}
	byName[key] = ex
	result.ExercisesCreated++
	p.log.Debug("exercise created from import", "user_id", userID, "name", ex.Name)
	return ex, nil
}
