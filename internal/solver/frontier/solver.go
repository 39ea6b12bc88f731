package frontier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/models"
)

// MaxHorizon is the largest horizon accepted. Resources never exceed
// horizon*(horizon+1)/2 plus what the start state holds, so any horizon up
// to this bound fits comfortably in a 64-bit int.
const MaxHorizon = 1 << 16

// Config selects which pruning rules the search applies. None of them change
// the answer; they only shrink the frontier.
type Config struct {
	// Dominance drops states dominated by another frontier member.
	Dominance bool
	// Bound drops states whose optimistic yield cannot reach the best
	// guaranteed yield.
	Bound bool
	// Cutoffs stops building a producer kind once it can no longer pay off
	// before the horizon.
	Cutoffs bool
	// RedundancyCap stops building a producer kind once its count covers the
	// largest single spend of its resource.
	RedundancyCap bool
	// Workers expands large frontiers in parallel when greater than 1.
	Workers int
}

// DefaultConfig enables every pruning rule and runs sequentially.
func DefaultConfig() Config {
	return Config{
		Dominance:     true,
		Bound:         true,
		Cutoffs:       true,
		RedundancyCap: true,
		Workers:       1,
	}
}

// ExhaustiveConfig disables every pruning rule. Only exact duplicate states
// are merged, so the result is a reference answer for small horizons.
func ExhaustiveConfig() Config {
	return Config{Workers: 1}
}

// Stats describes one search run.
type Stats struct {
	Steps        int           `json:"steps" yaml:"steps"`
	Expanded     int           `json:"expanded" yaml:"expanded"`
	Pruned       int           `json:"pruned" yaml:"pruned"`
	PeakFrontier int           `json:"peakFrontier" yaml:"peakFrontier"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Result is the outcome of a search: the best yield, the state achieving it
// and the build order leading there.
type Result struct {
	Yield int     `json:"yield" yaml:"yield"`
	Final State   `json:"-" yaml:"-"`
	Plan  []Build `json:"plan" yaml:"plan"`
	Stats Stats   `json:"stats" yaml:"stats"`
}

// Solver searches the producer-building orders of one blueprint.
type Solver struct {
	blueprint *models.Blueprint
	cfg       Config
	// consumers[p] lists the producer kinds whose recipe spends what p yields.
	consumers [models.NumProducers][]models.ProducerKind
}

// NewSolver creates a solver with DefaultConfig. The blueprint is validated
// once here; the search itself never fails.
func NewSolver(bp *models.Blueprint) (*Solver, error) {
	return NewSolverWithConfig(bp, DefaultConfig())
}

// NewSolverWithConfig creates a solver with explicit pruning settings.
func NewSolverWithConfig(bp *models.Blueprint, cfg Config) (*Solver, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	s := &Solver{blueprint: bp, cfg: cfg}
	for _, p := range models.AllProducerKinds() {
		s.consumers[p] = bp.Consumers(p.Yields())
	}
	return s, nil
}

// Blueprint returns the recipe table being searched.
func (s *Solver) Blueprint() *models.Blueprint {
	return s.blueprint
}

// Config returns the active pruning settings.
func (s *Solver) Config() Config {
	return s.cfg
}

// Solve returns the maximum target yield reachable from the initial state
// within horizon steps. Negative horizons count as zero and horizons above
// MaxHorizon are clamped.
func (s *Solver) Solve(horizon int) int {
	return s.SolveFrom(NewState(), horizon)
}

// SolveFrom returns the maximum target yield reachable from start by the
// absolute time horizon.
func (s *Solver) SolveFrom(start State, horizon int) int {
	horizon = min(max(horizon, 0), MaxHorizon)
	res, err := s.search(context.Background(), start, horizon)
	if err != nil {
		// Only cancellation can fail and the background context never ends.
		panic(err)
	}
	return res.Yield
}

// Run performs the search like Solve and also returns the build plan and run
// statistics. The context is checked between steps.
func (s *Solver) Run(ctx context.Context, horizon int) (*Result, error) {
	if horizon < 0 || horizon > MaxHorizon {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("horizon %d outside [0, %d]", horizon, MaxHorizon),
			map[string]any{"blueprint": s.blueprint.ID})
	}
	res, err := s.search(ctx, NewState(), horizon)
	if err != nil {
		return nil, err
	}
	slog.Info("blueprint solved",
		"blueprint", s.blueprint.ID,
		"horizon", horizon,
		"yield", res.Yield,
		"expanded", res.Stats.Expanded,
		"peak_frontier", res.Stats.PeakFrontier,
		"duration", res.Stats.Duration)
	return res, nil
}

func (s *Solver) search(ctx context.Context, start State, horizon int) (*Result, error) {
	began := time.Now()
	lim := s.newLimits(horizon)

	var stats Stats
	current := []node{{state: start}}
	var scratch []node

	for step := start.Time; step < horizon; step++ {
		if err := ctx.Err(); err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeCanceled, "search canceled", err,
				map[string]any{"blueprint": s.blueprint.ID, "step": step})
		}

		candidates, err := s.expand(ctx, scratch[:0], current, lim)
		if err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeCanceled, "search canceled", err,
				map[string]any{"blueprint": s.blueprint.ID, "step": step})
		}

		var next []node
		if s.cfg.Dominance {
			next = pruneDominated(candidates)
		} else {
			next = dedupe(candidates)
		}
		if s.cfg.Bound {
			next = pruneBound(next, horizon)
		}

		stats.Steps++
		stats.Expanded += len(candidates)
		stats.Pruned += len(candidates) - len(next)
		stats.PeakFrontier = max(stats.PeakFrontier, len(next))
		frontierSize.Observe(float64(len(next)))

		slog.Debug("frontier step",
			"blueprint", s.blueprint.ID,
			"minute", step+1,
			"candidates", len(candidates),
			"kept", len(next))

		// The previous frontier is dead; its backing array is reused for the
		// next round of candidates.
		scratch = current
		current = next
	}

	best := current[0]
	for _, n := range current[1:] {
		if n.state.Yield() > best.state.Yield() {
			best = n
		}
	}

	stats.Duration = time.Since(began)
	statesExpanded.Add(float64(stats.Expanded))
	statesPruned.Add(float64(stats.Pruned))
	solveDuration.Observe(stats.Duration.Seconds())

	return &Result{
		Yield: best.state.Yield(),
		Final: best.state,
		Plan:  best.path.builds(),
		Stats: stats,
	}, nil
}
