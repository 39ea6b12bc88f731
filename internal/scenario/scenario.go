// Package scenario solves sets of blueprints and aggregates their yields.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

const (
	// QualityHorizon is the horizon of the quality-level scenario.
	QualityHorizon = 24
	// ExtendedHorizon is the horizon of the product scenario.
	ExtendedHorizon = 32
	// ExtendedCount is how many leading blueprints the product scenario uses.
	ExtendedCount = 3
)

// Outcome is the solved result of one blueprint.
type Outcome struct {
	Blueprint *models.Blueprint `json:"-" yaml:"-"`
	ID        int               `json:"id" yaml:"id"`
	Horizon   int               `json:"horizon" yaml:"horizon"`
	Yield     int               `json:"yield" yaml:"yield"`
	Plan      []frontier.Build  `json:"plan,omitempty" yaml:"plan,omitempty"`
	Stats     frontier.Stats    `json:"stats" yaml:"stats"`
	Cached    bool              `json:"cached" yaml:"cached"`
	RunID     string            `json:"runId,omitempty" yaml:"runId,omitempty"`
}

// Weight maps an outcome to its contribution to an aggregate.
type Weight func(Outcome) int

// QualityLevel weighs an outcome by blueprint id times yield.
func QualityLevel(o Outcome) int {
	return o.ID * o.Yield
}

// Sum adds the weighted outcomes.
func Sum(outcomes []Outcome, w Weight) int {
	total := 0
	for _, o := range outcomes {
		total += w(o)
	}
	return total
}

// Product multiplies the yields. An empty set has product 1.
func Product(outcomes []Outcome) int {
	total := 1
	for _, o := range outcomes {
		total *= o.Yield
	}
	return total
}

// Cache stores solved results keyed by cost-table fingerprint, horizon and
// search settings.
type Cache interface {
	Lookup(ctx context.Context, fingerprint string, horizon int, settings string) (*frontier.Result, string, bool, error)
	Save(ctx context.Context, fingerprint string, horizon int, settings string, res *frontier.Result) (string, error)
}

// Runner solves blueprints concurrently.
type Runner struct {
	search  frontier.Config
	workers int
	cache   Cache
}

// NewRunner creates a runner solving up to workers blueprints at once with
// the given search settings.
func NewRunner(search frontier.Config, workers int) *Runner {
	return &Runner{search: search, workers: max(workers, 1)}
}

// WithCache returns the runner using c for lookups and saves.
func (r *Runner) WithCache(c Cache) *Runner {
	r.cache = c
	return r
}

// Run solves every blueprint at the horizon. Outcomes are ordered by
// blueprint id; the first failure cancels the remaining work.
func (r *Runner) Run(ctx context.Context, bps []*models.Blueprint, horizon int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(bps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, bp := range bps {
		g.Go(func() error {
			o, err := r.solve(gctx, bp, horizon)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].ID < outcomes[j].ID
	})
	return outcomes, nil
}

func (r *Runner) solve(ctx context.Context, bp *models.Blueprint, horizon int) (Outcome, error) {
	out := Outcome{Blueprint: bp, ID: bp.ID, Horizon: horizon}
	settings := SettingsKey(r.search)

	if r.cache != nil {
		res, runID, ok, err := r.cache.Lookup(ctx, bp.Fingerprint(), horizon, settings)
		if err != nil {
			return out, cerrors.WrapWithContext(cerrors.ErrCodeInternal, "cache lookup failed", err,
				map[string]any{"blueprint": bp.ID})
		}
		if ok {
			slog.Debug("cache hit", "blueprint", bp.ID, "horizon", horizon, "run_id", runID)
			out.Yield, out.Plan, out.Stats = res.Yield, res.Plan, res.Stats
			out.Cached, out.RunID = true, runID
			return out, nil
		}
	}

	s, err := frontier.NewSolverWithConfig(bp, r.search)
	if err != nil {
		return out, err
	}
	res, err := s.Run(ctx, horizon)
	if err != nil {
		return out, err
	}
	out.Yield, out.Plan, out.Stats = res.Yield, res.Plan, res.Stats

	if r.cache != nil {
		runID, err := r.cache.Save(ctx, bp.Fingerprint(), horizon, settings, res)
		if err != nil {
			return out, cerrors.WrapWithContext(cerrors.ErrCodeInternal, "cache save failed", err,
				map[string]any{"blueprint": bp.ID})
		}
		out.RunID = runID
	}
	return out, nil
}

// SettingsKey encodes the search settings that influence the reported plan.
// Worker count is excluded since it never changes the result.
func SettingsKey(cfg frontier.Config) string {
	flag := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("d%d-b%d-c%d-r%d",
		flag(cfg.Dominance), flag(cfg.Bound), flag(cfg.Cutoffs), flag(cfg.RedundancyCap))
}

// QualitySum solves every blueprint at the horizon and returns the sum of
// their quality levels.
func (r *Runner) QualitySum(ctx context.Context, bps []*models.Blueprint, horizon int) (int, []Outcome, error) {
	outcomes, err := r.Run(ctx, bps, horizon)
	if err != nil {
		return 0, nil, err
	}
	return Sum(outcomes, QualityLevel), outcomes, nil
}

// TopProduct solves the first n blueprints at the horizon and returns the
// product of their yields. Fewer than n blueprints are all used.
func (r *Runner) TopProduct(ctx context.Context, bps []*models.Blueprint, n, horizon int) (int, []Outcome, error) {
	if n < 0 {
		return 0, nil, cerrors.New(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("blueprint count %d is negative", n))
	}
	outcomes, err := r.Run(ctx, bps[:min(n, len(bps))], horizon)
	if err != nil {
		return 0, nil, err
	}
	return Product(outcomes), outcomes, nil
}
