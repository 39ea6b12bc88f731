package frontier

import "github.com/napolitain/blueprint-solver/internal/models"

// never marks a producer kind that is not worth building at any time.
const never = -1

// limits holds the per-run branching rules derived from the blueprint and
// horizon.
type limits struct {
	horizon int
	// cap[p] is the producer count beyond which building p is redundant.
	// Zero cap with capped[p] false means uncapped.
	cap    [models.NumProducers]int
	capped [models.NumProducers]bool
	// last[p] is the latest state time at which building p can still
	// increase the final target yield.
	last [models.NumProducers]int
}

// newLimits derives redundancy caps and build cutoffs for a horizon.
//
// Cap: with one build per step, no step ever spends more of resource r than
// MaxSpend(r), so owning that many r-producers already covers every spend.
// The target is never spent and stays uncapped.
//
// Cutoff: a producer built during the step starting at t first yields at
// t+2. A target producer therefore pays off only when t <= horizon-2, and
// any other producer only when its first unit can fund a useful build of one
// of its consumers: last[p] = max(last[consumer]) - 2.
func (s *Solver) newLimits(horizon int) *limits {
	lim := &limits{horizon: horizon}
	target := models.ProducerFor(models.TargetResource)

	for _, p := range models.AllProducerKinds() {
		lim.last[p] = never
		if p == target || !s.cfg.RedundancyCap {
			continue
		}
		lim.cap[p] = s.blueprint.MaxSpend(p.Yields())
		lim.capped[p] = true
	}

	if !s.cfg.Cutoffs {
		for p := range lim.last {
			lim.last[p] = horizon - 1
		}
		return lim
	}

	lim.last[target] = max(horizon-2, never)
	for changed := true; changed; {
		changed = false
		for _, p := range models.AllProducerKinds() {
			if p == target {
				continue
			}
			for _, consumer := range s.consumers[p] {
				if lim.last[consumer] == never {
					continue
				}
				if t := lim.last[consumer] - 2; t > lim.last[p] {
					lim.last[p] = t
					changed = true
				}
			}
		}
	}
	return lim
}

// move is one candidate transition. built is -1 for "build nothing".
type move struct {
	state State
	built models.ProducerKind
}

const buildNothing models.ProducerKind = -1

// moves appends the candidate transitions of st to dst, in a fixed order:
// "build nothing" first, then every eligible producer kind in kind order.
func (s *Solver) moves(dst []move, st State, lim *limits) []move {
	if st.Time >= lim.horizon {
		return dst
	}

	dst = append(dst, move{state: st.Step(), built: buildNothing})

	for i := range models.NumProducers {
		p := models.ProducerKind(i)
		if st.Time > lim.last[p] {
			continue
		}
		if lim.capped[p] && st.Producers[p] >= lim.cap[p] {
			continue
		}
		cost := s.blueprint.Costs[p]
		if !st.CanAfford(cost) {
			continue
		}
		dst = append(dst, move{state: st.Build(p, cost), built: p})
	}
	return dst
}

// Options returns every state reachable from st in one step under the
// solver's branching rules for the given horizon. It returns nil once
// st.Time has reached the horizon.
func (s *Solver) Options(st State, horizon int) []State {
	lim := s.newLimits(horizon)
	ms := s.moves(nil, st, lim)
	if len(ms) == 0 {
		return nil
	}
	out := make([]State, len(ms))
	for i, m := range ms {
		out[i] = m.state
	}
	return out
}
