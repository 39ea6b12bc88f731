package frontier

import (
	"slices"

	"github.com/napolitain/blueprint-solver/internal/models"
)

// Prune returns the members of states not dominated by another member, with
// exact duplicates collapsed. The input is left untouched and the result
// order is deterministic.
func Prune(states []State) []State {
	nodes := make([]node, len(states))
	for i, s := range states {
		nodes[i] = node{state: s}
	}
	kept := pruneDominated(nodes)
	out := make([]State, len(kept))
	for i, n := range kept {
		out[i] = n.state
	}
	return out
}

// producerGroup collects kept nodes sharing one producer vector.
type producerGroup struct {
	producers [models.NumProducers]int
	kept      []node
}

// pruneDominated is the two-phase dominance filter. Candidates are sorted so
// that every strict dominator precedes what it dominates; each candidate is
// then checked against the survivors only. A dominator that was itself
// dropped is dominated by a survivor, which by transitivity also covers the
// candidate. Survivors are grouped by producer vector so only groups with at
// least as many producers of every kind are scanned.
func pruneDominated(candidates []node) []node {
	sorted := sortNodes(candidates)

	var groups []*producerGroup
	index := make(map[[models.NumProducers]int]*producerGroup)
	out := make([]node, 0, len(sorted))

	for i, c := range sorted {
		if i > 0 && sorted[i-1].state == c.state {
			continue
		}
		if dominatedBy(groups, c.state) {
			continue
		}
		g, ok := index[c.state.Producers]
		if !ok {
			g = &producerGroup{producers: c.state.Producers}
			index[c.state.Producers] = g
			groups = append(groups, g)
		}
		g.kept = append(g.kept, c)
		out = append(out, c)
	}
	return out
}

func dominatedBy(groups []*producerGroup, s State) bool {
	for _, g := range groups {
		if !covers(g.producers, s.Producers) {
			continue
		}
		for _, k := range g.kept {
			if k.state.Time <= s.Time && k.state.Resources.Covers(s.Resources) {
				return true
			}
		}
	}
	return false
}

func covers(a, b [models.NumProducers]int) bool {
	for i := range a {
		if a[i] < b[i] {
			return false
		}
	}
	return true
}

// dedupe collapses exact duplicates only. It is the filter used when
// dominance pruning is disabled, which keeps the search exhaustive.
func dedupe(candidates []node) []node {
	sorted := sortNodes(candidates)
	out := sorted[:0]
	for i, c := range sorted {
		if i > 0 && sorted[i-1].state == c.state {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortNodes returns a sorted copy. Ties between equal states keep their
// generation order, so the surviving plan is the first one generated.
func sortNodes(candidates []node) []node {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b node) int {
		switch {
		case a.state.less(b.state):
			return -1
		case b.state.less(a.state):
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// pruneBound drops nodes that cannot beat the best yield already guaranteed
// by another node. A node's guaranteed yield is what its current target
// producers deliver by the horizon; its optimistic yield adds one new target
// producer on every remaining step.
func pruneBound(nodes []node, horizon int) []node {
	best := 0
	for _, n := range nodes {
		best = max(best, guaranteed(n.state, horizon))
	}
	out := make([]node, 0, len(nodes))
	for _, n := range nodes {
		if optimistic(n.state, horizon) < best {
			continue
		}
		out = append(out, n)
	}
	return out
}

func guaranteed(s State, horizon int) int {
	r := max(horizon-s.Time, 0)
	return s.Yield() + s.Producers[models.ProducerFor(models.TargetResource)]*r
}

func optimistic(s State, horizon int) int {
	r := max(horizon-s.Time, 0)
	return guaranteed(s, horizon) + r*(r-1)/2
}
