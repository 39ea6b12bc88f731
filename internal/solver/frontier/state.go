package frontier

import (
	"fmt"

	"github.com/napolitain/blueprint-solver/internal/models"
)

// State is one point of the search: elapsed time, owned producers and held
// resources. States are plain values; every transition returns a new State.
type State struct {
	Time      int
	Producers [models.NumProducers]int
	Resources models.Costs
}

// NewState returns the initial state: time 0, a single producer of the free
// resource and nothing else.
func NewState() State {
	var s State
	s.Producers[models.ProducerFor(models.FreeResource)] = 1
	return s
}

// Yield returns the amount of the target resource held.
func (s State) Yield() int {
	return s.Resources[models.TargetResource]
}

// Step advances one time unit: every producer yields one unit of its resource.
func (s State) Step() State {
	for i, n := range s.Producers {
		s.Resources[i] += n
	}
	s.Time++
	return s
}

// CanAfford reports whether the held resources cover cost.
func (s State) CanAfford(cost models.Costs) bool {
	return s.Resources.Covers(cost)
}

// Build pays cost, advances one step, then adds a producer of kind p. The new
// producer only starts yielding on the following step. Callers must check
// CanAfford first.
func (s State) Build(p models.ProducerKind, cost models.Costs) State {
	s.Resources = s.Resources.Sub(cost)
	s = s.Step()
	s.Producers[p]++
	return s
}

// Dominates reports whether s is at least as good as o: no later in time and
// holding at least as many of every producer and resource. Anything o can
// reach, s can reach at least as well.
func (s State) Dominates(o State) bool {
	if s.Time > o.Time {
		return false
	}
	for i := range s.Producers {
		if s.Producers[i] < o.Producers[i] {
			return false
		}
	}
	return s.Resources.Covers(o.Resources)
}

// sum is the total of every producer and resource count. A strict dominator
// always has a larger sum.
func (s State) sum() int {
	total := 0
	for i := range s.Producers {
		total += s.Producers[i] + s.Resources[i]
	}
	return total
}

// less orders states for deterministic frontier layout: larger sum first,
// then lexicographically larger producers and resources, then earlier time.
func (s State) less(o State) bool {
	if a, b := s.sum(), o.sum(); a != b {
		return a > b
	}
	for i := len(s.Producers) - 1; i >= 0; i-- {
		if s.Producers[i] != o.Producers[i] {
			return s.Producers[i] > o.Producers[i]
		}
	}
	for i := len(s.Resources) - 1; i >= 0; i-- {
		if s.Resources[i] != o.Resources[i] {
			return s.Resources[i] > o.Resources[i]
		}
	}
	return s.Time < o.Time
}

// String renders the state compactly, e.g. "t=3 robots[1 0 0 0] res[3 0 0 0]".
func (s State) String() string {
	return fmt.Sprintf("t=%d robots%v res%v", s.Time, s.Producers, [models.NumResources]int(s.Resources))
}
