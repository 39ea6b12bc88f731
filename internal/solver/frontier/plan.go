package frontier

import (
	"fmt"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/models"
)

// Build records one producer purchase. Minute is the 1-based step during
// which the cost was paid; the producer starts yielding the minute after.
type Build struct {
	Minute   int                 `json:"minute" yaml:"minute"`
	Producer models.ProducerKind `json:"-" yaml:"-"`
	Name     string              `json:"producer" yaml:"producer"`
}

// history is an immutable linked list of builds, newest first. Frontier
// nodes share tails, so only live branches stay in memory.
type history struct {
	build Build
	prev  *history
}

func (h *history) push(minute int, p models.ProducerKind) *history {
	return &history{
		build: Build{Minute: minute, Producer: p, Name: p.String()},
		prev:  h,
	}
}

// builds returns the recorded builds in chronological order.
func (h *history) builds() []Build {
	n := 0
	for c := h; c != nil; c = c.prev {
		n++
	}
	out := make([]Build, n)
	for c := h; c != nil; c = c.prev {
		n--
		out[n] = c.build
	}
	return out
}

// node is a frontier member: a state plus how it was reached.
type node struct {
	state State
	path  *history
}

// Replay applies plan to the initial state for horizon steps and returns the
// final state. It fails when a build is not affordable at its minute, when
// two builds share a minute, or when a build falls outside the horizon.
func Replay(bp *models.Blueprint, plan []Build, horizon int) (State, error) {
	byMinute := make(map[int]models.ProducerKind, len(plan))
	for _, b := range plan {
		if b.Minute < 1 || b.Minute > horizon {
			return State{}, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("build of %s at minute %d is outside the horizon", b.Producer, b.Minute),
				map[string]any{"horizon": horizon})
		}
		if _, dup := byMinute[b.Minute]; dup {
			return State{}, cerrors.New(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("more than one build at minute %d", b.Minute))
		}
		byMinute[b.Minute] = b.Producer
	}

	st := NewState()
	for st.Time < horizon {
		p, ok := byMinute[st.Time+1]
		if !ok {
			st = st.Step()
			continue
		}
		cost := bp.Cost(p)
		if !st.CanAfford(cost) {
			return st, cerrors.New(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("cannot afford %s (%s) at minute %d with %v", p, cost, st.Time+1, st.Resources))
		}
		st = st.Build(p, cost)
	}
	return st, nil
}
