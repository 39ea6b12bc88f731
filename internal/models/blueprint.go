package models

import (
	"fmt"
	"strings"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
)

// Blueprint is a recipe table: the cost of building one producer of each kind.
// A Blueprint is read-only once parsed; the solver never mutates it.
type Blueprint struct {
	ID    int
	Costs [NumProducers]Costs
}

// NewBlueprint creates a blueprint from the canonical four recipes:
// ore robot (ore), clay robot (ore), obsidian robot (ore, clay) and
// geode robot (ore, obsidian).
func NewBlueprint(id, oreRobotOre, clayRobotOre, obsidianRobotOre, obsidianRobotClay, geodeRobotOre, geodeRobotObsidian int) *Blueprint {
	bp := &Blueprint{ID: id}
	bp.Costs[OreRobot][Ore] = oreRobotOre
	bp.Costs[ClayRobot][Ore] = clayRobotOre
	bp.Costs[ObsidianRobot][Ore] = obsidianRobotOre
	bp.Costs[ObsidianRobot][Clay] = obsidianRobotClay
	bp.Costs[GeodeRobot][Ore] = geodeRobotOre
	bp.Costs[GeodeRobot][Obsidian] = geodeRobotObsidian
	return bp
}

// Cost returns the cost vector for building one producer of kind p.
func (b *Blueprint) Cost(p ProducerKind) Costs {
	return b.Costs[p]
}

// MaxSpend returns the largest amount of r any single recipe consumes. Since
// at most one producer is built per step, owning MaxSpend(r) producers of r
// already covers every possible spend.
func (b *Blueprint) MaxSpend(r ResourceKind) int {
	most := 0
	for _, c := range b.Costs {
		most = max(most, c[r])
	}
	return most
}

// Consumers returns the producer kinds whose recipe spends r.
func (b *Blueprint) Consumers(r ResourceKind) []ProducerKind {
	var out []ProducerKind
	for _, p := range AllProducerKinds() {
		if b.Costs[p][r] > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the table preconditions the search relies on. It returns a
// structured INVALID_CONFIG error describing the first problem found.
func (b *Blueprint) Validate() error {
	if b == nil {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "blueprint is nil")
	}
	if b.ID < 0 {
		return cerrors.NewWithContext(cerrors.ErrCodeInvalidConfig,
			fmt.Sprintf("blueprint id %d is negative", b.ID),
			map[string]any{"blueprint": b.ID})
	}

	for _, p := range AllProducerKinds() {
		for _, r := range AllResourceKinds() {
			if b.Costs[p][r] < 0 {
				return cerrors.NewWithContext(cerrors.ErrCodeInvalidConfig,
					fmt.Sprintf("%s costs %d %s", p, b.Costs[p][r], r),
					map[string]any{"blueprint": b.ID, "producer": p.String()})
			}
		}
		if b.Costs[p][TargetResource] != 0 {
			return cerrors.NewWithContext(cerrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s spends %s, which is never spendable", p, TargetResource),
				map[string]any{"blueprint": b.ID, "producer": p.String()})
		}
	}

	// Every producer kind must become affordable starting from a single free
	// producer. Anything else means a dependency cycle.
	reachable := b.reachable()
	for _, p := range AllProducerKinds() {
		if !reachable[p] {
			return cerrors.NewWithContext(cerrors.ErrCodeInvalidConfig,
				fmt.Sprintf("%s can never be afforded (costs %s form a dependency cycle)", p, b.Costs[p]),
				map[string]any{"blueprint": b.ID, "producer": p.String()})
		}
	}

	return nil
}

// reachable computes which producer kinds can ever be built.
func (b *Blueprint) reachable() [NumProducers]bool {
	var produced [NumResources]bool
	var built [NumProducers]bool
	produced[FreeResource] = true
	built[ProducerFor(FreeResource)] = true

	for changed := true; changed; {
		changed = false
		for _, p := range AllProducerKinds() {
			if built[p] {
				continue
			}
			ok := true
			for _, r := range AllResourceKinds() {
				if b.Costs[p][r] > 0 && !produced[r] {
					ok = false
					break
				}
			}
			if ok {
				built[p] = true
				produced[p.Yields()] = true
				changed = true
			}
		}
	}
	return built
}

// Fingerprint returns a stable key identifying the cost table, independent
// of the blueprint id.
func (b *Blueprint) Fingerprint() string {
	parts := make([]string, 0, NumProducers)
	for _, c := range b.Costs {
		parts = append(parts, fmt.Sprintf("%d/%d/%d/%d", c[Ore], c[Clay], c[Obsidian], c[Geode]))
	}
	return strings.Join(parts, ",")
}

// String renders the blueprint in the canonical text format.
func (b *Blueprint) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Blueprint %d:", b.ID)
	for _, p := range AllProducerKinds() {
		fmt.Fprintf(&sb, " Each %s costs %s.", p, b.Costs[p])
	}
	return sb.String()
}
