package models

import "fmt"

// ResourceKind represents the different resource kinds, ordered by dependency.
type ResourceKind int

const (
	Ore ResourceKind = iota
	Clay
	Obsidian
	Geode
)

// NumResources is the number of resource kinds.
const NumResources = 4

// FreeResource is the base resource whose producer every search starts with.
const FreeResource = Ore

// TargetResource is the resource whose final quantity is maximized. It is
// never spent.
const TargetResource = Geode

var resourceNames = [NumResources]string{"ore", "clay", "obsidian", "geode"}

// String returns the lowercase resource name.
func (r ResourceKind) String() string {
	if r < 0 || int(r) >= NumResources {
		return fmt.Sprintf("resource(%d)", int(r))
	}
	return resourceNames[r]
}

// Valid reports whether r is one of the known kinds.
func (r ResourceKind) Valid() bool {
	return r >= 0 && int(r) < NumResources
}

// AllResourceKinds returns all resource kinds in dependency order
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{Ore, Clay, Obsidian, Geode}
}

// ParseResourceKind converts a name such as "obsidian" to its kind.
func ParseResourceKind(name string) (ResourceKind, bool) {
	for i, n := range resourceNames {
		if n == name {
			return ResourceKind(i), true
		}
	}
	return 0, false
}

// ProducerKind identifies a producer (robot). There is one producer kind per
// resource kind and a producer of kind K yields one unit of resource K per step.
type ProducerKind int

const (
	OreRobot ProducerKind = iota
	ClayRobot
	ObsidianRobot
	GeodeRobot
)

// NumProducers is the number of producer kinds.
const NumProducers = NumResources

// Yields returns the resource this producer kind generates.
func (p ProducerKind) Yields() ResourceKind {
	return ResourceKind(p)
}

// String returns the display name, e.g. "obsidian robot".
func (p ProducerKind) String() string {
	if p < 0 || int(p) >= NumProducers {
		return fmt.Sprintf("producer(%d)", int(p))
	}
	return resourceNames[p] + " robot"
}

// ParseProducerKind converts a display name such as "clay robot" to its kind.
func ParseProducerKind(name string) (ProducerKind, bool) {
	for i, n := range resourceNames {
		if n+" robot" == name {
			return ProducerKind(i), true
		}
	}
	return 0, false
}

// AllProducerKinds returns all producer kinds in dependency order
func AllProducerKinds() []ProducerKind {
	return []ProducerKind{OreRobot, ClayRobot, ObsidianRobot, GeodeRobot}
}

// ProducerFor returns the producer kind yielding resource r.
func ProducerFor(r ResourceKind) ProducerKind {
	return ProducerKind(r)
}

// Costs is a resource vector indexed by ResourceKind.
type Costs [NumResources]int

// Covers reports whether c holds at least need of every resource.
func (c Costs) Covers(need Costs) bool {
	for i := range c {
		if c[i] < need[i] {
			return false
		}
	}
	return true
}

// Sub returns c - o component-wise.
func (c Costs) Sub(o Costs) Costs {
	for i := range c {
		c[i] -= o[i]
	}
	return c
}

// IsZero reports whether every component is zero.
func (c Costs) IsZero() bool {
	return c == Costs{}
}

// String formats the non-zero components, e.g. "3 ore and 14 clay".
func (c Costs) String() string {
	out := ""
	for _, r := range AllResourceKinds() {
		if c[r] == 0 {
			continue
		}
		if out != "" {
			out += " and "
		}
		out += fmt.Sprintf("%d %s", c[r], r)
	}
	if out == "" {
		return "nothing"
	}
	return out
}
