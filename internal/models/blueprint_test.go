package models

import (
	"testing"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
)

func exampleBlueprint() *Blueprint {
	return NewBlueprint(1, 4, 2, 3, 14, 2, 7)
}

func TestBlueprintCosts(t *testing.T) {
	bp := exampleBlueprint()

	if got := bp.Cost(ObsidianRobot); got != (Costs{3, 14, 0, 0}) {
		t.Errorf("obsidian robot cost = %v, want [3 14 0 0]", got)
	}
	if got := bp.Cost(GeodeRobot); got != (Costs{2, 0, 7, 0}) {
		t.Errorf("geode robot cost = %v, want [2 0 7 0]", got)
	}
}

func TestBlueprintMaxSpend(t *testing.T) {
	bp := exampleBlueprint()

	cases := map[ResourceKind]int{Ore: 4, Clay: 14, Obsidian: 7, Geode: 0}
	for r, want := range cases {
		if got := bp.MaxSpend(r); got != want {
			t.Errorf("MaxSpend(%s) = %d, want %d", r, got, want)
		}
	}
}

func TestBlueprintConsumers(t *testing.T) {
	bp := exampleBlueprint()

	if got := bp.Consumers(Clay); len(got) != 1 || got[0] != ObsidianRobot {
		t.Errorf("Consumers(clay) = %v, want [obsidian robot]", got)
	}
	if got := bp.Consumers(Ore); len(got) != 4 {
		t.Errorf("Consumers(ore) = %v, want all four producers", got)
	}
	if got := bp.Consumers(Geode); len(got) != 0 {
		t.Errorf("Consumers(geode) = %v, want none", got)
	}
}

func TestValidateAcceptsCanonicalBlueprints(t *testing.T) {
	for _, bp := range []*Blueprint{exampleBlueprint(), NewBlueprint(2, 2, 3, 3, 8, 3, 12)} {
		if err := bp.Validate(); err != nil {
			t.Errorf("blueprint %d: unexpected error %v", bp.ID, err)
		}
	}
}

func TestValidateRejectsMalformedTables(t *testing.T) {
	negative := exampleBlueprint()
	negative.Costs[ClayRobot][Ore] = -1

	spendsTarget := exampleBlueprint()
	spendsTarget.Costs[GeodeRobot][Geode] = 1

	cycle := exampleBlueprint()
	cycle.Costs[ClayRobot][Obsidian] = 1

	selfDependent := exampleBlueprint()
	selfDependent.Costs[ClayRobot][Clay] = 2

	negativeID := exampleBlueprint()
	negativeID.ID = -4

	cases := map[string]*Blueprint{
		"negative cost":  negative,
		"spends target":  spendsTarget,
		"cycle":          cycle,
		"self dependent": selfDependent,
		"negative id":    negativeID,
		"nil":            nil,
	}

	for name, bp := range cases {
		t.Run(name, func(t *testing.T) {
			err := bp.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !cerrors.HasCode(err, cerrors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestValidateAllowsExpensiveTables(t *testing.T) {
	// Unaffordable in practice is still well-formed.
	bp := NewBlueprint(7, 1000, 1000, 1000, 1000, 1000, 1000)
	if err := bp.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFingerprintIgnoresID(t *testing.T) {
	a := exampleBlueprint()
	b := exampleBlueprint()
	b.ID = 42

	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ: %q vs %q", a.Fingerprint(), b.Fingerprint())
	}

	c := exampleBlueprint()
	c.Costs[OreRobot][Ore] = 5
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different tables share a fingerprint")
	}
}

func TestBlueprintString(t *testing.T) {
	want := "Blueprint 1: Each ore robot costs 4 ore. Each clay robot costs 2 ore. " +
		"Each obsidian robot costs 3 ore and 14 clay. Each geode robot costs 2 ore and 7 obsidian."
	if got := exampleBlueprint().String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestKindNames(t *testing.T) {
	if GeodeRobot.String() != "geode robot" {
		t.Errorf("GeodeRobot.String() = %q", GeodeRobot.String())
	}
	if GeodeRobot.Yields() != Geode {
		t.Errorf("GeodeRobot yields %s", GeodeRobot.Yields())
	}
	r, ok := ParseResourceKind("obsidian")
	if !ok || r != Obsidian {
		t.Errorf("ParseResourceKind(obsidian) = %v, %v", r, ok)
	}
	if _, ok := ParseResourceKind("wood"); ok {
		t.Error("ParseResourceKind accepted unknown resource")
	}
	for _, p := range AllProducerKinds() {
		got, ok := ParseProducerKind(p.String())
		if !ok || got != p {
			t.Errorf("ParseProducerKind(%q) = %v, %v", p, got, ok)
		}
	}
	if _, ok := ParseProducerKind("obsidian"); ok {
		t.Error("ParseProducerKind accepted a resource name")
	}
}

func TestCostsHelpers(t *testing.T) {
	have := Costs{5, 14, 0, 3}
	need := Costs{3, 14, 0, 0}

	if !have.Covers(need) {
		t.Error("Covers should be true")
	}
	if need.Covers(have) {
		t.Error("Covers should be false")
	}
	if got := have.Sub(need); got != (Costs{2, 0, 0, 3}) {
		t.Errorf("Sub = %v", got)
	}
	if !(Costs{}).IsZero() {
		t.Error("zero costs not reported as zero")
	}
	if (Costs{}).String() != "nothing" {
		t.Errorf("zero costs String() = %q", (Costs{}).String())
	}
}
