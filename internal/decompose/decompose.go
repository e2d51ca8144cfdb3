// Package decompose turns a mode config into an ordered list of phases.
// Decomposition is a deterministic function of the mode config alone
// (spec.md §4.4): it ignores the task description entirely.
package decompose

import (
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/taskstate"
)

// group is one entry in the canonical deep-decomposition grouping.
type group struct {
	name   string
	agents []string
}

// canonicalGroups is the fixed ordering used for deep decomposition
// (spec.md §4.4 table).
var canonicalGroups = []group{
	{name: "Concept", agents: []string{"concept"}},
	{name: "Architecture", agents: []string{"architect"}},
	{name: "Implementation", agents: []string{"implement"}},
	{name: "Testing", agents: []string{"test"}},
	{name: "Review", agents: []string{"review", "security"}},
	{name: "Optimization", agents: []string{"optimize"}},
	{name: "Documentation", agents: []string{"docs"}},
	{name: "Deployment", agents: []string{"deploy"}},
}

// Decompose produces the ordered phase list for a mode config. The
// description parameter exists only to make the dependency on it explicit at
// call sites; it plays no role in the output (spec.md §4.4).
func Decompose(description string, cfg modes.Config) []*taskstate.Phase {
	if cfg.DecompositionDepth == modes.DepthShallow {
		return shallow(cfg)
	}
	return deep(cfg)
}

func shallow(cfg modes.Config) []*taskstate.Phase {
	agents := append([]string{}, cfg.RequiredAgents...)
	phase := &taskstate.Phase{
		Number:   1,
		Name:     "Execution",
		Status:   taskstate.PhaseStatusPending,
		Parallel: cfg.ParallelizationLevel == modes.ParallelizationAggressive && len(agents) > 1,
		Agents:   agents,
	}
	return []*taskstate.Phase{phase}
}

func deep(cfg modes.Config) []*taskstate.Phase {
	required := make(map[string]bool, len(cfg.RequiredAgents))
	for _, a := range cfg.RequiredAgents {
		required[a] = true
	}

	var phases []*taskstate.Phase
	number := 1
	for _, g := range canonicalGroups {
		var present []string
		for _, a := range g.agents {
			if required[a] {
				present = append(present, a)
			}
		}
		if len(present) == 0 {
			continue
		}
		phases = append(phases, &taskstate.Phase{
			Number:   number,
			Name:     g.name,
			Status:   taskstate.PhaseStatusPending,
			Parallel: len(present) > 1,
			Agents:   present,
		})
		number++
	}
	return phases
}
