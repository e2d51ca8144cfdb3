package decompose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcforge/engine/internal/modes"
)

func TestDecompose_ShallowProducesSinglePhase(t *testing.T) {
	cfg, _ := modes.Builtin().Get("SPEED")
	phases := Decompose("add a login button", cfg)

	require.Len(t, phases, 1)
	assert.Equal(t, "Execution", phases[0].Name)
	assert.Equal(t, []string{"implement"}, phases[0].Agents)
}

func TestDecompose_ShallowAggressiveWithMultipleAgentsIsParallel(t *testing.T) {
	cfg := modes.Config{
		DecompositionDepth:   modes.DepthShallow,
		ParallelizationLevel: modes.ParallelizationAggressive,
		RequiredAgents:       []string{"implement", "test"},
	}
	phases := Decompose("x", cfg)
	require.Len(t, phases, 1)
	assert.True(t, phases[0].Parallel)
}

func TestDecompose_DeepFollowsCanonicalOrder(t *testing.T) {
	cfg, _ := modes.Builtin().Get("QUALITY")
	phases := Decompose("build a feature", cfg)

	var names []string
	for _, p := range phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Concept", "Architecture", "Implementation", "Testing", "Review", "Documentation"}, names)
}

func TestDecompose_DeepSkipsGroupsWithNoRequiredAgents(t *testing.T) {
	cfg := modes.Config{
		DecompositionDepth: modes.DepthDeep,
		RequiredAgents:     []string{"implement", "deploy"},
	}
	phases := Decompose("x", cfg)

	var names []string
	for _, p := range phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Implementation", "Deployment"}, names)
}

func TestDecompose_DeepRenumbersContiguously(t *testing.T) {
	cfg := modes.Config{
		DecompositionDepth: modes.DepthDeep,
		RequiredAgents:     []string{"implement", "deploy"},
	}
	phases := Decompose("x", cfg)
	require.Len(t, phases, 2)
	assert.Equal(t, 1, phases[0].Number)
	assert.Equal(t, 2, phases[1].Number)
}

func TestDecompose_ReviewGroupIncludesOptionalSecurityWhenRequired(t *testing.T) {
	cfg := modes.Config{
		DecompositionDepth: modes.DepthDeep,
		RequiredAgents:     []string{"review", "security"},
	}
	phases := Decompose("x", cfg)
	require.Len(t, phases, 1)
	assert.ElementsMatch(t, []string{"review", "security"}, phases[0].Agents)
	assert.True(t, phases[0].Parallel)
}

func TestDecompose_IsIdempotent(t *testing.T) {
	cfg, _ := modes.Builtin().Get("AUTONOMY")
	first := Decompose("same description", cfg)
	second := Decompose("same description", cfg)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Agents, second[i].Agents)
	}
}

func TestDecompose_IgnoresDescriptionContent(t *testing.T) {
	cfg, _ := modes.Builtin().Get("SPEED")
	a := Decompose("rewrite the entire payments system", cfg)
	b := Decompose("", cfg)
	assert.Equal(t, a[0].Agents, b[0].Agents)
}
