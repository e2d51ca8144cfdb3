package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcforge/engine/internal/taskstate"
)

func TestBuild_ConceptTemplateIncludesDescription(t *testing.T) {
	out := Build("build a login page", "concept", nil)
	assert.Contains(t, out, "build a login page")
	assert.Contains(t, out, "Clear requirements list")
}

func TestBuild_SubstitutesNAWhenPriorResultMissing(t *testing.T) {
	out := Build("x", "architect", nil)
	assert.Contains(t, out, "N/A")
}

func TestBuild_UsesFullPriorOutputWhenUnderLimit(t *testing.T) {
	results := map[string]taskstate.AgentResult{
		"concept": {Output: "short analysis"},
	}
	out := Build("x", "architect", results)
	assert.Contains(t, out, "short analysis")
}

func TestBuild_TruncatesLongPriorOutputByRuneCount(t *testing.T) {
	long := strings.Repeat("a", 3000)
	results := map[string]taskstate.AgentResult{
		"implement": {Output: long},
	}
	out := Build("x", "test", results)
	assert.Contains(t, out, strings.Repeat("a", 2000))
	assert.NotContains(t, out, strings.Repeat("a", 2001))
}

func TestBuild_DocsTruncatesAt1500(t *testing.T) {
	long := strings.Repeat("b", 2000)
	results := map[string]taskstate.AgentResult{
		"implement": {Output: long},
	}
	out := Build("x", "docs", results)
	assert.Contains(t, out, strings.Repeat("b", 1500))
	assert.NotContains(t, out, strings.Repeat("b", 1501))
}

func TestBuild_DeployTruncatesAt1000(t *testing.T) {
	long := strings.Repeat("c", 1500)
	results := map[string]taskstate.AgentResult{
		"implement": {Output: long},
	}
	out := Build("x", "deploy", results)
	assert.Contains(t, out, strings.Repeat("c", 1000))
	assert.NotContains(t, out, strings.Repeat("c", 1001))
}

func TestBuild_UnknownAgentKindFallsBackToGenericTemplate(t *testing.T) {
	out := Build("ship it", "mystery", nil)
	assert.Equal(t, "Execute the mystery task for: ship it", out)
}

func TestBuild_IsPureFunctionOfItsInputs(t *testing.T) {
	results := map[string]taskstate.AgentResult{"implement": {Output: "code"}}
	a := Build("task", "test", results)
	b := Build("task", "test", results)
	assert.Equal(t, a, b)
}

func TestPriorOutput_TreatsEmptyStringAsMissing(t *testing.T) {
	results := map[string]taskstate.AgentResult{"concept": {Output: ""}}
	out := Build("x", "architect", results)
	assert.Contains(t, out, "N/A")
}
