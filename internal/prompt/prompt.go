// Package prompt builds the prompt string sent to a provider for one agent
// invocation. Build is a pure function of its inputs (spec.md §4.7, §8
// "Prompt builder determinism").
package prompt

import (
	"fmt"

	"github.com/orcforge/engine/internal/taskstate"
)

// naAvailable is substituted for a prior agent's missing output.
const naAvailable = "N/A"

// Build returns the prompt for agentKind given the task description and the
// results accumulated by prior agents so far.
func Build(description, agentKind string, results map[string]taskstate.AgentResult) string {
	switch agentKind {
	case "concept":
		return fmt.Sprintf(conceptTemplate, description)
	case "architect":
		return fmt.Sprintf(architectTemplate, description, priorOutput(results, "concept", -1))
	case "implement":
		return fmt.Sprintf(implementTemplate, description, priorOutput(results, "architect", -1))
	case "test":
		return fmt.Sprintf(testTemplate, description, priorOutput(results, "implement", 2000))
	case "review":
		return fmt.Sprintf(reviewTemplate, description, priorOutput(results, "implement", 2000))
	case "security":
		return fmt.Sprintf(securityTemplate, description, priorOutput(results, "implement", 2000))
	case "optimize":
		return fmt.Sprintf(optimizeTemplate, description, priorOutput(results, "implement", 2000))
	case "docs":
		return fmt.Sprintf(docsTemplate, description, priorOutput(results, "implement", 1500))
	case "deploy":
		return fmt.Sprintf(deployTemplate, description, priorOutput(results, "implement", 1000))
	default:
		return fmt.Sprintf("Execute the %s task for: %s", agentKind, description)
	}
}

// priorOutput looks up a prior agent's output, truncating to maxLen runes
// when maxLen >= 0, and substituting "N/A" when the agent has no result yet.
func priorOutput(results map[string]taskstate.AgentResult, kind string, maxLen int) string {
	r, ok := results[kind]
	if !ok || r.Output == "" {
		return naAvailable
	}
	if maxLen < 0 {
		return r.Output
	}
	runes := []rune(r.Output)
	if len(runes) <= maxLen {
		return r.Output
	}
	return string(runes[:maxLen])
}

const conceptTemplate = `Analyze this development task and provide a clear breakdown:

Task: %s

Provide:
1. Clear requirements list
2. User stories (if applicable)
3. Acceptance criteria
4. Scope boundaries

Be concise and actionable.`

const architectTemplate = `Design the technical architecture for this task:

Task: %s

Previous Analysis:
%s

Provide:
1. Component diagram (text-based)
2. Data flow description
3. API contracts (if applicable)
4. Technology recommendations

Be specific about implementation details.`

const implementTemplate = `Generate production-ready code for this task:

Task: %s

Architecture Context:
%s

Requirements:
- Follow best practices
- Include proper error handling
- Add necessary type annotations
- Make code testable

Generate complete, working code.`

const testTemplate = `Create comprehensive tests for this implementation:

Task: %s

Implementation:
%s

Create:
1. Unit tests
2. Integration tests (if applicable)
3. Edge case tests
4. Error handling tests`

const reviewTemplate = `Review this code for quality and best practices:

Task: %s

Code to Review:
%s

Check for:
1. Code quality issues
2. Performance concerns
3. Security vulnerabilities
4. Best practice violations

Provide actionable feedback.`

const securityTemplate = `Perform a security audit on this implementation:

Task: %s

Code to Audit:
%s

Check for:
1. OWASP Top 10 vulnerabilities
2. Input validation issues
3. Authentication/Authorization flaws
4. Data exposure risks`

const optimizeTemplate = `Optimize this code for performance:

Task: %s

Code to Optimize:
%s

Focus on:
1. Algorithm efficiency
2. Memory usage
3. Database queries (if applicable)
4. Caching opportunities`

const docsTemplate = `Generate documentation for this implementation:

Task: %s

Code:
%s

Create:
1. Function/method documentation
2. Usage examples
3. API documentation (if applicable)
4. README content`

const deployTemplate = `Create deployment configuration for this implementation:

Task: %s

Implementation Context:
%s

Provide:
1. Docker configuration (if applicable)
2. CI/CD pipeline steps
3. Environment variables needed
4. Deployment checklist`
