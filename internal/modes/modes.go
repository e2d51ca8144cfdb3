// Package modes provides the read-only mode registry: named presets of
// decomposition depth, parallelization level, required/optional agents, and
// primary/fallback model selection.
package modes

import "github.com/orcforge/engine/internal/orcerr"

// DecompositionDepth controls how the Decomposer groups agents into phases.
type DecompositionDepth string

const (
	DepthShallow DecompositionDepth = "shallow"
	DepthDeep    DecompositionDepth = "deep"
)

// ParallelizationLevel influences whether a shallow decomposition runs its
// single phase in parallel.
type ParallelizationLevel string

const (
	ParallelizationConservative ParallelizationLevel = "conservative"
	ParallelizationBalanced     ParallelizationLevel = "balanced"
	ParallelizationAggressive   ParallelizationLevel = "aggressive"
)

// ModelRef names a provider and the model to request from it.
type ModelRef struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
}

// Config is a read-only mode preset.
type Config struct {
	Name                 string                `json:"name" yaml:"name"`
	DecompositionDepth   DecompositionDepth    `json:"decomposition_depth" yaml:"decomposition_depth"`
	ParallelizationLevel ParallelizationLevel  `json:"parallelization_level" yaml:"parallelization_level"`
	PrimaryModel         ModelRef              `json:"primary_model" yaml:"primary_model"`
	FallbackModel        ModelRef              `json:"fallback_model" yaml:"fallback_model"`
	RequiredAgents       []string              `json:"required_agents" yaml:"required_agents"`
	OptionalAgents       []string              `json:"optional_agents" yaml:"optional_agents"`
	TaskTimeoutMs        int64                 `json:"task_timeout_ms" yaml:"task_timeout_ms"`
	MaxRetries           int                   `json:"max_retries" yaml:"max_retries"`
	CostLimit            *float64              `json:"cost_limit,omitempty" yaml:"cost_limit,omitempty"`
}

// Clone returns a copy of the config safe to hand to a caller.
func (c Config) Clone() Config {
	cp := c
	cp.RequiredAgents = append([]string{}, c.RequiredAgents...)
	cp.OptionalAgents = append([]string{}, c.OptionalAgents...)
	if c.CostLimit != nil {
		limit := *c.CostLimit
		cp.CostLimit = &limit
	}
	return cp
}

// Registry is a read-only lookup from mode name to mode config.
type Registry struct {
	configs map[string]Config
}

// NewRegistry builds a registry from a set of configs, keyed by Config.Name.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{configs: make(map[string]Config, len(configs))}
	for _, c := range configs {
		r.configs[c.Name] = c
	}
	return r
}

// Get returns the named mode's config and whether it was found.
func (r *Registry) Get(name string) (Config, bool) {
	c, ok := r.configs[name]
	if !ok {
		return Config{}, false
	}
	return c.Clone(), true
}

// MustGet returns the named mode's config or an UnknownMode error.
func (r *Registry) MustGet(name string) (Config, error) {
	c, ok := r.Get(name)
	if !ok {
		return Config{}, orcerr.UnknownMode(name)
	}
	return c, nil
}

// Names returns all registered mode names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for n := range r.configs {
		names = append(names, n)
	}
	return names
}
