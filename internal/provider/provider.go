// Package provider defines the uniform capability to turn a prompt + model
// + parameters into a structured generation result, and the cloud/local
// adapter variants that implement it against an OpenAI-compatible wire
// protocol (spec.md §6 "Provider interface").
package provider

import (
	"context"
	"time"
)

// Params carries the optional per-call generation parameters.
type Params struct {
	Model       string
	System      string
	Temperature float32
	MaxTokens   int
}

// Result is the structured outcome of a single generate call.
type Result struct {
	Content      string
	Model        string
	TokensInput  int
	TokensOutput int
	Cost         float64
	Duration     time.Duration
	FinishReason string
}

// Provider turns a prompt into a structured result or an error.
type Provider interface {
	Generate(ctx context.Context, prompt string, params Params) (Result, error)
}

// Registry resolves a provider by name ("cloud", "local", ...), mirroring
// spec.md §6: "provider selection is performed by the adapter registry".
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from a name -> Provider map.
func NewRegistry(providers map[string]Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for name, p := range providers {
		r.providers[name] = p
	}
	return r
}

// Get resolves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}
