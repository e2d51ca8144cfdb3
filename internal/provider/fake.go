package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeProvider is a deterministic, configurable test double for Provider.
// It never makes network calls; it is used to drive the concurrency and
// cancellation scenarios from spec.md §8 without a real model backend.
type FakeProvider struct {
	mu sync.Mutex

	// Latency is slept before returning, honoring ctx cancellation.
	Latency time.Duration

	// FailNext forces the next Generate call to fail, then resets itself.
	// The error returned is FailWith, or a generic error when FailWith is nil.
	FailNext bool
	FailWith error

	calls []string
}

// NewFakeProvider returns a FakeProvider with no latency and no failures.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// Generate implements Provider. It returns a result whose content echoes
// the prompt length, with deterministic token/cost figures, honoring
// context cancellation during the configured latency.
func (f *FakeProvider) Generate(ctx context.Context, prompt string, params Params) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	fail := f.FailNext
	f.FailNext = false
	failErr := f.FailWith
	latency := f.Latency
	f.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if fail {
		if failErr == nil {
			failErr = fmt.Errorf("fake provider: forced failure")
		}
		return Result{}, failErr
	}

	tokensIn := len(prompt) / 4
	if tokensIn == 0 {
		tokensIn = 1
	}
	tokensOut := tokensIn / 2
	if tokensOut == 0 {
		tokensOut = 1
	}

	return Result{
		Content:      fmt.Sprintf("fake response (%d chars of prompt)", len(prompt)),
		Model:        params.Model,
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
		Cost:         calculateCloudCost(params.Model, tokensIn, tokensOut),
		Duration:     latency,
		FinishReason: "stop",
	}, nil
}

// CallCount returns how many times Generate has been invoked.
func (f *FakeProvider) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
