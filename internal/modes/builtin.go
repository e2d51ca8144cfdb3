package modes

// ptr is a small helper for building *float64 literals inline.
func ptr(f float64) *float64 { return &f }

// Builtin returns the registry bootstrapped with the four standard modes
// (spec.md §6): SPEED, QUALITY, AUTONOMY, COST. Field values are carried
// over from the reference implementation this module was distilled from.
func Builtin() *Registry {
	return NewRegistry(
		Config{
			Name:                 "SPEED",
			DecompositionDepth:   DepthShallow,
			ParallelizationLevel: ParallelizationAggressive,
			PrimaryModel:         ModelRef{Provider: "cloud", Model: "claude-3-5-sonnet-20241022"},
			FallbackModel:        ModelRef{Provider: "local", Model: "codellama:7b"},
			RequiredAgents:       []string{"implement"},
			OptionalAgents:       nil,
			TaskTimeoutMs:        300_000,
			MaxRetries:           1,
		},
		Config{
			Name:                 "QUALITY",
			DecompositionDepth:   DepthDeep,
			ParallelizationLevel: ParallelizationBalanced,
			PrimaryModel:         ModelRef{Provider: "cloud", Model: "claude-opus-4-5-20251101"},
			FallbackModel:        ModelRef{Provider: "cloud", Model: "claude-3-5-sonnet-20241022"},
			RequiredAgents:       []string{"concept", "architect", "implement", "test", "review", "docs"},
			OptionalAgents:       []string{"security", "optimize"},
			TaskTimeoutMs:        900_000,
			MaxRetries:           3,
		},
		Config{
			Name:                 "AUTONOMY",
			DecompositionDepth:   DepthDeep,
			ParallelizationLevel: ParallelizationBalanced,
			PrimaryModel:         ModelRef{Provider: "cloud", Model: "claude-opus-4-5-20251101"},
			FallbackModel:        ModelRef{Provider: "cloud", Model: "claude-3-5-sonnet-20241022"},
			RequiredAgents:       []string{"concept", "architect", "implement", "test", "review", "docs", "deploy"},
			OptionalAgents:       []string{"security", "optimize"},
			TaskTimeoutMs:        1_200_000,
			MaxRetries:           3,
		},
		Config{
			Name:                 "COST",
			DecompositionDepth:   DepthShallow,
			ParallelizationLevel: ParallelizationConservative,
			PrimaryModel:         ModelRef{Provider: "local", Model: "codellama:7b"},
			FallbackModel:        ModelRef{Provider: "cloud", Model: "claude-3-5-haiku-20241022"},
			RequiredAgents:       []string{"implement", "test"},
			OptionalAgents:       nil,
			TaskTimeoutMs:        600_000,
			MaxRetries:           2,
			CostLimit:            ptr(1.0),
		},
	)
}
