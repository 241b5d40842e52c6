package provider

import (
	"context"

	"reelforge/internal/config"
)

// CodeProvider generates renderable scene source for a natural-language
// query. previousSource, when non-empty, is the prior version's generated
// source and seeds iterative refinement.
type CodeProvider interface {
	GenerateSource(ctx context.Context, query, previousSource string) (string, error)
}

// FromConfig selects the LLM-backed provider when an API key is configured
// and the deterministic simulated provider otherwise.
func FromConfig(cfg *config.Config) CodeProvider {
	if cfg != nil && cfg.LLM.APIKey != "" {
		return NewLLMProvider(cfg.LLM)
	}
	return NewSimulated()
}
