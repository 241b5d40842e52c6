package preflight

import (
	"context"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks gated by configuration are skipped when the feature is off.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	results = append(results, CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir))
	results = append(results, CheckRendererBinary(cfg.Renderer.Binary))

	if cfg.Renderer.MinFreeGiB > 0 {
		results = append(results, CheckFreeSpace(cfg.Paths.WorkspaceDir, cfg.Renderer.MinFreeGiB))
	}

	if cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, cfg.LLM))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
