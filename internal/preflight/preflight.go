package preflight

import (
	"context"

	"wavepipe/internal/config"
	"wavepipe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report combines filesystem/service checks with binary availability.
type Report struct {
	Ready        bool          `json:"ready"`
	Checks       []Result      `json:"checks"`
	Dependencies []deps.Status `json:"dependencies"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	results = append(results, CheckCookies(cfg.Engine.CookiesFile))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	}

	if cfg.Cache.Backend == config.CacheBackendRedis {
		results = append(results, CheckRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB))
	}
	return results
}

// Evaluate runs every check and dependency probe and decides readiness.
// Optional dependencies do not affect readiness.
func Evaluate(ctx context.Context, cfg *config.Config, engine deps.EngineResolver) Report {
	report := Report{
		Checks:       RunAll(ctx, cfg),
		Dependencies: CheckSystemDeps(cfg, engine),
		Ready:        true,
	}
	for _, check := range report.Checks {
		if !check.Passed {
			report.Ready = false
		}
	}
	for _, dep := range report.Dependencies {
		if !dep.Available && !dep.Optional {
			report.Ready = false
		}
	}
	return report
}
