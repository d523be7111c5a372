package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.RosterCacheDir = filepath.Join(base, "roster-cache")
	cfg.Providers.SimulateAll = true
	cfg.Workflow.Workers = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithGuardrail overrides the guardrail policy on the test config.
func WithGuardrail(maxWords int, mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Guardrails.MaxWords = maxWords
		cfg.Guardrails.Mode = mode
	}
}

// WithUnavailable marks an entity as blocked in the simulated roster source.
func WithUnavailable(entity, status string) ConfigOption {
	return func(cfg *config.Config) {
		if cfg.Roster.Unavailable == nil {
			cfg.Roster.Unavailable = make(map[string]string)
		}
		cfg.Roster.Unavailable[entity] = status
	}
}

// WithWorkers overrides the batch worker count.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.Workers = workers
	}
}
