package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.InDelta(t, 0.30, cfg.ScoringWeights.Compilation, 1e-9)
	require.True(t, cfg.ToolConfig.SparseEnabled)
	require.Equal(t, "ollama", cfg.Generator.Provider)
	require.Equal(t, "evaluation_results", cfg.OutputDirectory)
	require.Equal(t, 60, cfg.MaxBuildTimeSeconds)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scoring_weights:
  compilation: 0.5
  static_analysis: 0.2
  security: 0.2
  code_quality: 0.05
  functionality: 0.05
tool_config:
  sparse_enabled: false
  checkpatch_enabled: true
  cppcheck_enabled: true
  custom_rules_enabled: true
  timeout_seconds: 10
generator:
  provider: openai
  model: gpt-4o-mini
max_build_time: 120
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.InDelta(t, 0.5, cfg.ScoringWeights.Compilation, 1e-9)
	require.False(t, cfg.ToolConfig.SparseEnabled)
	require.Equal(t, "openai", cfg.Generator.Provider)
	require.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
	require.Equal(t, 120, cfg.MaxBuildTimeSeconds)
	// untouched fields keep their defaults
	require.Equal(t, "evaluation_results", cfg.OutputDirectory)
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scoring_weights:
  compilation: 0.9
  static_analysis: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sum to 1.0")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LKMBENCH_MODEL", "llama3:8b")
	t.Setenv("LKMBENCH_OUTPUT_DIR", "/tmp/lkm-out")
	t.Setenv("LKMBENCH_MAX_BUILD_TIME", "90")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "llama3:8b", cfg.Generator.Model)
	require.Equal(t, "/tmp/lkm-out", cfg.OutputDirectory)
	require.Equal(t, 90, cfg.MaxBuildTimeSeconds)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Generator.Model = "saved-model"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Generator.Model, loaded.Generator.Model)
	require.Equal(t, cfg.ScoringWeights, loaded.ScoringWeights)
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := Default()
	require.Equal(t, "30s", cfg.ToolTimeout().String())
	require.Equal(t, "1m0s", cfg.BuildTimeout().String())
}
