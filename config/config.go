// Package config loads the evaluation configuration from YAML with
// environment overrides for deployment-specific settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lkmbench/lkmbench/core"
)

// ToolConfig selects the external static analysis tools.
type ToolConfig struct {
	SparseEnabled      bool   `yaml:"sparse_enabled"`
	CheckpatchEnabled  bool   `yaml:"checkpatch_enabled"`
	CppcheckEnabled    bool   `yaml:"cppcheck_enabled"`
	CustomRulesEnabled bool   `yaml:"custom_rules_enabled"`
	CheckpatchScript   string `yaml:"checkpatch_script"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

// GeneratorConfig selects the code generation backend.
type GeneratorConfig struct {
	Provider string `yaml:"provider"` // ollama, openai or mock
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// Config is the full evaluation configuration.
type Config struct {
	ScoringWeights           core.ScoringWeights `yaml:"scoring_weights"`
	ToolConfig               ToolConfig          `yaml:"tool_config"`
	Generator                GeneratorConfig     `yaml:"generator"`
	OutputDirectory          string              `yaml:"output_directory"`
	KernelHeadersPath        string              `yaml:"kernel_headers_path"`
	MaxBuildTimeSeconds      int                 `yaml:"max_build_time"`
	EnableParallelEvaluation bool                `yaml:"enable_parallel_evaluation"`
	IterationDelaySeconds    float64             `yaml:"iteration_delay_seconds"`
	DatabasePath             string              `yaml:"database_path"`
	MetricsAddr              string              `yaml:"metrics_addr"`
	JaegerEndpoint           string              `yaml:"jaeger_endpoint"`
	LogLevel                 string              `yaml:"log_level"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		ScoringWeights: core.DefaultWeights(),
		ToolConfig: ToolConfig{
			SparseEnabled:      true,
			CheckpatchEnabled:  true,
			CppcheckEnabled:    true,
			CustomRulesEnabled: true,
			CheckpatchScript:   "checkpatch.pl",
			TimeoutSeconds:     30,
		},
		Generator: GeneratorConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "qwen2.5:latest",
		},
		OutputDirectory:          "evaluation_results",
		KernelHeadersPath:        "/lib/modules/$(shell uname -r)/build",
		MaxBuildTimeSeconds:      60,
		EnableParallelEvaluation: true,
		IterationDelaySeconds:    1,
		DatabasePath:             "lkmbench.db",
		LogLevel:                 "info",
	}
}

// Load reads the configuration from path, falling back to defaults when the
// file is absent, then applies environment overrides. Invalid weights make
// the whole load fail rather than silently corrupting every score.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.ScoringWeights.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ToolTimeout converts the configured seconds into a duration.
func (c Config) ToolTimeout() time.Duration {
	return time.Duration(c.ToolConfig.TimeoutSeconds) * time.Second
}

// BuildTimeout converts the configured seconds into a duration.
func (c Config) BuildTimeout() time.Duration {
	return time.Duration(c.MaxBuildTimeSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	cfg.Generator.Provider = getEnv("LKMBENCH_PROVIDER", cfg.Generator.Provider)
	cfg.Generator.BaseURL = getEnv("LKMBENCH_BASE_URL", cfg.Generator.BaseURL)
	cfg.Generator.APIKey = getEnv("LKMBENCH_API_KEY", cfg.Generator.APIKey)
	cfg.Generator.Model = getEnv("LKMBENCH_MODEL", cfg.Generator.Model)
	cfg.OutputDirectory = getEnv("LKMBENCH_OUTPUT_DIR", cfg.OutputDirectory)
	cfg.DatabasePath = getEnv("LKMBENCH_DB_PATH", cfg.DatabasePath)
	cfg.MetricsAddr = getEnv("LKMBENCH_METRICS_ADDR", cfg.MetricsAddr)
	cfg.JaegerEndpoint = getEnv("LKMBENCH_JAEGER_ENDPOINT", cfg.JaegerEndpoint)
	cfg.LogLevel = getEnv("LKMBENCH_LOG_LEVEL", cfg.LogLevel)
	cfg.MaxBuildTimeSeconds = getEnvInt("LKMBENCH_MAX_BUILD_TIME", cfg.MaxBuildTimeSeconds)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
