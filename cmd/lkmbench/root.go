package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lkmbench/lkmbench/analyzer"
	"github.com/lkmbench/lkmbench/buildtest"
	"github.com/lkmbench/lkmbench/config"
	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/pkg/cache"
	"github.com/lkmbench/lkmbench/pkg/llm"
	"github.com/lkmbench/lkmbench/pkg/logging"
	"github.com/lkmbench/lkmbench/pkg/metrics"
	"github.com/lkmbench/lkmbench/pkg/tracing"
	"github.com/lkmbench/lkmbench/scoring"
)

var (
	cfgFile      string
	flagLogLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lkmbench",
		Short:         "Evaluation pipeline for machine-generated kernel module code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "lkmbench.yaml", "config file path")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override configured log level")

	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newTrainCmd())
	root.AddCommand(newArenaCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newInitConfigCmd())
	return root
}

// app bundles the shared runtime pieces each command needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := logging.New(logging.Config{Level: level})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.MetricsAddr != "" {
		a.metrics = metrics.New(prometheus.DefaultRegisterer)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	if cfg.JaegerEndpoint != "" {
		tracer, err := tracing.NewTracer(tracing.Config{
			ServiceName:    "lkmbench",
			JaegerEndpoint: cfg.JaegerEndpoint,
		})
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			a.tracer = tracer
		}
	}
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newEngine wires the scoring engine from the loaded configuration.
func (a *app) newEngine() (*scoring.Engine, error) {
	an := analyzer.New(nil, analyzer.Config{
		SparseEnabled:     a.cfg.ToolConfig.SparseEnabled,
		CheckpatchEnabled: a.cfg.ToolConfig.CheckpatchEnabled,
		CppcheckEnabled:   a.cfg.ToolConfig.CppcheckEnabled,
		CheckpatchScript:  a.cfg.ToolConfig.CheckpatchScript,
		Timeout:           a.cfg.ToolTimeout(),
	}, a.logger)
	bt := buildtest.New(buildtest.Config{
		KernelHeadersPath: a.cfg.KernelHeadersPath,
		Timeout:           a.cfg.BuildTimeout(),
	}, a.logger)

	resultCache, err := cache.New(256)
	if err != nil {
		return nil, err
	}

	opts := []scoring.Option{scoring.WithCache(resultCache)}
	if a.metrics != nil {
		opts = append(opts, scoring.WithMetrics(a.metrics))
	}
	if a.tracer != nil {
		opts = append(opts, scoring.WithTracer(a.tracer))
	}
	return scoring.New(an, bt, a.cfg.ScoringWeights, a.logger, opts...)
}

// newGenerator wires the configured generation backend.
func (a *app) newGenerator() (core.Generator, error) {
	var provider llm.Provider
	switch a.cfg.Generator.Provider {
	case "ollama":
		provider = llm.NewOllamaProvider(a.cfg.Generator.BaseURL)
	case "openai":
		provider = llm.NewOpenAIProvider(a.cfg.Generator.BaseURL, a.cfg.Generator.APIKey)
	case "mock":
		provider = llm.NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", a.cfg.Generator.Provider)
	}

	var opts []llm.ClientOption
	if a.metrics != nil {
		opts = append(opts, llm.WithMetrics(a.metrics))
	}
	return llm.NewClient(provider, a.logger, opts...), nil
}
