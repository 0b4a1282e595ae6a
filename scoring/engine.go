package scoring

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lkmbench/lkmbench/analyzer"
	"github.com/lkmbench/lkmbench/buildtest"
	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/pkg/cache"
	"github.com/lkmbench/lkmbench/pkg/metrics"
	"github.com/lkmbench/lkmbench/pkg/tracing"
	"github.com/lkmbench/lkmbench/rules"
)

// Heuristics holds the fixed fallback values for sub-metrics that have no
// text-derived computation. They are configuration, not logic, so callers
// can tune them per deployment.
type Heuristics struct {
	StyleCompliance         float64
	InputValidationScore    float64
	PrivilegeEscalationRisk float64
	EdgeCaseHandling        float64
	APICorrectness          float64
}

// DefaultHeuristics matches the reference values.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		StyleCompliance:         0.8,
		InputValidationScore:    0.8,
		PrivilegeEscalationRisk: 0.1,
		EdgeCaseHandling:        0.6,
		APICorrectness:          0.7,
	}
}

// Engine is the single entry point for evaluating one source file across
// all metric categories and merging them into a weighted overall score.
type Engine struct {
	analyzer *analyzer.Analyzer
	builder  *buildtest.Tester
	weights  core.ScoringWeights
	heur     Heuristics
	cache    *cache.ResultCache
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
}

// Option customizes the engine.
type Option func(*Engine)

// WithCache memoizes results by source hash.
func WithCache(c *cache.ResultCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithHeuristics overrides the fixed sub-metric values.
func WithHeuristics(h Heuristics) Option {
	return func(e *Engine) { e.heur = h }
}

// New constructs an engine. The weights must already be validated; New
// refuses an invalid partition rather than producing corrupt scores.
func New(a *analyzer.Analyzer, b *buildtest.Tester, weights core.ScoringWeights, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if a == nil {
		a = analyzer.New(rules.NewEngine(nil, logger), analyzer.DefaultConfig(), logger)
	}
	if b == nil {
		b = buildtest.New(buildtest.DefaultConfig(), logger)
	}
	e := &Engine{
		analyzer: a,
		builder:  b,
		weights:  weights,
		heur:     DefaultHeuristics(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate scores the file at codePath. The returned error is non-nil only
// when the file cannot be read; even then a complete, worst-case-safe result
// is returned so downstream logic never branches on evaluation failure.
// Each category evaluator is fault-isolated: a panic in one is recovered,
// logged and replaced by that category's degraded default.
func (e *Engine) Evaluate(ctx context.Context, codePath string) (core.EvaluationResult, error) {
	ctx, span := e.tracer.StartEvaluation(ctx, codePath)
	defer span.End()
	start := time.Now()

	raw, readErr := os.ReadFile(codePath)
	code := string(raw)

	if readErr != nil {
		// worst-case-safe degraded result: every category scores zero
		e.logger.Warn("candidate source unreadable", zap.String("path", codePath), zap.Error(readErr))
		result := core.EvaluationResult{
			Compilation:    core.CompilationMetrics{Success: false, ErrorCount: 1},
			WeightedScores: make(map[string]float64, len(core.Categories)),
		}
		for _, category := range core.Categories {
			result.WeightedScores[category] = 0
		}
		return result, fmt.Errorf("read candidate source: %w", readErr)
	}

	if cached, ok := e.cache.Get(cache.Key(raw)); ok {
		e.logger.Debug("evaluation cache hit", zap.String("path", codePath))
		return cached, nil
	}

	var result core.EvaluationResult

	e.guard("compilation", func() {
		result.Compilation = e.builder.Test(ctx, codePath)
	})
	e.guard("static_analysis", func() {
		result.StaticAnalysis = e.analyzer.Analyze(ctx, codePath, code)
	})
	e.guard("security", func() {
		result.Security = e.evaluateSecurity(code)
	})
	e.guard("code_quality", func() {
		result.CodeQuality = e.evaluateCodeQuality(code)
	})
	e.guard("functionality", func() {
		result.Functionality = e.evaluateFunctionality(code)
	})

	result.WeightedScores = e.weightedScores(result)
	for _, v := range result.WeightedScores {
		result.OverallScore += v
	}

	if e.metrics != nil {
		e.metrics.EvaluationsTotal.Inc()
		e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		e.metrics.OverallScore.Observe(result.OverallScore)
		buildResult := "failure"
		if result.Compilation.Success {
			buildResult = "success"
		}
		e.metrics.BuildsTotal.WithLabelValues(buildResult).Inc()
		e.metrics.BuildDuration.Observe(result.Compilation.BuildTime)
	}
	e.logger.Info("evaluation finished",
		zap.String("path", codePath),
		zap.Float64("overall_score", result.OverallScore),
		zap.Bool("compiled", result.Compilation.Success))

	e.cache.Add(cache.Key(raw), result)
	return result, nil
}

// guard fault-isolates one category evaluator.
func (e *Engine) guard(category string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("category evaluator panicked, using degraded defaults",
				zap.String("category", category),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (e *Engine) evaluateSecurity(code string) core.SecurityMetrics {
	risks := e.analyzer.RuleEngine().SecurityRisks(code)
	return core.SecurityMetrics{
		BufferSafetyScore:       1.0 - risks[rules.RiskBufferOverflow],
		MemoryLeakRisk:          risks[rules.RiskMemoryLeak],
		RaceConditionRisk:       risks[rules.RiskRaceConditions],
		InputValidationScore:    e.heur.InputValidationScore,
		PrivilegeEscalationRisk: e.heur.PrivilegeEscalationRisk,
	}
}

var functionBodyPattern = regexp.MustCompile(`(?s)\b[a-zA-Z_][a-zA-Z0-9_]*\s*\([^)]*\)\s*\{.*?\n\}`)

func (e *Engine) evaluateCodeQuality(code string) core.CodeQualityMetrics {
	lines := strings.Split(code, "\n")
	totalLines := len(lines)
	commentLines := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		// block-comment bodies count via the bare asterisk test
		if strings.HasPrefix(trimmed, "//") || strings.Contains(line, "*") {
			commentLines++
		}
	}
	denominator := totalLines
	if denominator < 1 {
		denominator = 1
	}

	avgFuncLength := 0.0
	if bodies := functionBodyPattern.FindAllString(code, -1); len(bodies) > 0 {
		total := 0
		for _, b := range bodies {
			total += len(strings.Split(b, "\n"))
		}
		avgFuncLength = float64(total) / float64(len(bodies))
	}

	return core.CodeQualityMetrics{
		StyleCompliance:      e.heur.StyleCompliance,
		CyclomaticComplexity: e.analyzer.CyclomaticComplexity(code),
		FunctionLengthAvg:    avgFuncLength,
		CommentRatio:         float64(commentLines) / float64(denominator),
		MaintainabilityIndex: e.analyzer.MaintainabilityIndex(code),
	}
}

var (
	errorReturnPattern = regexp.MustCompile(`return\s+-\w+`)
	returnPattern      = regexp.MustCompile(`\breturn\b`)
)

// evaluateFunctionality applies substring presence checks over the
// lower-cased source: a capability keyword together with its structural
// marker. basic_operations_score is the satisfied fraction of the four
// checks; error_handling_score is the negative-errno share of all returns.
func (e *Engine) evaluateFunctionality(code string) core.FunctionalityMetrics {
	lower := strings.ToLower(code)
	hasFops := strings.Contains(lower, "file_operations")
	checks := []bool{
		strings.Contains(lower, "read") && hasFops,
		strings.Contains(lower, "write") && hasFops,
		strings.Contains(lower, "open"),
		strings.Contains(lower, "release"),
	}
	satisfied := 0
	for _, ok := range checks {
		if ok {
			satisfied++
		}
	}

	returns := len(returnPattern.FindAllStringIndex(code, -1))
	if returns < 1 {
		returns = 1
	}
	errorReturns := len(errorReturnPattern.FindAllStringIndex(code, -1))

	return core.FunctionalityMetrics{
		BasicOperationsScore: float64(satisfied) / 4.0,
		ErrorHandlingScore:   float64(errorReturns) / float64(returns),
		EdgeCaseHandling:     e.heur.EdgeCaseHandling,
		APICorrectness:       e.heur.APICorrectness,
	}
}

// weightedScores reproduces the reference aggregation exactly. Static
// penalty uses a fixed denominator of 100; security averages only buffer
// safety and input validation; the comment-ratio term saturates at 20%
// density; functionality is the basic-operations score alone.
func (e *Engine) weightedScores(r core.EvaluationResult) map[string]float64 {
	compilationScore := 0.0
	if r.Compilation.Success {
		compilationScore = 1.0
	}

	staticScore := math.Max(0, 1.0-float64(r.StaticAnalysis.SparseIssues+r.StaticAnalysis.CheckpatchViolations)/100.0)
	securityScore := (r.Security.BufferSafetyScore + r.Security.InputValidationScore) / 2.0
	qualityScore := (r.CodeQuality.MaintainabilityIndex + math.Min(r.CodeQuality.CommentRatio*5, 1.0)) / 2.0
	funcScore := r.Functionality.BasicOperationsScore

	w := e.weights
	return map[string]float64{
		core.CategoryCompilation:    compilationScore * w.Compilation,
		core.CategoryStaticAnalysis: staticScore * w.StaticAnalysis,
		core.CategorySecurity:       securityScore * w.Security,
		core.CategoryCodeQuality:    qualityScore * w.CodeQuality,
		core.CategoryFunctionality:  funcScore * w.Functionality,
	}
}
