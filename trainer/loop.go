// Package trainer runs the iterative generate-evaluate-feedback loop for a
// single model and test scenario, persisting per-iteration artifacts and a
// terminal trajectory summary.
package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/pkg/metrics"
	"github.com/lkmbench/lkmbench/pkg/store"
	"github.com/lkmbench/lkmbench/pkg/tracing"
	"github.com/lkmbench/lkmbench/prompts"
)

// Config describes one training session.
type Config struct {
	Model        string
	TestType     string
	OutputDir    string
	Iterations   int
	SystemPrompt string
	// IterationsPerSecond throttles the loop; zero disables throttling.
	IterationsPerSecond float64
}

// Loop wires the generator, evaluator and feedback writer into the session
// driver. Store, metrics and tracer are optional.
type Loop struct {
	gen      core.Generator
	eval     core.Evaluator
	feedback core.FeedbackWriter
	store    *store.Store
	limiter  *rate.Limiter
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   *tracing.Tracer
}

// Option customizes the loop.
type Option func(*Loop)

// WithStore persists completed sessions.
func WithStore(s *store.Store) Option {
	return func(l *Loop) { l.store = s }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(l *Loop) { l.tracer = t }
}

// New constructs a training loop. Iterations defaults to 5.
func New(gen core.Generator, eval core.Evaluator, fw core.FeedbackWriter, cfg Config, logger *zap.Logger, opts ...Option) *Loop {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 5
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "results"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.IterationsPerSecond > 0 {
		limit = rate.Limit(cfg.IterationsPerSecond)
	}
	l := &Loop{
		gen:      gen,
		eval:     eval,
		feedback: fw,
		limiter:  rate.NewLimiter(limit, 1),
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the configured number of iterations and returns the summary.
// Iteration artifacts (source, result JSON, feedback text) land under
// OutputDir; feedback is generated for every iteration except the last,
// since there is no next round to consume it.
func (l *Loop) Run(ctx context.Context) (core.TrainingSummary, error) {
	ctx, span := l.tracer.Start(ctx, "training.run")
	defer span.End()

	if err := os.MkdirAll(l.cfg.OutputDir, 0o755); err != nil {
		return core.TrainingSummary{}, fmt.Errorf("create output dir: %w", err)
	}
	scenario := prompts.FindTrainingPrompt(l.cfg.TestType)

	summary := core.TrainingSummary{
		Model:    l.cfg.Model,
		TestType: l.cfg.TestType,
	}
	currentFeedback := ""

	for iteration := 1; iteration <= l.cfg.Iterations; iteration++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("iteration %d: %w", iteration, err)
		}
		ictx, ispan := l.tracer.StartIteration(ctx, l.cfg.Model, iteration)

		prompt := l.buildPrompt(scenario.Prompt, iteration, currentFeedback)
		code := l.gen.Generate(ictx, prompt, l.cfg.Model, l.cfg.SystemPrompt)

		codeFile := filepath.Join(l.cfg.OutputDir, fmt.Sprintf("iteration_%d_%s.c", iteration, l.cfg.TestType))
		if err := os.WriteFile(codeFile, []byte(code), 0o644); err != nil {
			ispan.End()
			return summary, fmt.Errorf("write iteration %d source: %w", iteration, err)
		}

		result, err := l.eval.Evaluate(ictx, codeFile)
		if err != nil {
			l.logger.Warn("evaluation degraded", zap.Int("iteration", iteration), zap.Error(err))
		}

		resultFile := filepath.Join(l.cfg.OutputDir, fmt.Sprintf("iteration_%d_results.json", iteration))
		if err := result.WriteFile(resultFile); err != nil {
			ispan.End()
			return summary, fmt.Errorf("write iteration %d results: %w", iteration, err)
		}

		rec := core.IterationRecord{
			Iteration:          iteration,
			Code:               code,
			Result:             result,
			OverallScore:       result.OverallScore,
			CompilationSuccess: result.Compilation.Success,
			StaticScore:        result.WeightedScores[core.CategoryStaticAnalysis],
			SecurityScore:      result.WeightedScores[core.CategorySecurity],
			QualityScore:       result.WeightedScores[core.CategoryCodeQuality],
			FunctionalityScore: result.WeightedScores[core.CategoryFunctionality],
			MissingFeatures:    scenario.MissingFeatures(code),
			CodeFile:           codeFile,
			ResultFile:         resultFile,
		}
		if len(rec.MissingFeatures) > 0 {
			l.logger.Info("expected features missing",
				zap.Int("iteration", iteration),
				zap.Strings("features", rec.MissingFeatures))
		}

		if iteration < l.cfg.Iterations {
			currentFeedback = l.feedback.Generate(code, result, iteration)
			feedbackFile := filepath.Join(l.cfg.OutputDir, fmt.Sprintf("iteration_%d_feedback.txt", iteration))
			if err := os.WriteFile(feedbackFile, []byte(currentFeedback), 0o644); err != nil {
				ispan.End()
				return summary, fmt.Errorf("write iteration %d feedback: %w", iteration, err)
			}
			rec.Feedback = currentFeedback
			rec.FeedbackFile = feedbackFile
		}

		summary.Iterations = append(summary.Iterations, rec)
		if l.metrics != nil {
			l.metrics.IterationsTotal.Inc()
		}
		l.logger.Info("iteration finished",
			zap.Int("iteration", iteration),
			zap.Float64("overall_score", result.OverallScore),
			zap.Bool("compiled", result.Compilation.Success))
		ispan.End()
	}

	l.summarize(&summary)

	summaryFile := filepath.Join(l.cfg.OutputDir, "training_summary.json")
	if err := summary.WriteFile(summaryFile); err != nil {
		return summary, err
	}
	if l.store != nil {
		if _, err := l.store.SaveSession(summary); err != nil {
			l.logger.Warn("session not persisted", zap.Error(err))
		}
	}
	return summary, nil
}

// buildPrompt prepends nothing on the first round; later rounds carry the
// previous feedback and the fix instructions.
func (l *Loop) buildPrompt(base string, iteration int, feedback string) string {
	if iteration == 1 {
		return base
	}
	return fmt.Sprintf(`%s

PREVIOUS ITERATION FEEDBACK:
%s

Please fix ALL the issues mentioned in the feedback above.
Pay special attention to:
1. Compilation errors
2. Correct API usage for character devices
3. Proper error handling
4. Linux kernel coding style

Return only the corrected C code, no explanations.`, base, feedback)
}

// summarize derives the trajectory fields: improvement is last minus first,
// first successful compilation is a 0-based index (nil when none compiled),
// best iteration is 1-based and breaks ties toward the earliest round.
func (l *Loop) summarize(summary *core.TrainingSummary) {
	if len(summary.Iterations) == 0 {
		return
	}
	first := summary.Iterations[0]
	last := summary.Iterations[len(summary.Iterations)-1]
	summary.Improvement = last.OverallScore - first.OverallScore

	for i, rec := range summary.Iterations {
		if rec.CompilationSuccess {
			idx := i
			summary.FirstSuccessfulCompilation = &idx
			break
		}
	}

	best := 0
	for i, rec := range summary.Iterations {
		if rec.OverallScore > summary.Iterations[best].OverallScore {
			best = i
		}
	}
	summary.BestIteration = summary.Iterations[best].Iteration

	if summary.FirstSuccessfulCompilation != nil {
		l.logger.Info("first successful compilation",
			zap.Int("iteration", *summary.FirstSuccessfulCompilation+1))
	} else {
		l.logger.Info("no successful compilations achieved")
	}
	l.logger.Info("training session finished",
		zap.Float64("improvement", summary.Improvement),
		zap.Int("best_iteration", summary.BestIteration))
}
