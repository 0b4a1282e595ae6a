// Package arena runs the multi-model evaluation matrix: every model against
// every driver type and complexity level, aggregated into a comparison
// report.
package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/prompts"
	"github.com/lkmbench/lkmbench/scoring"
)

// Config shapes the matrix. Empty slices fall back to the reference set.
type Config struct {
	Models       []string
	DriverTypes  []string
	Complexities []string
	OutputDir    string
	SystemPrompt string
	// Parallel evaluates models concurrently; the evaluation toolchain must
	// tolerate concurrent builds for this to be safe.
	Parallel bool
}

// Runner executes the matrix.
type Runner struct {
	gen    core.Generator
	eval   core.Evaluator
	cfg    Config
	logger *zap.Logger
}

// ModelSummary aggregates one model's results over the whole matrix.
type ModelSummary struct {
	Model                  string  `json:"model"`
	AvgScore               float64 `json:"avg_score"`
	MaxScore               float64 `json:"max_score"`
	MinScore               float64 `json:"min_score"`
	CompilationSuccessRate float64 `json:"compilation_success_rate"`
	TotalTests             int     `json:"total_tests"`
}

// Report is the persisted comparison document.
type Report struct {
	Summary            []ModelSummary     `json:"summary"`
	DetailedComparison scoring.Comparison `json:"detailed_comparison"`
	Timestamp          float64            `json:"timestamp"`
}

// New constructs a runner with reference defaults for any unset matrix axis.
func New(gen core.Generator, eval core.Evaluator, cfg Config, logger *zap.Logger) *Runner {
	if len(cfg.DriverTypes) == 0 {
		cfg.DriverTypes = []string{prompts.CharacterDevice, prompts.BlockDevice, prompts.NetworkDevice}
	}
	if len(cfg.Complexities) == 0 {
		cfg.Complexities = []string{prompts.ComplexityBasic, prompts.ComplexityIntermediate}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "evaluation_results"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{gen: gen, eval: eval, cfg: cfg, logger: logger}
}

// Run evaluates the whole matrix and writes comparison_report.json under the
// output directory. A single failed cell is logged and skipped; only setup
// errors abort the run.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}

	perModel := make([][]scoring.ModelResult, len(r.cfg.Models))

	if r.cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, model := range r.cfg.Models {
			g.Go(func() error {
				results, err := r.evaluateModel(gctx, model)
				perModel[i] = results
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return Report{}, err
		}
	} else {
		for i, model := range r.cfg.Models {
			results, err := r.evaluateModel(ctx, model)
			if err != nil {
				return Report{}, err
			}
			perModel[i] = results
		}
	}

	var all []scoring.ModelResult
	summaries := make([]ModelSummary, 0, len(r.cfg.Models))
	for i, model := range r.cfg.Models {
		results := perModel[i]
		all = append(all, results...)
		if len(results) == 0 {
			continue
		}
		summaries = append(summaries, summarizeModel(model, results))
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AvgScore > summaries[j].AvgScore
	})

	report := Report{
		Summary:            summaries,
		DetailedComparison: scoring.CompareModels(all),
		Timestamp:          float64(time.Now().UnixNano()) / float64(time.Second),
	}
	if err := writeReport(filepath.Join(r.cfg.OutputDir, "comparison_report.json"), report); err != nil {
		return Report{}, err
	}
	return report, nil
}

// evaluateModel runs one model through every matrix cell.
func (r *Runner) evaluateModel(ctx context.Context, model string) ([]scoring.ModelResult, error) {
	var results []scoring.ModelResult
	for _, driverType := range r.cfg.DriverTypes {
		for _, complexity := range r.cfg.Complexities {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			result, err := r.evaluateCell(ctx, model, driverType, complexity)
			if err != nil {
				r.logger.Warn("matrix cell failed",
					zap.String("model", model),
					zap.String("driver_type", driverType),
					zap.String("complexity", complexity),
					zap.Error(err))
				continue
			}
			results = append(results, scoring.ModelResult{Model: model, Result: result})
		}
	}
	return results, nil
}

func (r *Runner) evaluateCell(ctx context.Context, model, driverType, complexity string) (core.EvaluationResult, error) {
	prompt, err := prompts.Build(driverType, complexity, prompts.DefaultParams())
	if err != nil {
		return core.EvaluationResult{}, err
	}
	code := r.gen.Generate(ctx, prompt, model, r.cfg.SystemPrompt)

	testID := fmt.Sprintf("%s_%s_%s_%d", sanitize(model), driverType, complexity, time.Now().Unix())
	codeFile := filepath.Join(r.cfg.OutputDir, testID+"_generated.c")
	if err := os.WriteFile(codeFile, []byte(code), 0o644); err != nil {
		return core.EvaluationResult{}, fmt.Errorf("write generated source: %w", err)
	}

	result, err := r.eval.Evaluate(ctx, codeFile)
	if err != nil {
		return result, err
	}
	if err := result.WriteFile(filepath.Join(r.cfg.OutputDir, testID+"_results.json")); err != nil {
		return result, err
	}
	r.logger.Info("matrix cell finished",
		zap.String("model", model),
		zap.String("driver_type", driverType),
		zap.String("complexity", complexity),
		zap.Float64("overall_score", result.OverallScore),
		zap.Bool("compiled", result.Compilation.Success))
	return result, nil
}

func summarizeModel(model string, results []scoring.ModelResult) ModelSummary {
	s := ModelSummary{
		Model:      model,
		MaxScore:   results[0].Result.OverallScore,
		MinScore:   results[0].Result.OverallScore,
		TotalTests: len(results),
	}
	sum := 0.0
	compiled := 0
	for _, mr := range results {
		score := mr.Result.OverallScore
		sum += score
		if score > s.MaxScore {
			s.MaxScore = score
		}
		if score < s.MinScore {
			s.MinScore = score
		}
		if mr.Result.Compilation.Success {
			compiled++
		}
	}
	s.AvgScore = sum / float64(len(results))
	s.CompilationSuccessRate = float64(compiled) / float64(len(results))
	return s
}

// sanitize keeps model names filesystem-safe: tags like "qwen2.5:latest"
// carry a colon.
func sanitize(model string) string {
	out := []rune(model)
	for i, c := range out {
		switch c {
		case ':', '/', '\\', ' ':
			out[i] = '_'
		}
	}
	return string(out)
}

func writeReport(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal comparison report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write comparison report: %w", err)
	}
	return nil
}
