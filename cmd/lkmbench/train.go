package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/feedback"
	"github.com/lkmbench/lkmbench/pkg/store"
	"github.com/lkmbench/lkmbench/prompts"
	"github.com/lkmbench/lkmbench/trainer"
)

var (
	flagTrainModel      string
	flagTrainTest       string
	flagTrainIterations int
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run the iterative generate-evaluate-feedback loop",
		RunE:  runTrain,
	}
	cmd.Flags().StringVar(&flagTrainModel, "model", "", "model to train (default from config)")
	cmd.Flags().StringVar(&flagTrainTest, "test", "simple_char_driver", "training scenario")
	cmd.Flags().IntVar(&flagTrainIterations, "iterations", 5, "number of iterations")
	return cmd
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.newEngine()
	if err != nil {
		return err
	}
	gen, err := a.newGenerator()
	if err != nil {
		return err
	}

	model := flagTrainModel
	if model == "" {
		model = a.cfg.Generator.Model
	}

	var opts []trainer.Option
	if a.cfg.DatabasePath != "" {
		s, err := store.Open(a.cfg.DatabasePath)
		if err != nil {
			a.logger.Warn("session store unavailable", zap.Error(err))
		} else {
			defer s.Close()
			opts = append(opts, trainer.WithStore(s))
		}
	}
	if a.metrics != nil {
		opts = append(opts, trainer.WithMetrics(a.metrics))
	}
	if a.tracer != nil {
		opts = append(opts, trainer.WithTracer(a.tracer))
	}

	perSecond := 0.0
	if a.cfg.IterationDelaySeconds > 0 {
		perSecond = 1.0 / a.cfg.IterationDelaySeconds
	}
	loop := trainer.New(gen, engine, feedback.New(), trainer.Config{
		Model:               model,
		TestType:            flagTrainTest,
		OutputDir:           a.cfg.OutputDirectory,
		Iterations:          flagTrainIterations,
		SystemPrompt:        prompts.KernelStandards("kernel_standards.txt"),
		IterationsPerSecond: perSecond,
	}, a.logger, opts...)

	summary, err := loop.Run(context.Background())
	if err != nil {
		return err
	}

	printSummary(summary)
	printFeatureAnalysis(prompts.FindTrainingPrompt(flagTrainTest), summary)
	return nil
}

// printFeatureAnalysis reports the expected-feature checklist for the final
// generated code.
func printFeatureAnalysis(scenario prompts.TrainingPrompt, summary core.TrainingSummary) {
	if len(summary.Iterations) == 0 {
		return
	}
	last := summary.Iterations[len(summary.Iterations)-1]
	missing := make(map[string]bool, len(last.MissingFeatures))
	for _, feature := range last.MissingFeatures {
		missing[feature] = true
	}
	fmt.Println("\nFEATURE ANALYSIS:")
	for _, feature := range scenario.ExpectedFeatures {
		mark := "found"
		if missing[feature] {
			mark = "missing"
		}
		fmt.Printf("  %s: %s\n", feature, mark)
	}
}

func printSummary(summary core.TrainingSummary) {
	fmt.Printf("\n%-4s %-6s %-8s %-8s %-8s %-8s %-8s\n",
		"Iter", "Score", "Compile", "Static", "Security", "Quality", "Function")
	fmt.Println("------------------------------------------------------------")
	for _, rec := range summary.Iterations {
		compileStatus := "FAIL"
		if rec.CompilationSuccess {
			compileStatus = "PASS"
		}
		fmt.Printf("%-4d %-6.3f %-8s %-8.3f %-8.3f %-8.3f %-8.3f\n",
			rec.Iteration, rec.OverallScore, compileStatus,
			rec.StaticScore, rec.SecurityScore, rec.QualityScore, rec.FunctionalityScore)
	}

	first := summary.Iterations[0].OverallScore
	last := summary.Iterations[len(summary.Iterations)-1].OverallScore
	fmt.Printf("\nInitial Score: %.3f\n", first)
	fmt.Printf("Final Score: %.3f\n", last)
	fmt.Printf("Improvement: %+.3f\n", summary.Improvement)
	if summary.FirstSuccessfulCompilation != nil {
		fmt.Printf("First successful compilation: Iteration %d\n", *summary.FirstSuccessfulCompilation+1)
	} else {
		fmt.Println("No successful compilations achieved")
	}
	fmt.Printf("Best iteration: %d\n", summary.BestIteration)
}

func categoriesInOrder() []string {
	return core.Categories
}
