package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lkmbench/lkmbench/arena"
	"github.com/lkmbench/lkmbench/prompts"
)

var (
	flagArenaModels     []string
	flagArenaDriverType string
	flagArenaComplexity string
)

func newArenaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "arena",
		Aliases: []string{"compare"},
		Short:   "Evaluate models across the driver-type matrix and rank them",
		RunE:    runArena,
	}
	cmd.Flags().StringSliceVar(&flagArenaModels, "models", nil, "models to compare (default from config)")
	cmd.Flags().StringVar(&flagArenaDriverType, "driver-type", "", "restrict to one driver type")
	cmd.Flags().StringVar(&flagArenaComplexity, "complexity", "", "restrict to one complexity level")
	return cmd
}

func runArena(cmd *cobra.Command, args []string) error {
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

	models := flagArenaModels
	if len(models) == 0 {
		models = []string{a.cfg.Generator.Model}
	}
	cfg := arena.Config{
		Models:       models,
		OutputDir:    a.cfg.OutputDirectory,
		SystemPrompt: prompts.KernelStandards("kernel_standards.txt"),
		Parallel:     a.cfg.EnableParallelEvaluation,
	}
	if flagArenaDriverType != "" {
		cfg.DriverTypes = []string{flagArenaDriverType}
	}
	if flagArenaComplexity != "" {
		cfg.Complexities = []string{flagArenaComplexity}
	}

	report, err := arena.New(gen, engine, cfg, a.logger).Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("\nMODEL PERFORMANCE SUMMARY")
	fmt.Println("============================================================")
	for i, summary := range report.Summary {
		fmt.Printf("%d. %s\n", i+1, summary.Model)
		fmt.Printf("   Average Score: %.2f\n", summary.AvgScore)
		fmt.Printf("   Compilation Success Rate: %.1f%%\n", summary.CompilationSuccessRate*100)
		fmt.Printf("   Score Range: %.2f - %.2f\n", summary.MinScore, summary.MaxScore)
		fmt.Printf("   Total Tests: %d\n\n", summary.TotalTests)
	}

	fmt.Println("CATEGORY WINNERS:")
	for category, winner := range report.DetailedComparison.CategoryWinners {
		if winner == "" {
			winner = "(none)"
		}
		fmt.Printf("  %s: %s\n", category, winner)
	}
	return nil
}
