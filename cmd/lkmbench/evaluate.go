package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flagResultFile string

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <source.c>",
		Short: "Score one candidate source file",
		Args:  cobra.ExactArgs(1),
		RunE:  runEvaluate,
	}
	cmd.Flags().StringVar(&flagResultFile, "output", "", "write the full result JSON to this file")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Evaluate(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Overall Score: %.2f\n", result.OverallScore)
	compileStatus := "FAIL"
	if result.Compilation.Success {
		compileStatus = "PASS"
	}
	fmt.Printf("Compilation: %s (%d errors, %d warnings)\n",
		compileStatus, result.Compilation.ErrorCount, result.Compilation.WarningCount)
	fmt.Printf("Static Analysis: %d sparse, %d checkpatch, %d cppcheck\n",
		result.StaticAnalysis.SparseIssues,
		result.StaticAnalysis.CheckpatchViolations,
		result.StaticAnalysis.CppcheckIssues)
	fmt.Printf("API Compliance: %.2f\n", result.StaticAnalysis.APIComplianceScore)
	fmt.Printf("Security Score: %.2f\n", result.SecurityScore())
	fmt.Printf("Maintainability: %.2f\n", result.CodeQuality.MaintainabilityIndex)
	fmt.Println("\nWeighted Scores:")
	for _, category := range categoriesInOrder() {
		fmt.Printf("  %-16s %.3f\n", category, result.WeightedScores[category])
	}

	if flagResultFile != "" {
		if err := result.WriteFile(flagResultFile); err != nil {
			return err
		}
		fmt.Printf("\nFull result written to %s\n", flagResultFile)
	}
	return nil
}
