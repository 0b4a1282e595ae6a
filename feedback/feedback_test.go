package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkmbench/lkmbench/core"
)

func cleanResult() core.EvaluationResult {
	return core.EvaluationResult{
		Compilation:    core.CompilationMetrics{Success: true},
		StaticAnalysis: core.StaticAnalysisMetrics{APIComplianceScore: 1.0},
		Security: core.SecurityMetrics{
			BufferSafetyScore:    0.9,
			InputValidationScore: 0.8,
		},
		Functionality: core.FunctionalityMetrics{
			BasicOperationsScore: 1.0,
			ErrorHandlingScore:   0.7,
		},
		OverallScore: 0.92,
	}
}

func TestCleanResultOmitsAllIssueBlocks(t *testing.T) {
	out := New().Generate("", cleanResult(), 3)

	require.Contains(t, out, "ITERATION 3 - CODE REVIEW FEEDBACK")
	require.Contains(t, out, "OVERALL SCORE: 0.92/1.00")
	require.Contains(t, out, "FOCUS AREAS FOR NEXT ITERATION")

	for _, block := range []string{
		"COMPILATION FAILED",
		"STATIC ANALYSIS ISSUES",
		"CODING STYLE VIOLATIONS",
		"API USAGE ERRORS",
		"SECURITY CONCERNS",
		"FUNCTIONALITY ISSUES",
		"ERROR HANDLING:",
		"SPECIFIC ISSUES FOUND",
	} {
		require.NotContains(t, out, block)
	}
}

func TestCompilationFailureLeadsTheCascade(t *testing.T) {
	r := cleanResult()
	r.Compilation.Success = false

	out := New().Generate("", r, 1)
	require.Contains(t, out, "COMPILATION FAILED")
	require.Less(t,
		strings.Index(out, "COMPILATION FAILED"),
		strings.Index(out, "FOCUS AREAS"))
}

func TestThresholdBoundaries(t *testing.T) {
	gen := New()

	// exactly 10 checkpatch violations stays silent, 11 does not
	r := cleanResult()
	r.StaticAnalysis.CheckpatchViolations = 10
	require.NotContains(t, gen.Generate("", r, 1), "CODING STYLE VIOLATIONS")
	r.StaticAnalysis.CheckpatchViolations = 11
	require.Contains(t, gen.Generate("", r, 1), "CODING STYLE VIOLATIONS (11 violations)")

	// api compliance: 0.5 is acceptable, below is not
	r = cleanResult()
	r.StaticAnalysis.APIComplianceScore = 0.5
	require.NotContains(t, gen.Generate("", r, 1), "API USAGE ERRORS")
	r.StaticAnalysis.APIComplianceScore = 0.49
	require.Contains(t, gen.Generate("", r, 1), "API USAGE ERRORS")

	// security threshold applies to the two-metric mean
	r = cleanResult()
	r.Security.BufferSafetyScore = 0.7
	r.Security.InputValidationScore = 0.9
	require.NotContains(t, gen.Generate("", r, 1), "SECURITY CONCERNS")
	r.Security.InputValidationScore = 0.8
	require.Contains(t, gen.Generate("", r, 1), "SECURITY CONCERNS")
}

func TestSparseBlockEmbedsCount(t *testing.T) {
	r := cleanResult()
	r.StaticAnalysis.SparseIssues = 7
	out := New().Generate("", r, 2)
	require.Contains(t, out, "STATIC ANALYSIS ISSUES (7 Sparse issues)")
}

func TestSpecificIssueScan(t *testing.T) {
	code := `static int my_open(struct inode *i, struct file *f)
{
	return single_open(f, show, NULL);
}
static void cleanup(void) { class_unregister(cls); }`

	out := New().Generate(code, cleanResult(), 1)
	require.Contains(t, out, "SPECIFIC ISSUES FOUND IN YOUR CODE:")
	require.Contains(t, out, "Remove single_open()")
	require.Contains(t, out, "class_unregister() doesn't exist")
	require.NotContains(t, out, "static buffers")
}

func TestUninitializedReturnScan(t *testing.T) {
	gen := New()

	out := gen.Generate("int result;\n\treturn result;\n", cleanResult(), 1)
	require.Contains(t, out, "Don't return uninitialized variables")

	// a same-line assignment is not flagged
	out = gen.Generate("int result = setup_hw(); return result;\n", cleanResult(), 1)
	require.NotContains(t, out, "Don't return uninitialized variables")

	// no "return result;" at all stays silent
	out = gen.Generate("return 0;\n", cleanResult(), 1)
	require.NotContains(t, out, "Don't return uninitialized variables")
}

func TestStaticBufferFreeNeedsBothMarkers(t *testing.T) {
	gen := New()
	require.NotContains(t, gen.Generate("kfree(buffer);", cleanResult(), 1), "static buffers")
	withBoth := "static char buffer[64];\nkfree(buffer);"
	require.Contains(t, gen.Generate(withBoth, cleanResult(), 1), "static buffers")
}

func TestDeterministic(t *testing.T) {
	r := cleanResult()
	r.Compilation.Success = false
	r.StaticAnalysis.SparseIssues = 3
	a := New().Generate("single_open", r, 4)
	b := New().Generate("single_open", r, 4)
	require.Equal(t, a, b)
}
