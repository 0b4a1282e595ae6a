package scoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lkmbench/lkmbench/analyzer"
	"github.com/lkmbench/lkmbench/buildtest"
	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/pkg/cache"
	"github.com/lkmbench/lkmbench/testkit"
)

// newEngine wires an engine with no external analysis tools and a scripted
// build toolchain.
func newEngine(t *testing.T, buildScript string, opts ...Option) *Engine {
	t.Helper()
	a := analyzer.New(nil, analyzer.Config{Timeout: time.Second}, nil)
	b := buildtest.New(buildtest.Config{
		Timeout: 5 * time.Second,
		Command: []string{"sh", "-c", buildScript},
	}, nil)
	e, err := New(a, b, core.DefaultWeights(), nil, opts...)
	require.NoError(t, err)
	return e
}

func writeCode(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.c")
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	weights := core.ScoringWeights{Compilation: 0.9, Security: 0.9}
	_, err := New(nil, nil, weights, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sum to 1.0")
}

func TestOverallScoreBounds(t *testing.T) {
	e := newEngine(t, "true")
	path := writeCode(t, testkit.GoodCharDriver)

	result, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)

	require.GreaterOrEqual(t, result.OverallScore, 0.0)
	require.LessOrEqual(t, result.OverallScore, 1.0)
	for category, weight := range core.DefaultWeights().Map() {
		v := result.WeightedScores[category]
		require.GreaterOrEqualf(t, v, 0.0, "category %s", category)
		require.LessOrEqualf(t, v, weight+1e-12, "category %s", category)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := newEngine(t, "true")
	path := writeCode(t, testkit.GoodCharDriver)

	first, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)

	// BuildTime is wall-clock; everything else must match exactly
	second.Compilation.BuildTime = first.Compilation.BuildTime
	require.Equal(t, first, second)
}

func TestEvaluateCacheReturnsIdenticalResult(t *testing.T) {
	c, err := cache.New(8)
	require.NoError(t, err)
	e := newEngine(t, "true", WithCache(c))
	path := writeCode(t, testkit.GoodCharDriver)

	first, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, c.Len())
}

func TestStaticScoreMonotonicInViolations(t *testing.T) {
	e := newEngine(t, "true")
	base := core.EvaluationResult{
		StaticAnalysis: core.StaticAnalysisMetrics{CheckpatchViolations: 5},
	}
	more := base
	more.StaticAnalysis.CheckpatchViolations = 50

	require.Greater(t,
		e.weightedScores(base)[core.CategoryStaticAnalysis],
		e.weightedScores(more)[core.CategoryStaticAnalysis])

	// the fixed /100 denominator caps the penalty at zero
	saturated := base
	saturated.StaticAnalysis.CheckpatchViolations = 100000
	require.Zero(t, e.weightedScores(saturated)[core.CategoryStaticAnalysis])
}

func TestCompilationDominatesItsCategory(t *testing.T) {
	e := newEngine(t, "true")

	pass := core.EvaluationResult{Compilation: core.CompilationMetrics{Success: true}}
	fail := core.EvaluationResult{Compilation: core.CompilationMetrics{Success: false}}

	require.InDelta(t, 0.30, e.weightedScores(pass)[core.CategoryCompilation], 1e-9)
	require.Zero(t, e.weightedScores(fail)[core.CategoryCompilation])
}

func TestSecurityAggregateUsesOnlyTwoSubMetrics(t *testing.T) {
	e := newEngine(t, "true")

	r := core.EvaluationResult{
		Security: core.SecurityMetrics{
			BufferSafetyScore:       1.0,
			InputValidationScore:    1.0,
			MemoryLeakRisk:          1.0, // worst case, must not affect the aggregate
			RaceConditionRisk:       1.0,
			PrivilegeEscalationRisk: 1.0,
		},
	}
	require.InDelta(t, 0.25, e.weightedScores(r)[core.CategorySecurity], 1e-9)
}

func TestFunctionalityAggregateIgnoresSecondarySubMetrics(t *testing.T) {
	e := newEngine(t, "true")
	r := core.EvaluationResult{
		Functionality: core.FunctionalityMetrics{
			BasicOperationsScore: 1.0,
			ErrorHandlingScore:   0.0,
			EdgeCaseHandling:     0.0,
			APICorrectness:       0.0,
		},
	}
	require.InDelta(t, 0.05, e.weightedScores(r)[core.CategoryFunctionality], 1e-9)
}

func TestWeightedAggregationSaturates(t *testing.T) {
	// all raw categories at 1.0 => overall equals the full weight budget
	e := newEngine(t, "true")
	r := core.EvaluationResult{
		Compilation: core.CompilationMetrics{Success: true},
		Security: core.SecurityMetrics{
			BufferSafetyScore:    1.0,
			InputValidationScore: 1.0,
		},
		CodeQuality: core.CodeQualityMetrics{
			MaintainabilityIndex: 1.0,
			CommentRatio:         0.2, // saturates the comment term at x5
		},
		Functionality: core.FunctionalityMetrics{BasicOperationsScore: 1.0},
	}
	total := 0.0
	for _, v := range e.weightedScores(r) {
		total += v
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestCommentRatioTermSaturatesAtTwentyPercent(t *testing.T) {
	e := newEngine(t, "true")
	sparse := core.EvaluationResult{CodeQuality: core.CodeQualityMetrics{CommentRatio: 0.2}}
	dense := core.EvaluationResult{CodeQuality: core.CodeQualityMetrics{CommentRatio: 0.9}}
	require.InDelta(t,
		e.weightedScores(sparse)[core.CategoryCodeQuality],
		e.weightedScores(dense)[core.CategoryCodeQuality], 1e-9)
}

func TestFunctionalityHeuristics(t *testing.T) {
	e := newEngine(t, "true")

	m := e.evaluateFunctionality(testkit.GoodCharDriver)
	require.Equal(t, 1.0, m.BasicOperationsScore)
	require.Greater(t, m.ErrorHandlingScore, 0.0)

	empty := e.evaluateFunctionality("")
	require.Zero(t, empty.BasicOperationsScore)
	require.Zero(t, empty.ErrorHandlingScore)
}

func TestUnmatchedAllocationScoresZeroCompliance(t *testing.T) {
	e := newEngine(t, "true")
	path := writeCode(t, testkit.LeakyDriver)

	result, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.StaticAnalysis.APIComplianceScore)
}

func TestUnreadableFileScoresWorstCase(t *testing.T) {
	e := newEngine(t, "true")
	result, err := e.Evaluate(context.Background(), filepath.Join(t.TempDir(), "missing.c"))
	require.Error(t, err)

	// degraded but complete, and worst-case: every category scores zero
	// rather than the empty-text scores the evaluators would produce
	require.False(t, result.Compilation.Success)
	require.Equal(t, 1, result.Compilation.ErrorCount)
	require.Len(t, result.WeightedScores, 5)
	for category, v := range result.WeightedScores {
		require.Zerof(t, v, "category %s", category)
	}
	require.Zero(t, result.OverallScore)
}

func TestGarbageInputDoesNotCrash(t *testing.T) {
	e := newEngine(t, "echo 'error: not C' >&2; exit 1")
	path := writeCode(t, "Error communicating with generator: connection refused")

	result, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)
	require.False(t, result.Compilation.Success)
	require.Zero(t, result.WeightedScores[core.CategoryCompilation])
}

func TestExportMirrorsResultShape(t *testing.T) {
	e := newEngine(t, "true")
	path := writeCode(t, testkit.GoodCharDriver)

	result, err := e.Evaluate(context.Background(), path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, result.WriteFile(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	for _, field := range []string{
		`"compilation"`, `"static_analysis"`, `"security"`, `"code_quality"`,
		`"functionality"`, `"overall_score"`, `"weighted_scores"`,
		`"sparse_issues"`, `"checkpatch_violations"`, `"api_compliance_score"`,
		`"buffer_safety_score"`, `"maintainability_index"`, `"basic_operations_score"`,
	} {
		require.Contains(t, string(data), field)
	}
}
