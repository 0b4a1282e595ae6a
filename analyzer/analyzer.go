package analyzer

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lkmbench/lkmbench/core"
	"github.com/lkmbench/lkmbench/rules"
)

// Config selects which external tools to bind and how long each invocation
// may run. Checkpatch additionally needs the checkpatch.pl script on disk.
type Config struct {
	SparseEnabled     bool
	CheckpatchEnabled bool
	CppcheckEnabled   bool
	CheckpatchScript  string
	Timeout           time.Duration
}

// DefaultConfig enables every tool with the reference timeout.
func DefaultConfig() Config {
	return Config{
		SparseEnabled:     true,
		CheckpatchEnabled: true,
		CppcheckEnabled:   true,
		CheckpatchScript:  "checkpatch.pl",
		Timeout:           30 * time.Second,
	}
}

// Analyzer combines rule-engine output with complexity and maintainability
// computations plus optional external static checkers.
type Analyzer struct {
	rules      *rules.Engine
	sparse     *ExternalTool
	checkpatch *ExternalTool
	cppcheck   *ExternalTool
	logger     *zap.Logger
}

// New resolves tool bindings once and returns the analyzer. Unresolvable
// tools are logged and left unbound.
func New(engine *rules.Engine, cfg Config, logger *zap.Logger) *Analyzer {
	if engine == nil {
		engine = rules.NewEngine(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	a := &Analyzer{rules: engine, logger: logger}
	if cfg.SparseEnabled {
		a.sparse = resolveTool("sparse", "sparse", cfg.Timeout, "-Wno-decl")
	}
	if cfg.CheckpatchEnabled {
		a.checkpatch = resolveScriptTool("checkpatch", "perl", cfg.CheckpatchScript, cfg.Timeout, "--no-tree", "--file")
	}
	if cfg.CppcheckEnabled {
		a.cppcheck = resolveTool("cppcheck", "cppcheck", cfg.Timeout, "--enable=all", "--std=c99")
	}
	for name, tool := range map[string]*ExternalTool{"sparse": a.sparse, "checkpatch": a.checkpatch, "cppcheck": a.cppcheck} {
		if tool == nil {
			logger.Info("static analysis tool unavailable, reporting zero issues", zap.String("tool", name))
		}
	}
	return a
}

// RuleEngine exposes the underlying pattern engine.
func (a *Analyzer) RuleEngine() *rules.Engine { return a.rules }

// Analyze produces the full static-analysis record for one file.
func (a *Analyzer) Analyze(ctx context.Context, codePath, code string) core.StaticAnalysisMetrics {
	return core.StaticAnalysisMetrics{
		SparseIssues:         a.SparseIssues(ctx, codePath),
		CheckpatchViolations: a.CheckpatchViolations(ctx, codePath),
		CppcheckIssues:       a.CppcheckIssues(ctx, codePath),
		CustomRuleViolations: 0,
		APIComplianceScore:   a.rules.APICompliance(code),
	}
}

// SparseIssues counts sparse stderr lines; zero when the tool is unbound.
func (a *Analyzer) SparseIssues(ctx context.Context, codePath string) int {
	_, stderr, ok := a.sparse.run(ctx, a.logger, codePath)
	if !ok {
		return 0
	}
	return countNonEmptyLines(stderr)
}

// CheckpatchViolations counts ERROR: and WARNING: lines in checkpatch
// output; zero when perl or the script is unbound.
func (a *Analyzer) CheckpatchViolations(ctx context.Context, codePath string) int {
	stdout, _, ok := a.checkpatch.run(ctx, a.logger, codePath)
	if !ok {
		return 0
	}
	violations := 0
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "ERROR:") || strings.Contains(line, "WARNING:") {
			violations++
		}
	}
	return violations
}

// CppcheckIssues counts stderr lines mentioning "error"; zero when unbound.
func (a *Analyzer) CppcheckIssues(ctx context.Context, codePath string) int {
	_, stderr, ok := a.cppcheck.run(ctx, a.logger, codePath)
	if !ok {
		return 0
	}
	issues := 0
	for _, line := range strings.Split(stderr, "\n") {
		if strings.Contains(strings.ToLower(line), "error") {
			issues++
		}
	}
	return issues
}

var (
	branchKeywords  = []string{"if", "else", "while", "for", "switch", "case", "default", "goto"}
	keywordPatterns = compileKeywordPatterns()
	functionPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\s*\([^)]*\)\s*\{`)
	operatorPattern = regexp.MustCompile(`[+\-*/%=<>!&|^~?:;,(){}\[\]]`)
	operandPattern  = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\b`)
)

func compileKeywordPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(branchKeywords))
	for _, kw := range branchKeywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+kw+`\b`))
	}
	return patterns
}

// CyclomaticComplexity approximates the average per-function complexity:
// base 1 plus one increment per branching keyword or boolean operator across
// the whole file, divided by the number of function-like definitions
// (minimum 1).
func (a *Analyzer) CyclomaticComplexity(code string) float64 {
	total := 1
	for _, p := range keywordPatterns {
		total += len(p.FindAllStringIndex(code, -1))
	}
	total += strings.Count(code, "&&")
	total += strings.Count(code, "||")
	total += strings.Count(code, "?")

	functions := len(functionPattern.FindAllStringIndex(code, -1))
	if functions < 1 {
		functions = 1
	}
	return float64(total) / float64(functions)
}

// MaintainabilityIndex computes the standard composite
// 171 - 5.2*ln(V) - 0.23*CC - 16.2*ln(LOC), clamped to [0,100] and
// normalized to [0,1]. Empty code returns 0 rather than hitting ln(0).
func (a *Analyzer) MaintainabilityIndex(code string) float64 {
	loc := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "//") {
			loc++
		}
	}
	if loc == 0 {
		return 0.0
	}

	volume := halsteadVolume(code)
	cc := a.CyclomaticComplexity(code)

	mi := 171 - 5.2*math.Log(volume) - 0.23*cc - 16.2*math.Log(float64(loc))
	return math.Max(0, math.Min(100, mi)) / 100.0
}

// halsteadVolume is length * log2(vocabulary) over crude operator/operand
// token classes, floored at 1.0 so the logarithm upstream stays defined.
func halsteadVolume(code string) float64 {
	operators := operatorPattern.FindAllString(code, -1)
	operands := operandPattern.FindAllString(code, -1)

	uniqueOperators := uniqueCount(operators)
	uniqueOperands := uniqueCount(operands)
	if uniqueOperators == 0 || uniqueOperands == 0 {
		return 1.0
	}

	vocabulary := uniqueOperators + uniqueOperands
	length := len(operators) + len(operands)
	if vocabulary <= 1 {
		return 1.0
	}
	return float64(length) * math.Log2(float64(vocabulary))
}

func uniqueCount(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return len(seen)
}

func countNonEmptyLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
