package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// CompilationMetrics describes one build attempt of a candidate module.
// Success mirrors the toolchain exit status; ErrorCount and WarningCount are
// parsed from the toolchain output and may legitimately disagree with Success
// (a timeout reports success=false with a single synthetic error).
type CompilationMetrics struct {
	Success      bool    `json:"success"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	BuildTime    float64 `json:"build_time"`
	BinarySize   *int64  `json:"binary_size"`
}

// StaticAnalysisMetrics aggregates external tool findings with the rule
// engine's API compliance score. An unavailable tool reports zero issues.
type StaticAnalysisMetrics struct {
	SparseIssues         int     `json:"sparse_issues"`
	CheckpatchViolations int     `json:"checkpatch_violations"`
	CppcheckIssues       int     `json:"cppcheck_issues"`
	CustomRuleViolations int     `json:"custom_rule_violations"`
	APIComplianceScore   float64 `json:"api_compliance_score"`
}

// SecurityMetrics holds heuristic security scores. The *_score fields are
// "higher is safer"; the *_risk fields are "higher is worse". Only
// BufferSafetyScore and InputValidationScore feed the weighted aggregate.
type SecurityMetrics struct {
	BufferSafetyScore       float64 `json:"buffer_safety_score"`
	MemoryLeakRisk          float64 `json:"memory_leak_risk"`
	RaceConditionRisk       float64 `json:"race_condition_risk"`
	InputValidationScore    float64 `json:"input_validation_score"`
	PrivilegeEscalationRisk float64 `json:"privilege_escalation_risk"`
}

// CodeQualityMetrics holds text-derived quality measurements.
type CodeQualityMetrics struct {
	StyleCompliance      float64 `json:"style_compliance"`
	CyclomaticComplexity float64 `json:"cyclomatic_complexity"`
	FunctionLengthAvg    float64 `json:"function_length_avg"`
	CommentRatio         float64 `json:"comment_ratio"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
}

// FunctionalityMetrics holds heuristic presence/quality checks. Only
// BasicOperationsScore feeds the weighted aggregate.
type FunctionalityMetrics struct {
	BasicOperationsScore float64 `json:"basic_operations_score"`
	ErrorHandlingScore   float64 `json:"error_handling_score"`
	EdgeCaseHandling     float64 `json:"edge_case_handling"`
	APICorrectness       float64 `json:"api_correctness"`
}

// EvaluationResult is produced once per code snapshot and never mutated.
// The JSON shape (field names and nesting) is a stable contract consumed by
// dashboards and comparison tooling.
type EvaluationResult struct {
	Compilation    CompilationMetrics    `json:"compilation"`
	StaticAnalysis StaticAnalysisMetrics `json:"static_analysis"`
	Security       SecurityMetrics       `json:"security"`
	CodeQuality    CodeQualityMetrics    `json:"code_quality"`
	Functionality  FunctionalityMetrics  `json:"functionality"`
	OverallScore   float64               `json:"overall_score"`
	WeightedScores map[string]float64    `json:"weighted_scores"`
}

// SecurityScore is the aggregate used in scoring and reporting: the mean of
// buffer safety and input validation. The remaining sub-metrics are reported
// but deliberately left out of the aggregate.
func (r EvaluationResult) SecurityScore() float64 {
	return (r.Security.BufferSafetyScore + r.Security.InputValidationScore) / 2.0
}

// WriteFile persists the result as an indented JSON document.
func (r EvaluationResult) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal evaluation result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write evaluation result: %w", err)
	}
	return nil
}

// IterationRecord captures one round of the training loop. Code, Result and
// Feedback stay in memory for the session; the persisted summary carries the
// score fields and artifact references only.
type IterationRecord struct {
	Iteration          int              `json:"iteration"`
	Code               string           `json:"-"`
	Result             EvaluationResult `json:"-"`
	Feedback           string           `json:"-"`
	OverallScore       float64          `json:"overall_score"`
	CompilationSuccess bool             `json:"compilation_success"`
	StaticScore        float64          `json:"static_analysis_score"`
	SecurityScore      float64          `json:"security_score"`
	QualityScore       float64          `json:"code_quality_score"`
	FunctionalityScore float64          `json:"functionality_score"`
	MissingFeatures    []string         `json:"missing_features,omitempty"`
	CodeFile           string           `json:"code_file"`
	ResultFile         string           `json:"result_file"`
	FeedbackFile       string           `json:"feedback_file,omitempty"`
}

// TrainingSummary is the terminal trajectory report of a session.
// FirstSuccessfulCompilation is a 0-based index into Iterations and nil when
// no iteration compiled; BestIteration is 1-based and stable to the earliest
// maximum.
type TrainingSummary struct {
	Model                      string            `json:"model"`
	TestType                   string            `json:"test_type"`
	Iterations                 []IterationRecord `json:"iterations"`
	Improvement                float64           `json:"improvement"`
	FirstSuccessfulCompilation *int              `json:"first_successful_compilation"`
	BestIteration              int               `json:"best_iteration"`
}

// WriteFile persists the summary as an indented JSON document.
func (s TrainingSummary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal training summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write training summary: %w", err)
	}
	return nil
}
