// Package feedback turns an evaluation result into a deterministic review
// document for the next generation round. The text is a fixed cascade of
// advice blocks keyed off metric thresholds, so identical results always
// produce identical feedback.
package feedback

import (
	"fmt"
	"strings"

	"github.com/lkmbench/lkmbench/core"
)

const compilationBlock = "COMPILATION FAILED:\nYour code does not compile. This is the highest priority issue.\n\nCommon kernel driver compilation issues:\n- Wrong function signatures in file_operations\n- Missing or incorrect #include statements\n- Using undefined functions or variables\n- API misuse (mixing different kernel subsystems)\n- Syntax errors or typos\n\n"

const apiUsageBlock = "API USAGE ERRORS:\n- Ensure all kmalloc() calls are paired with kfree()\n- Don't call kfree() on statically allocated buffers\n- Match all register_chrdev() with unregister_chrdev()\n- Match all class_create() with class_destroy()\n- Use correct function signatures for file_operations\n\n"

const securityBlock = "SECURITY CONCERNS:\n- Validate user input sizes before copying\n- Use copy_from_user() and copy_to_user() correctly\n- Check buffer boundaries\n- Handle edge cases in read/write operations\n\n"

const functionalityBlock = "FUNCTIONALITY ISSUES:\n- Implement proper open/release functions for character devices\n- Don't mix seq_file APIs with character device APIs\n- Use simple return 0 for open, not single_open()\n- Implement proper file position handling\n\n"

const errorHandlingBlock = "ERROR HANDLING:\n- Check return values of all kernel API calls\n- Use proper error codes (-ENOMEM, -EFAULT, -EINVAL)\n- Implement proper cleanup in error paths\n- Don't return uninitialized variables\n\n"

const focusAreasBlock = "\nFOCUS AREAS FOR NEXT ITERATION:\n1. Fix compilation errors first\n2. Use correct file_operations function signatures\n3. Follow kernel coding style guidelines\n4. Implement proper error handling\n5. Use appropriate kernel APIs for character devices\n\nREMEMBER:\n- Character devices use simple file operations, not seq_file\n- Static buffers don't need kfree()\n- Always check API return values\n- Follow Linux kernel coding style exactly"

// Generator implements core.FeedbackWriter.
type Generator struct{}

// New returns a feedback generator.
func New() *Generator { return &Generator{} }

// Generate renders the review document for one iteration. A compilation
// failure always leads the cascade; the remaining blocks appear only when
// their metric crosses its threshold.
func (g *Generator) Generate(code string, result core.EvaluationResult, iteration int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ITERATION %d - CODE REVIEW FEEDBACK\n\nOVERALL SCORE: %.2f/1.00\n\nCRITICAL ISSUES TO FIX:\n\n",
		iteration, result.OverallScore)

	if !result.Compilation.Success {
		b.WriteString(compilationBlock)
	}
	if result.StaticAnalysis.SparseIssues > 0 {
		fmt.Fprintf(&b, "STATIC ANALYSIS ISSUES (%d Sparse issues):\n- Check for type mismatches\n- Verify pointer usage\n- Fix endianness issues\n- Address context violations (atomic vs non-atomic)\n\n",
			result.StaticAnalysis.SparseIssues)
	}
	if result.StaticAnalysis.CheckpatchViolations > 10 {
		fmt.Fprintf(&b, "CODING STYLE VIOLATIONS (%d violations):\n- Use proper Linux kernel coding style\n- Place opening braces correctly (functions: next line, others: same line)\n- Follow 80-column limit\n- Add SPDX license header: // SPDX-License-Identifier: GPL-2.0\n- Don't initialize static variables to NULL\n\n",
			result.StaticAnalysis.CheckpatchViolations)
	}
	if result.StaticAnalysis.APIComplianceScore < 0.5 {
		b.WriteString(apiUsageBlock)
	}
	if result.SecurityScore() < 0.8 {
		b.WriteString(securityBlock)
	}
	if result.Functionality.BasicOperationsScore < 1.0 {
		b.WriteString(functionalityBlock)
	}
	if result.Functionality.ErrorHandlingScore < 0.5 {
		b.WriteString(errorHandlingBlock)
	}

	b.WriteString(specificIssues(code))
	b.WriteString(focusAreasBlock)
	return b.String()
}

// specificIssues scans the source for known anti-patterns and names each one
// found, or returns the empty string.
func specificIssues(code string) string {
	var issues []string

	if strings.Contains(code, "single_open") {
		issues = append(issues, "- Remove single_open() - use simple return 0 for character device open()")
	}
	if strings.Contains(code, "single_release") {
		issues = append(issues, "- Remove single_release - use simple return 0 for character device release()")
	}
	if strings.Contains(code, "kfree(buffer)") && strings.Contains(code, "static char buffer") {
		issues = append(issues, "- Don't call kfree() on static buffers - only on kmalloc'd memory")
	}
	if strings.Contains(code, "class_unregister") {
		issues = append(issues, "- class_unregister() doesn't exist - use only class_destroy()")
	}
	// flag "return result;" unless result appears earlier on the same line
	// (a same-line assignment like "result = 0; return result;")
	if idx := strings.Index(code, "return result;"); idx >= 0 {
		line := code[:idx]
		if nl := strings.LastIndexByte(line, '\n'); nl >= 0 {
			line = line[nl+1:]
		}
		if !strings.Contains(line, "result") {
			issues = append(issues, "- Don't return uninitialized variables - check your return statements")
		}
	}

	if len(issues) == 0 {
		return ""
	}
	return "\nSPECIFIC ISSUES FOUND IN YOUR CODE:\n" + strings.Join(issues, "\n") + "\n"
}
