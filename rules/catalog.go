package rules

import "regexp"

// Severity grades a pattern match for risk-density weighting.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityStyle    Severity = "style"
)

// DefaultSeverityWeights maps severities to their density contribution.
var DefaultSeverityWeights = map[Severity]float64{
	SeverityCritical: 10.0,
	SeverityMajor:    5.0,
	SeverityMinor:    1.0,
	SeverityStyle:    0.5,
}

// PairRule describes a paired-resource API: Acquire and Release each carry a
// single capture group for the identifier that ties the two call sites
// together (the variable assigned from an allocator, the lock argument, the
// irq argument). Matching is purely textual; a release in a different
// function than its acquire is still counted, and cross-scope aliasing is a
// known limitation of the heuristic.
type PairRule struct {
	Name    string
	Acquire *regexp.Regexp
	Release *regexp.Regexp
}

// RiskPattern is one security-risk idiom with its severity.
type RiskPattern struct {
	Pattern     *regexp.Regexp
	Severity    Severity
	Description string
}

// Catalog bundles the pattern tables. It is data, not logic: callers may
// construct their own catalog to track a different API surface.
type Catalog struct {
	Pairs           map[string][]PairRule
	Risks           map[string][]RiskPattern
	SeverityWeights map[Severity]float64
}

// Risk category names produced by the default catalog.
const (
	RiskBufferOverflow = "buffer_overflow"
	RiskNullPointer    = "null_pointer"
	RiskRaceConditions = "race_conditions"
	RiskMemoryLeak     = "memory_leak"
)

// DefaultCatalog returns the kernel-API pattern tables.
//
// The null-pointer and race patterns differ from naive formulations that rely
// on lookaround, which RE2 does not support; they are re-expressed with plain
// character classes at the cost of some precision.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Pairs: map[string][]PairRule{
			"memory_management": {
				{
					Name:    "kmalloc/kfree",
					Acquire: regexp.MustCompile(`(\w+)\s*=\s*kmalloc\s*\([^)]*\)`),
					Release: regexp.MustCompile(`kfree\s*\(\s*([^)]+?)\s*\)`),
				},
				{
					Name:    "vmalloc/vfree",
					Acquire: regexp.MustCompile(`(\w+)\s*=\s*vmalloc\s*\([^)]*\)`),
					Release: regexp.MustCompile(`vfree\s*\(\s*([^)]+?)\s*\)`),
				},
			},
			"locking": {
				{
					Name:    "spin_lock/spin_unlock",
					Acquire: regexp.MustCompile(`spin_lock\s*\(\s*([^)]+?)\s*\)`),
					Release: regexp.MustCompile(`spin_unlock\s*\(\s*([^)]+?)\s*\)`),
				},
				{
					Name:    "mutex_lock/mutex_unlock",
					Acquire: regexp.MustCompile(`mutex_lock\s*\(\s*([^)]+?)\s*\)`),
					Release: regexp.MustCompile(`mutex_unlock\s*\(\s*([^)]+?)\s*\)`),
				},
			},
			"interrupt_handling": {
				{
					Name:    "request_irq/free_irq",
					Acquire: regexp.MustCompile(`request_irq\s*\(\s*([^,)]+?)\s*,`),
					Release: regexp.MustCompile(`free_irq\s*\(\s*([^,)]+?)\s*[,)]`),
				},
			},
			"device_management": {
				{
					Name:    "class_create/class_destroy",
					Acquire: regexp.MustCompile(`(\w+)\s*=\s*class_create\s*\([^)]*\)`),
					Release: regexp.MustCompile(`class_destroy\s*\(\s*([^)]+?)\s*\)`),
				},
				{
					Name:    "device_create/device_destroy",
					Acquire: regexp.MustCompile(`device_create\s*\(\s*([^,)]+?)\s*,`),
					Release: regexp.MustCompile(`device_destroy\s*\(\s*([^,)]+?)\s*[,)]`),
				},
			},
		},
		Risks: map[string][]RiskPattern{
			RiskBufferOverflow: {
				{Pattern: regexp.MustCompile(`\bstrcpy\s*\(`), Severity: SeverityCritical, Description: "use strncpy instead of strcpy"},
				{Pattern: regexp.MustCompile(`\bstrcat\s*\(`), Severity: SeverityCritical, Description: "use strncat instead of strcat"},
				{Pattern: regexp.MustCompile(`\bsprintf\s*\(`), Severity: SeverityMajor, Description: "use snprintf instead of sprintf"},
				{Pattern: regexp.MustCompile(`\bgets\s*\(`), Severity: SeverityCritical, Description: "never use gets()"},
			},
			RiskNullPointer: {
				{Pattern: regexp.MustCompile(`\*\s*\(\s*\w+\s*\*\s*\)\s*0\b`), Severity: SeverityMajor, Description: "dereference of literal null"},
				{Pattern: regexp.MustCompile(`=\s*NULL\s*;\s*\n\s*\*`), Severity: SeverityMinor, Description: "dereference right after null assignment"},
			},
			RiskRaceConditions: {
				{Pattern: regexp.MustCompile(`[^_\w]lock\s*\(`), Severity: SeverityMinor, Description: "raw lock() call outside spin/mutex helpers"},
				{Pattern: regexp.MustCompile(`\batomic_(?:inc|dec|add|sub)\w*\s*\(`), Severity: SeverityMinor, Description: "unguarded atomic read-modify-write"},
			},
			RiskMemoryLeak: {
				{Pattern: regexp.MustCompile(`\bkmalloc\s*\(`), Severity: SeverityMinor, Description: "allocation site; verify matching kfree"},
				{Pattern: regexp.MustCompile(`\bvmalloc\s*\(`), Severity: SeverityMinor, Description: "allocation site; verify matching vfree"},
			},
		},
		SeverityWeights: DefaultSeverityWeights,
	}
}
