package core

import (
	"fmt"
	"math"
)

// Category names used as weighted_scores keys. The order is the canonical
// reporting order.
const (
	CategoryCompilation    = "compilation"
	CategoryStaticAnalysis = "static_analysis"
	CategorySecurity       = "security"
	CategoryCodeQuality    = "code_quality"
	CategoryFunctionality  = "functionality"
)

// Categories lists all scoring categories in reporting order.
var Categories = []string{
	CategoryCompilation,
	CategoryStaticAnalysis,
	CategorySecurity,
	CategoryCodeQuality,
	CategoryFunctionality,
}

// ScoringWeights partitions unit weight across the five categories. The sum
// must be 1.0; Validate rejects anything else since a skewed partition
// silently corrupts every downstream score.
type ScoringWeights struct {
	Compilation    float64 `json:"compilation" yaml:"compilation"`
	StaticAnalysis float64 `json:"static_analysis" yaml:"static_analysis"`
	Security       float64 `json:"security" yaml:"security"`
	CodeQuality    float64 `json:"code_quality" yaml:"code_quality"`
	Functionality  float64 `json:"functionality" yaml:"functionality"`
}

// DefaultWeights returns the reference weight partition.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Compilation:    0.30,
		StaticAnalysis: 0.25,
		Security:       0.25,
		CodeQuality:    0.15,
		Functionality:  0.05,
	}
}

// Sum returns the total weight.
func (w ScoringWeights) Sum() float64 {
	return w.Compilation + w.StaticAnalysis + w.Security + w.CodeQuality + w.Functionality
}

// Validate checks the unit-partition invariant within 1e-9.
func (w ScoringWeights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.12f", w.Sum())
	}
	for name, v := range w.Map() {
		if v < 0 {
			return fmt.Errorf("scoring weight %q must be non-negative, got %f", name, v)
		}
	}
	return nil
}

// Map returns the weights keyed by category name.
func (w ScoringWeights) Map() map[string]float64 {
	return map[string]float64{
		CategoryCompilation:    w.Compilation,
		CategoryStaticAnalysis: w.StaticAnalysis,
		CategorySecurity:       w.Security,
		CategoryCodeQuality:    w.CodeQuality,
		CategoryFunctionality:  w.Functionality,
	}
}
