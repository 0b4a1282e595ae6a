package rules

import (
	"strings"

	"go.uber.org/zap"
)

// Engine runs the pattern catalogs over raw source text. All methods are
// pure, total functions: any input (including garbage that is not C at all)
// yields a score, never an error.
type Engine struct {
	catalog *Catalog
	logger  *zap.Logger
}

// NewEngine creates an engine over the given catalog. A nil catalog selects
// the default kernel tables; a nil logger disables logging.
func NewEngine(catalog *Catalog, logger *zap.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, logger: logger}
}

// APICompliance returns the fraction of acquire call sites whose captured
// identifier reappears in a matching release call, across all categories.
// Code that exercises none of the tracked APIs is vacuously compliant (1.0).
// Excess release calls are ignored.
func (e *Engine) APICompliance(code string) float64 {
	totalAcquires := 0
	matched := 0
	for _, pairs := range e.catalog.Pairs {
		for _, rule := range pairs {
			a, m := countPairs(code, rule)
			totalAcquires += a
			matched += m
		}
	}
	if totalAcquires == 0 {
		return 1.0
	}
	return float64(matched) / float64(totalAcquires)
}

// CategoryCompliance returns the per-category compliance fractions, each
// computed with the same vacuous-compliance rule as APICompliance.
func (e *Engine) CategoryCompliance(code string) map[string]float64 {
	out := make(map[string]float64, len(e.catalog.Pairs))
	for category, pairs := range e.catalog.Pairs {
		totalAcquires := 0
		matched := 0
		for _, rule := range pairs {
			a, m := countPairs(code, rule)
			totalAcquires += a
			matched += m
		}
		if totalAcquires == 0 {
			out[category] = 1.0
		} else {
			out[category] = float64(matched) / float64(totalAcquires)
		}
	}
	return out
}

func countPairs(code string, rule PairRule) (acquires, matched int) {
	acquireIdents := captureAll(code, rule)
	if len(acquireIdents) == 0 {
		return 0, 0
	}
	released := make(map[string]bool)
	for _, m := range rule.Release.FindAllStringSubmatch(code, -1) {
		if len(m) > 1 {
			released[normalizeIdent(m[1])] = true
		}
	}
	for _, ident := range acquireIdents {
		acquires++
		if released[ident] {
			matched++
		}
	}
	return acquires, matched
}

func captureAll(code string, rule PairRule) []string {
	var idents []string
	for _, m := range rule.Acquire.FindAllStringSubmatch(code, -1) {
		if len(m) > 1 {
			idents = append(idents, normalizeIdent(m[1]))
		}
	}
	return idents
}

// normalizeIdent strips the address-of prefix so "&dev->lock" in an acquire
// matches the same spelling in a release.
func normalizeIdent(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "&"))
}

// SecurityRisks returns a severity-weighted match density per risk category:
// min(1, sum(matches*weight) / max(lines, 1)). Density, not count — longer
// files are not penalized for length alone. A category with no matches
// scores 0.
func (e *Engine) SecurityRisks(code string) map[string]float64 {
	totalLines := len(strings.Split(code, "\n"))
	if totalLines < 1 {
		totalLines = 1
	}
	risks := make(map[string]float64, len(e.catalog.Risks))
	for category, patterns := range e.catalog.Risks {
		weighted := 0.0
		for _, rp := range patterns {
			count := len(rp.Pattern.FindAllStringIndex(code, -1))
			weighted += float64(count) * e.catalog.SeverityWeights[rp.Severity]
		}
		risk := weighted / float64(totalLines)
		if risk > 1.0 {
			risk = 1.0
		}
		risks[category] = risk
	}
	return risks
}
