package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIComplianceBalancedPairs(t *testing.T) {
	code := `
static int demo_init(void)
{
	buf = kmalloc(1024, GFP_KERNEL);
	if (!buf)
		return -ENOMEM;
	spin_lock(&demo_lock);
	spin_unlock(&demo_lock);
	return 0;
}

static void demo_exit(void)
{
	kfree(buf);
}
`
	e := NewEngine(nil, nil)
	require.Equal(t, 1.0, e.APICompliance(code))
}

func TestAPIComplianceUnmatchedAlloc(t *testing.T) {
	code := `
static int demo_init(void)
{
	buf = kmalloc(1024, GFP_KERNEL);
	return 0;
}
`
	e := NewEngine(nil, nil)
	require.Equal(t, 0.0, e.APICompliance(code))

	byCategory := e.CategoryCompliance(code)
	require.Equal(t, 0.0, byCategory["memory_management"])
	// untouched categories are vacuously compliant
	require.Equal(t, 1.0, byCategory["locking"])
	require.Equal(t, 1.0, byCategory["interrupt_handling"])
}

func TestAPIComplianceNoTrackedCalls(t *testing.T) {
	e := NewEngine(nil, nil)
	require.Equal(t, 1.0, e.APICompliance("int main(void) { return 0; }"))
	require.Equal(t, 1.0, e.APICompliance(""))
}

func TestAPIComplianceExcessReleasesIgnored(t *testing.T) {
	code := `
	buf = kmalloc(64, GFP_KERNEL);
	kfree(buf);
	kfree(other);
	kfree(stale);
`
	e := NewEngine(nil, nil)
	require.Equal(t, 1.0, e.APICompliance(code))
}

func TestAPICompliancePartial(t *testing.T) {
	code := `
	a = kmalloc(64, GFP_KERNEL);
	b = kmalloc(64, GFP_KERNEL);
	kfree(a);
`
	e := NewEngine(nil, nil)
	require.InDelta(t, 0.5, e.APICompliance(code), 1e-9)
}

func TestSecurityRisksDensity(t *testing.T) {
	// one critical match (weight 10) over 10 lines -> density 1.0 capped
	code := "strcpy(dst, src);" + strings.Repeat("\n", 9)
	e := NewEngine(nil, nil)
	risks := e.SecurityRisks(code)
	require.Equal(t, 1.0, risks[RiskBufferOverflow])

	// the same match over 100 lines is ten times less dense
	code = "strcpy(dst, src);" + strings.Repeat("\n", 99)
	risks = e.SecurityRisks(code)
	require.InDelta(t, 0.1, risks[RiskBufferOverflow], 1e-9)
}

func TestSecurityRisksSeverityWeighting(t *testing.T) {
	// sprintf is major (5), strcpy is critical (10)
	lines := strings.Repeat("\n", 99)
	e := NewEngine(nil, nil)

	major := e.SecurityRisks("sprintf(buf, \"%d\", v);" + lines)
	critical := e.SecurityRisks("strcpy(dst, src);" + lines)
	require.InDelta(t, major[RiskBufferOverflow]*2, critical[RiskBufferOverflow], 1e-9)
}

func TestSecurityRisksCleanCode(t *testing.T) {
	e := NewEngine(nil, nil)
	risks := e.SecurityRisks("static int x;\n")
	for category, risk := range risks {
		require.Zerof(t, risk, "category %s", category)
	}
}

func TestSecurityRisksNeverPanicsOnGarbage(t *testing.T) {
	e := NewEngine(nil, nil)
	require.NotPanics(t, func() {
		e.SecurityRisks("Error communicating with generator: connection refused")
		e.APICompliance("\x00\xff not C at all")
	})
}
