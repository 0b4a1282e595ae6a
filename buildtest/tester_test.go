package buildtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidate.c")
	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
	return path
}

func newTester(t *testing.T, command ...string) *Tester {
	t.Helper()
	return New(Config{Timeout: 5 * time.Second, Command: command}, nil)
}

func TestSuccessfulBuildProducesArtifact(t *testing.T) {
	src := writeSource(t)
	// scripted toolchain: one warning on output, artifact on disk, exit 0
	tester := newTester(t, "sh", "-c", "echo 'warning: unused variable'; echo module > driver.ko")

	m := tester.Test(context.Background(), src)
	require.True(t, m.Success)
	require.Zero(t, m.ErrorCount)
	require.Equal(t, 1, m.WarningCount)
	require.NotNil(t, m.BinarySize)
	require.Positive(t, *m.BinarySize)
}

func TestFailedBuildCountsDiagnostics(t *testing.T) {
	src := writeSource(t)
	tester := newTester(t, "sh", "-c",
		"echo 'driver.c:4: error: expected ;' >&2; echo 'driver.c:9: ERROR: too'; echo 'warning: minor' >&2; exit 2")

	m := tester.Test(context.Background(), src)
	require.False(t, m.Success)
	require.Equal(t, 2, m.ErrorCount)
	require.Equal(t, 1, m.WarningCount)
	require.Nil(t, m.BinarySize)
}

func TestExitStatusAndParsedCountsAreIndependent(t *testing.T) {
	src := writeSource(t)
	// nonzero exit with no recognizable diagnostics: both signals surface
	tester := newTester(t, "sh", "-c", "exit 1")

	m := tester.Test(context.Background(), src)
	require.False(t, m.Success)
	require.Zero(t, m.ErrorCount)
	require.Zero(t, m.WarningCount)
}

func TestTimeoutIsReportedNotRaised(t *testing.T) {
	src := writeSource(t)
	tester := New(Config{Timeout: 100 * time.Millisecond, Command: []string{"sleep", "5"}}, nil)

	m := tester.Test(context.Background(), src)
	require.False(t, m.Success)
	require.Equal(t, 1, m.ErrorCount)
	require.Zero(t, m.WarningCount)
	require.InDelta(t, 0.1, m.BuildTime, 1e-9)
}

func TestUnreadableSourceDegrades(t *testing.T) {
	tester := newTester(t, "true")
	m := tester.Test(context.Background(), filepath.Join(t.TempDir(), "missing.c"))
	require.False(t, m.Success)
	require.Equal(t, 1, m.ErrorCount)
}
