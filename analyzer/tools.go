package analyzer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ExternalTool is a capability-checked binding to an optional analysis
// binary, resolved once at startup. A nil binding (or a run that errors or
// times out) contributes zero issues: evaluation must complete even in a
// degraded environment, so tool absence is never an error. Callers should
// not confuse a silent zero with a clean pass.
type ExternalTool struct {
	Name    string
	Path    string
	Args    []string
	Timeout time.Duration
}

// resolveTool looks the binary up in PATH and returns nil when absent.
func resolveTool(name, binary string, timeout time.Duration, args ...string) *ExternalTool {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil
	}
	return &ExternalTool{Name: name, Path: path, Args: args, Timeout: timeout}
}

// resolveScriptTool binds an interpreter plus a script file; both must exist.
func resolveScriptTool(name, interpreter, script string, timeout time.Duration, args ...string) *ExternalTool {
	path, err := exec.LookPath(interpreter)
	if err != nil {
		return nil
	}
	if _, err := os.Stat(script); err != nil {
		return nil
	}
	return &ExternalTool{Name: name, Path: path, Args: append([]string{script}, args...), Timeout: timeout}
}

// run invokes the tool against the target file and returns its stdout and
// stderr. The ok flag is false when the tool was absent, timed out or could
// not start; diagnostics-with-nonzero-exit is still ok, since linters exit
// nonzero when they find issues.
func (t *ExternalTool) run(ctx context.Context, logger *zap.Logger, target string) (stdout, stderr string, ok bool) {
	if t == nil {
		return "", "", false
	}
	cctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, t.Path, append(t.Args, target)...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		logger.Warn("analysis tool timed out", zap.String("tool", t.Name), zap.Duration("timeout", t.Timeout))
		return "", "", false
	}
	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			logger.Warn("analysis tool failed to run", zap.String("tool", t.Name), zap.Error(err))
			return "", "", false
		}
	}
	return outBuf.String(), errBuf.String(), true
}
