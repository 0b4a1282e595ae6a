package buildtest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/lkmbench/lkmbench/core"
)

// Config controls the out-of-tree module build.
type Config struct {
	// KernelHeadersPath is substituted into the generated Makefile as KDIR.
	KernelHeadersPath string
	// Timeout is the hard wall-clock bound for one build attempt.
	Timeout time.Duration
	// Command is the build invocation run inside the scratch directory.
	// Overridable so tests can substitute a scripted toolchain.
	Command []string
}

// DefaultConfig matches the reference kbuild setup.
func DefaultConfig() Config {
	return Config{
		KernelHeadersPath: "/lib/modules/$(shell uname -r)/build",
		Timeout:           60 * time.Second,
		Command:           []string{"make"},
	}
}

// Tester attempts to build candidate source as a loadable module inside a
// freshly created scratch directory, removed unconditionally afterwards.
type Tester struct {
	cfg    Config
	logger *zap.Logger
}

// New returns a tester; zero-value config fields fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Tester {
	def := DefaultConfig()
	if cfg.KernelHeadersPath == "" {
		cfg.KernelHeadersPath = def.KernelHeadersPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if len(cfg.Command) == 0 {
		cfg.Command = def.Command
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tester{cfg: cfg, logger: logger}
}

var (
	errorPattern   = regexp.MustCompile(`(?i)error:`)
	warningPattern = regexp.MustCompile(`(?i)warning:`)
)

// Test builds the file at codePath and reports structured metrics. It never
// returns an error: a timeout is a reported failure (one synthetic error,
// build_time pinned to the timeout), and a scratch-dir setup failure
// degrades to an all-failed record.
func (t *Tester) Test(ctx context.Context, codePath string) core.CompilationMetrics {
	tmpdir, err := os.MkdirTemp("", "lkmbench-build-")
	if err != nil {
		t.logger.Error("scratch directory creation failed", zap.Error(err))
		return core.CompilationMetrics{Success: false, ErrorCount: 1}
	}
	defer os.RemoveAll(tmpdir)

	if err := t.populate(tmpdir, codePath); err != nil {
		t.logger.Error("build directory setup failed", zap.Error(err))
		return core.CompilationMetrics{Success: false, ErrorCount: 1}
	}

	cctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cctx, t.cfg.Command[0], t.cfg.Command[1:]...)
	cmd.Dir = tmpdir
	output, runErr := cmd.CombinedOutput()

	if cctx.Err() == context.DeadlineExceeded {
		t.logger.Warn("build timed out", zap.Duration("timeout", t.cfg.Timeout))
		return core.CompilationMetrics{
			Success:      false,
			ErrorCount:   1,
			WarningCount: 0,
			BuildTime:    t.cfg.Timeout.Seconds(),
		}
	}

	metrics := core.CompilationMetrics{
		Success:      runErr == nil,
		ErrorCount:   len(errorPattern.FindAllIndex(output, -1)),
		WarningCount: len(warningPattern.FindAllIndex(output, -1)),
		BuildTime:    time.Since(start).Seconds(),
	}
	if info, statErr := os.Stat(filepath.Join(tmpdir, "driver.ko")); statErr == nil {
		size := info.Size()
		metrics.BinarySize = &size
	}
	t.logger.Debug("build finished",
		zap.Bool("success", metrics.Success),
		zap.Int("errors", metrics.ErrorCount),
		zap.Int("warnings", metrics.WarningCount),
		zap.Float64("build_time_s", metrics.BuildTime))
	return metrics
}

// populate writes the kbuild Makefile and copies the candidate in as
// driver.c, the object name the Makefile expects.
func (t *Tester) populate(tmpdir, codePath string) error {
	makefile := fmt.Sprintf(`obj-m += driver.o
KDIR := %s

all:
	make -C $(KDIR) M=$(PWD) modules

clean:
	make -C $(KDIR) M=$(PWD) clean
`, t.cfg.KernelHeadersPath)

	if err := os.WriteFile(filepath.Join(tmpdir, "Makefile"), []byte(makefile), 0o644); err != nil {
		return fmt.Errorf("write Makefile: %w", err)
	}
	src, err := os.ReadFile(codePath)
	if err != nil {
		return fmt.Errorf("read candidate source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpdir, "driver.c"), src, 0o644); err != nil {
		return fmt.Errorf("copy candidate source: %w", err)
	}
	return nil
}
