package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/metrics"
)

var (
	javaIdentifier   = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	publicClassDecl  = regexp.MustCompile(`\bpublic\s+(?:final\s+|abstract\s+)*class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	packageDecl      = regexp.MustCompile(`(?m)^[ \t]*package\s+[A-Za-z_$][\w$.]*\s*;[ \t]*\r?\n?`)
	defaultCommand   = []string{"mvn", "test"}
	defaultTimeout   = 5 * time.Minute
	processWaitDelay = 5 * time.Second
)

// writes generated tests into a build project and runs its test command
type Executor struct {
	cfg Config

	// one slot: runs share one project directory and build output
	slot chan struct{}
}

func New(cfg Config) *Executor {
	if len(cfg.Command) == 0 {
		cfg.Command = defaultCommand
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	return &Executor{cfg: cfg, slot: make(chan struct{}, 1)}
}

// writes code to {SourceDir}/{className}.java and runs the build command.
// a non-zero exit is a FAIL verdict with a nil error; a command that cannot be
// started, or an invalid class name, is an ERROR verdict with an *ExecutionFault.
func (e *Executor) RunTest(ctx context.Context, code, className string) (*Report, error) {
	if className == "" {
		className = DefaultClassName
	}

	command := strings.Join(e.cfg.Command, " ")

	if !javaIdentifier.MatchString(className) {
		return e.record(&Report{Verdict: Error, ExitCode: -1}, &ExecutionFault{
			Command: command,
			Err:     fmt.Errorf("%w: %q", ErrInvalidClassName, className),
		})
	}

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return e.record(&Report{Verdict: Error, ExitCode: -1}, &ExecutionFault{
			Command: command,
			Err:     fmt.Errorf("waiting for a running test: %w", ctx.Err()),
		})
	}
	defer func() { <-e.slot }()

	path, err := e.writeSource(code, className)
	if err != nil {
		return e.record(&Report{Verdict: Error, ExitCode: -1}, &ExecutionFault{Command: command, Err: err})
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.cfg.Command[0], e.cfg.Command[1:]...)
	cmd.Dir = e.cfg.ProjectDir
	cmd.WaitDelay = processWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()

	report := &Report{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		FilePath: path,
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		report.ExitCode = 0
		report.Verdict = Fail
		if strings.Contains(report.Stdout, SuccessMarker) {
			report.Verdict = Pass
		}
	case errors.As(err, &exitErr):
		report.ExitCode = exitErr.ExitCode()
		report.Verdict = Fail
	default:
		report.ExitCode = -1
		report.Verdict = Error
		return e.record(report, &ExecutionFault{Command: command, Err: err})
	}

	return e.record(report, nil)
}

// returns the name of the first public class declared in code, or DefaultClassName
func InferClassName(code string) string {
	if m := publicClassDecl.FindStringSubmatch(code); m != nil {
		return m[1]
	}

	return DefaultClassName
}

func (e *Executor) writeSource(code, className string) (string, error) {
	dir := e.cfg.SourceDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.cfg.ProjectDir, dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create test directory: %w", err)
	}

	path := filepath.Join(dir, className+".java")

	if err := os.WriteFile(path, []byte(withPackage(code, e.cfg.Package)), 0o644); err != nil { //nolint:gosec // generated sources are meant to be readable
		return "", fmt.Errorf("failed to write test file: %w", err)
	}

	return path, nil
}

// prefixes the configured package, replacing any declaration the code already carries
func withPackage(code, pkg string) string {
	if pkg == "" {
		return code
	}

	// only the first declaration; comments may precede it
	if loc := packageDecl.FindStringIndex(code); loc != nil {
		code = code[:loc[0]] + code[loc[1]:]
	}

	return "package " + pkg + ";\n\n" + code
}

func (e *Executor) record(report *Report, err error) (*Report, error) {
	metrics.TestVerdictsTotal.WithLabelValues(string(report.Verdict)).Inc()

	log := logger.With("verdict", report.Verdict, "exit_code", report.ExitCode, "file", report.FilePath)
	if err != nil {
		log.Warn("test execution fault", "error", err)
	} else {
		log.Info("test executed", "duration", report.Duration)
	}

	return report, err
}
