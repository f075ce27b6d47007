package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// outcome of a test run
type Verdict string

const (
	Pass  Verdict = "PASS"
	Fail  Verdict = "FAIL"
	Error Verdict = "ERROR"
)

const (
	DefaultClassName = "SampleTestNgTest"

	// build output marker that distinguishes a passing run from a clean exit without tests
	SuccessMarker = "BUILD SUCCESS"
)

var ErrInvalidClassName = errors.New("class name is not a valid Java identifier")

type Config struct {
	ProjectDir string   // working directory of the build command
	SourceDir  string   // where test files are written, relative to ProjectDir unless absolute
	Package    string   // package declaration prepended to every file
	Command    []string // e.g. ["mvn", "test"]
	Timeout    time.Duration
}

type Report struct {
	Verdict  Verdict
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	FilePath string
}

// returns stdout followed by stderr, keeping at most limit bytes from the end (0 keeps everything)
func (r *Report) Output(limit int) string {
	out := r.Stdout
	if strings.TrimSpace(r.Stderr) != "" {
		out += "\n" + r.Stderr
	}

	if limit > 0 && len(out) > limit {
		start := len(out) - limit
		for start < len(out) && !utf8.RuneStart(out[start]) {
			start++
		}
		out = "..." + out[start:]
	}

	return out
}

// the build command could not be started; reported as an ERROR verdict
type ExecutionFault struct {
	Command string
	Err     error
}

func (e *ExecutionFault) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", e.Command, e.Err)
}

func (e *ExecutionFault) Unwrap() error {
	return e.Err
}
