package executor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTest = `import org.testng.annotations.Test;

public class LoginTest {
    @Test
    public void login() {}
}`

func newTestExecutor(t *testing.T, command ...string) *Executor {
	t.Helper()

	return New(Config{
		ProjectDir: t.TempDir(),
		SourceDir:  "src/test/java/com/example/generated_tests",
		Package:    "com.example.generated_tests",
		Command:    command,
		Timeout:    10 * time.Second,
	})
}

func TestRunTest_Pass(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo '[INFO] BUILD SUCCESS'")

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.NoError(t, err)

	assert.Equal(t, Pass, report.Verdict)
	assert.Equal(t, 0, report.ExitCode)
	assert.Contains(t, report.Stdout, "BUILD SUCCESS")
}

func TestRunTest_NonZeroExitIsFail(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo '[INFO] BUILD SUCCESS'; echo 'compilation error' >&2; exit 1")

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.NoError(t, err)

	assert.Equal(t, Fail, report.Verdict)
	assert.Equal(t, 1, report.ExitCode)
	assert.Contains(t, report.Stderr, "compilation error")
	assert.Contains(t, report.Output(0), "compilation error")
}

func TestRunTest_CleanExitWithoutMarkerIsFail(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo 'BUILD FAILURE'")

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.NoError(t, err)
	assert.Equal(t, Fail, report.Verdict)
}

func TestRunTest_MarkerOnlyOnStderrIsFail(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo 'BUILD SUCCESS' >&2")

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.NoError(t, err)
	assert.Equal(t, Fail, report.Verdict)
}

func TestRunTest_MissingBinaryIsError(t *testing.T) {
	ex := newTestExecutor(t, "qapilot-definitely-missing-build-tool", "test")

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.Error(t, err)

	var fault *ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.Equal(t, Error, report.Verdict)
	assert.Equal(t, "qapilot-definitely-missing-build-tool test", fault.Command)
}

func TestRunTest_TimeoutIsFail(t *testing.T) {
	ex := New(Config{
		ProjectDir: t.TempDir(),
		SourceDir:  "tests",
		Command:    []string{"sh", "-c", "exec sleep 10"},
		Timeout:    100 * time.Millisecond,
	})

	report, err := ex.RunTest(context.Background(), sampleTest, "LoginTest")
	require.NoError(t, err)
	assert.Equal(t, Fail, report.Verdict)
	assert.Less(t, report.Duration, 8*time.Second)
}

func TestRunTest_InvalidClassNameIsError(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo BUILD SUCCESS")

	for _, name := range []string{"../Escape", "Login Test", "1Login", "Login.java"} {
		report, err := ex.RunTest(context.Background(), sampleTest, name)

		assert.ErrorIs(t, err, ErrInvalidClassName, name)
		assert.Equal(t, Error, report.Verdict, name)
	}
}

func TestRunTest_WritesFileWithPackage(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "cat src/test/java/com/example/generated_tests/LoginTest.java; echo BUILD SUCCESS")

	code := "package com.other;\n" + sampleTest

	report, err := ex.RunTest(context.Background(), code, "LoginTest")
	require.NoError(t, err)

	assert.Equal(t, Pass, report.Verdict)
	assert.Equal(t, "LoginTest.java", filepath.Base(report.FilePath))

	written, err := os.ReadFile(report.FilePath)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(written), "package com.example.generated_tests;\n\nimport org.testng"))
	assert.NotContains(t, string(written), "com.other")
	assert.Contains(t, report.Stdout, "public class LoginTest")
}

func TestRunTest_DefaultClassName(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo BUILD SUCCESS")

	report, err := ex.RunTest(context.Background(), sampleTest, "")
	require.NoError(t, err)
	assert.Equal(t, "SampleTestNgTest.java", filepath.Base(report.FilePath))
}

func TestInferClassName(t *testing.T) {
	assert.Equal(t, "LoginTest", InferClassName(sampleTest))
	assert.Equal(t, "CheckoutTest", InferClassName("public final class CheckoutTest extends Base {}"))
	assert.Equal(t, DefaultClassName, InferClassName("class Hidden {}"))
}

func TestReport_OutputTruncatesFromTheEnd(t *testing.T) {
	r := &Report{Stdout: "0123456789"}

	assert.Equal(t, "...6789", r.Output(4))
	assert.Equal(t, "0123456789", r.Output(0))
}

func TestWithPackage_DeclarationAfterComments(t *testing.T) {
	code := "/*\n * Copyright QA\n */\n// generated\npackage com.other;\n\nimport org.testng.annotations.Test;\n"

	out := withPackage(code, "com.example.generated_tests")

	assert.Equal(t, 1, strings.Count(out, "package "))
	assert.True(t, strings.HasPrefix(out, "package com.example.generated_tests;\n\n/*"))
	assert.Contains(t, out, "// generated\n\nimport org.testng")
}

func TestWithPackage_KeepsLaterMentions(t *testing.T) {
	code := "package com.other;\nclass A {\n  String s = \"x\";\n}\n  package com.second;\n"

	out := withPackage(code, "com.example")

	assert.NotContains(t, out, "com.other")
	assert.Contains(t, out, "package com.second;", "only the first declaration is replaced")
}

func TestRunTest_WaitingForSlotHonoursContext(t *testing.T) {
	ex := newTestExecutor(t, "sh", "-c", "echo BUILD SUCCESS")

	// a run in progress holds the only slot
	ex.slot <- struct{}{}
	defer func() { <-ex.slot }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := ex.RunTest(ctx, sampleTest, "LoginTest")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, Error, report.Verdict)

	var fault *ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReport_OutputKeepsRunesWhole(t *testing.T) {
	r := &Report{Stdout: "résumé ✓ passed"}

	for limit := 1; limit < len(r.Stdout); limit++ {
		out := r.Output(limit)
		assert.True(t, utf8.ValidString(out), "limit %d produced %q", limit, out)
	}

	assert.Equal(t, "...passed", r.Output(6))
}
