package testrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/dusk-indust/learnwatch/internal/logger"
	"github.com/dusk-indust/learnwatch/internal/result"
)

// DefaultTimeout bounds a single pytest invocation.
const DefaultTimeout = 30 * time.Second

// maxMessageLines is how many lines after a failure are kept as its message.
const maxMessageLines = 9

var (
	testNamePattern = regexp.MustCompile(`test_\w+`)
	traceLine       = regexp.MustCompile(`\.py:(\d+):`)
)

var _ Runner = (*PytestRunner)(nil)

// PytestRunner shells out to pytest.
type PytestRunner struct {
	binary  string
	timeout time.Duration
	fs      afero.Fs
	log     *logger.Logger
}

// Option configures a PytestRunner.
type Option func(*PytestRunner)

// WithBinary overrides the pytest executable.
func WithBinary(path string) Option { return func(r *PytestRunner) { r.binary = path } }

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option { return func(r *PytestRunner) { r.timeout = d } }

// WithFs sets the filesystem used for existence checks.
func WithFs(fs afero.Fs) Option { return func(r *PytestRunner) { r.fs = fs } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(r *PytestRunner) { r.log = l } }

// NewPytestRunner returns a runner invoking "pytest" from PATH.
func NewPytestRunner(opts ...Option) *PytestRunner {
	r := &PytestRunner{
		binary:  "pytest",
		timeout: DefaultTimeout,
		fs:      afero.NewOsFs(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunTests runs pytest verbosely on filePath and parses its output. A failing
// test run is a successful RunResult; only failures to run at all are errors.
func (r *PytestRunner) RunTests(ctx context.Context, filePath string) result.Result[RunResult] {
	if ok, _ := afero.Exists(r.fs, filePath); !ok {
		return result.Err[RunResult](result.FileError, "file not found: "+filePath)
	}

	start := time.Now()
	out, err := r.run(ctx, filePath, "-v", "--tb=short", "--no-header", "--no-summary")
	if err != nil {
		return result.Fail[RunResult](err)
	}
	rr := ParseOutput(out)
	rr.Duration = time.Since(start)
	r.log.Debug("pytest finished", "file", filePath, "passed", rr.Passed, "failed", rr.Failed, "errors", rr.Errors)
	return result.Ok(rr)
}

// DiscoverTests lists the test files pytest collects under dir.
func (r *PytestRunner) DiscoverTests(ctx context.Context, dir string) result.Result[[]string] {
	if ok, _ := afero.DirExists(r.fs, dir); !ok {
		return result.Err[[]string](result.FileError, "directory not found: "+dir)
	}
	out, err := r.run(ctx, "--collect-only", "-q", dir)
	if err != nil {
		return result.Fail[[]string](err)
	}
	return result.Ok(ParseCollected(out))
}

// run executes pytest with args and returns combined stdout and stderr.
// Non-zero exits are expected when tests fail and are not errors.
func (r *PytestRunner) run(ctx context.Context, args ...string) (string, *result.Error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.WaitDelay = time.Second
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return "", result.NewError(result.TestError, "test execution timeout")
	case ctx.Err() != nil:
		return "", result.NewError(result.TestError, "test execution cancelled")
	case errors.Is(err, exec.ErrNotFound):
		return "", result.NewError(result.TestError, "pytest not found")
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return buf.String(), nil
		}
		return "", result.NewError(result.TestError, err.Error())
	}
	return buf.String(), nil
}

// ParseOutput reads verbose pytest output. A status line names a test node
// ("path::test_name STATUS"); the lines that follow a FAILED status, up to the
// next status line, form that failure's message.
func ParseOutput(output string) RunResult {
	lines := strings.Split(output, "\n")
	rr := RunResult{Failures: []FailureInfo{}}

	for i, line := range lines {
		switch statusOf(line) {
		case "PASSED":
			rr.Passed++
		case "FAILED":
			rr.Failed++
			rr.Failures = append(rr.Failures, parseFailure(lines, i))
		case "ERROR":
			rr.Errors++
		}
	}
	rr.TotalTests = rr.Passed + rr.Failed + rr.Errors
	return rr
}

func statusOf(line string) string {
	if !strings.Contains(line, "::") {
		return ""
	}
	for _, status := range []string{"PASSED", "FAILED", "ERROR"} {
		for _, f := range strings.Fields(line) {
			if f == status {
				return status
			}
		}
	}
	return ""
}

func parseFailure(lines []string, at int) FailureInfo {
	var msg []string
	for i := at + 1; i < len(lines) && i <= at+maxMessageLines; i++ {
		if statusOf(lines[i]) != "" {
			break
		}
		msg = append(msg, lines[i])
	}
	message := strings.TrimSpace(strings.Join(msg, "\n"))

	info := FailureInfo{TestName: testName(lines[at]), Message: message, Trace: message}
	if m := traceLine.FindStringSubmatch(message); m != nil {
		info.Line, _ = strconv.Atoi(m[1])
	}
	return info
}

// testName takes the node id after the last "::", dropping any
// parametrization, and falls back to the first test_ identifier.
func testName(line string) string {
	fields := strings.Fields(line)
	for _, f := range fields {
		if idx := strings.LastIndex(f, "::"); idx >= 0 {
			name := f[idx+2:]
			if b := strings.IndexByte(name, '['); b >= 0 {
				name = name[:b]
			}
			if name != "" {
				return name
			}
		}
	}
	if m := testNamePattern.FindString(line); m != "" {
		return m
	}
	return "unknown"
}

// ParseCollected extracts test file paths from "pytest --collect-only -q"
// output, one per file, in first-seen order.
func ParseCollected(output string) []string {
	files := []string{}
	seen := map[string]bool{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "test_") || !strings.Contains(line, ".py") {
			continue
		}
		file := line
		if idx := strings.Index(line, "::"); idx >= 0 {
			file = line[:idx]
		}
		if !strings.HasSuffix(file, ".py") || seen[file] {
			continue
		}
		seen[file] = true
		files = append(files, file)
	}
	return files
}

// String renders a one-line summary such as "3 tests: 2 passed, 1 failed".
func (rr RunResult) String() string {
	s := fmt.Sprintf("%d tests: %d passed, %d failed", rr.TotalTests, rr.Passed, rr.Failed)
	if rr.Errors > 0 {
		s += fmt.Sprintf(", %d errors", rr.Errors)
	}
	return s
}
