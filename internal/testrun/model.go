// Package testrun runs a learner's tests and reports the outcome as data.
package testrun

import (
	"context"
	"time"

	"github.com/dusk-indust/learnwatch/internal/result"
)

// FailureInfo describes one failing test.
type FailureInfo struct {
	TestName string `json:"testName"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"` // 0 when unknown
	Trace    string `json:"trace,omitempty"`
}

// RunResult is the outcome of one test invocation.
type RunResult struct {
	TotalTests int           `json:"totalTests"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration"`
	Failures   []FailureInfo `json:"failures"`
}

// Runner runs tests. Missing files yield FileError; a missing runner,
// timeout or other execution failure yields TestError.
type Runner interface {
	RunTests(ctx context.Context, filePath string) result.Result[RunResult]
	DiscoverTests(ctx context.Context, dir string) result.Result[[]string]
}
