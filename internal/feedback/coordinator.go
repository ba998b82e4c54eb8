// Package feedback gathers everything known about a deletion into one
// EnhancedContext and decides how much help the learner gets.
//
// The Coordinator is the point where graph-build and test failures stop: it
// logs them and carries on with the feature absent.
package feedback

import (
	"context"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/logger"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/result"
	"github.com/dusk-indust/learnwatch/internal/testrun"
)

// EnhancedContext bundles a CodeContext with optional extras. A nil pointer
// field means the extra is unavailable.
type EnhancedContext struct {
	CodeContext    analyzer.CodeContext        `json:"codeContext"`
	KnowledgeGraph *graph.CodeGraph            `json:"knowledgeGraph,omitempty"`
	TestResult     *testrun.RunResult          `json:"testResult,omitempty"`
	StudentProfile *proficiency.StudentProfile `json:"studentProfile,omitempty"`
}

// WithTestResult returns a copy carrying rr.
func (c EnhancedContext) WithTestResult(rr testrun.RunResult) EnhancedContext {
	c.TestResult = &rr
	return c
}

// Coordinator builds and refines EnhancedContexts.
type Coordinator struct {
	builder graph.Builder
	runner  testrun.Runner
	calc    proficiency.Calculator
	log     *logger.Logger
}

// NewCoordinator wires the collaborators. A nil calculator means
// proficiency.SimpleCalculator.
func NewCoordinator(builder graph.Builder, runner testrun.Runner, calc proficiency.Calculator, log *logger.Logger) *Coordinator {
	if calc == nil {
		calc = proficiency.SimpleCalculator{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{builder: builder, runner: runner, calc: calc, log: log}
}

// BuildEnhancedContext builds the structural graph of code and bundles it
// with cc and profile. A graph-build failure is logged and yields a context
// without a graph; the result is always Ok.
func (c *Coordinator) BuildEnhancedContext(code string, cc analyzer.CodeContext, profile *proficiency.StudentProfile) result.Result[EnhancedContext] {
	ec := EnhancedContext{CodeContext: cc, StudentProfile: profile}

	built := c.builder.BuildFromCode(code)
	if g, ok := built.Value(); ok {
		ec.KnowledgeGraph = &g
	} else {
		c.log.Warn("graph build failed, continuing without graph", "kind", built.Error().Kind, "err", built.Error())
	}
	return result.Ok(ec)
}

// EnrichWithTests runs the tests in testFile and attaches the outcome. When
// the run fails the original context is returned unchanged.
func (c *Coordinator) EnrichWithTests(ctx context.Context, ec EnhancedContext, testFile string) result.Result[EnhancedContext] {
	if c.runner == nil {
		return result.Ok(ec)
	}
	run := c.runner.RunTests(ctx, testFile)
	rr, ok := run.Value()
	if !ok {
		c.log.Warn("test run failed, continuing without test feedback", "file", testFile, "kind", run.Error().Kind, "err", run.Error())
		return result.Ok(ec)
	}
	return result.Ok(ec.WithTestResult(rr))
}

// AdaptiveHintLevel adjusts base by the learner's mastery of the deleted
// pattern: experts get one level less, beginners one level more. Without a
// profile or stats for the pattern, base is returned unchanged.
func (c *Coordinator) AdaptiveHintLevel(ec EnhancedContext, base int) int {
	if ec.StudentProfile == nil {
		return base
	}
	stats, ok := ec.StudentProfile.Stats(string(ec.CodeContext.MissingElement))
	if !ok {
		return base
	}

	switch c.calc.Mastery(stats) {
	case proficiency.MasteryExpert:
		return max(proficiency.MinHintLevel, base-1)
	case proficiency.MasteryBeginner:
		return min(proficiency.MaxHintLevel, base+1)
	default:
		return base
	}
}

// ShouldShowTestFeedback reports whether a test result is present and has
// failures.
func ShouldShowTestFeedback(ec EnhancedContext) bool {
	return ec.TestResult != nil && ec.TestResult.Failed > 0
}
