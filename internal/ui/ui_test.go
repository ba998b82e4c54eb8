package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/testrun"
)

func hintEvent() Event {
	return Event{
		Kind:     EventHint,
		FilePath: "/work/main.py",
		Pattern:  analyzer.PatternLoops,
		Hint:     hint.Hint{Level: 2, Content: "Think about repeating an action.", BestPractice: "Prefer for over while."},
		Session:  session.LearningSession{HintsShown: []string{"a", "b"}},
	}
}

func TestRender_Hint(t *testing.T) {
	out := Render(hintEvent())
	assert.Contains(t, out, "Hint (Level 2/4)")
	assert.Contains(t, out, "loops")
	assert.Contains(t, out, "main.py")
	assert.Contains(t, out, "Think about repeating an action.")
	assert.Contains(t, out, "Best Practice")
	assert.Contains(t, out, "Prefer for over while.")
	assert.Contains(t, out, "hints this session: 2")
	assert.NotContains(t, out, "Tests:")
}

func TestRender_HintWithoutTip(t *testing.T) {
	e := hintEvent()
	e.Hint.BestPractice = ""
	assert.NotContains(t, Render(e), "Best Practice")
}

func TestRender_HintWithFailingTests(t *testing.T) {
	e := hintEvent()
	e.Tests = &testrun.RunResult{
		TotalTests: 6, Failed: 5,
		Failures: []testrun.FailureInfo{
			{TestName: "test_a", Line: 12}, {TestName: "test_b"}, {TestName: "test_c"},
			{TestName: "test_d"}, {TestName: "test_e"},
		},
	}
	out := Render(e)
	assert.Contains(t, out, "Tests: 5 of 6 failing")
	assert.Contains(t, out, "test_a (line 12)")
	assert.Contains(t, out, "test_c")
	assert.NotContains(t, out, "test_d")
	assert.Contains(t, out, "2 more")
}

func TestRender_Other(t *testing.T) {
	done := Render(Event{Kind: EventCompleted, Pattern: analyzer.PatternFunctions, Elapsed: 90 * time.Second})
	assert.Contains(t, done, "restored the functions")
	assert.Contains(t, done, "1m30s")

	assert.Contains(t, Render(Event{Kind: EventInfo, Message: "watching"}), "watching")
	assert.Contains(t, Render(Event{Kind: EventError, Message: "boom"}), "boom")
}

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	assert.True(t, q.Emit(Event{Message: "1"}))
	assert.True(t, q.Emit(Event{Message: "2"}))
	assert.False(t, q.Emit(Event{Message: "3"}))

	assert.Equal(t, "1", (<-q.Subscribe()).Message)
	assert.True(t, q.Emit(Event{Message: "4"}))
}

func TestQueue_Run(t *testing.T) {
	q := NewQueue(0)
	q.Emit(Event{Kind: EventInfo, Message: "first"})
	q.Emit(Event{Kind: EventError, Message: "second"})
	q.Close()

	var buf bytes.Buffer
	require.NoError(t, q.Run(context.Background(), &buf))
	out := buf.String()
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("first")), bytes.Index(buf.Bytes(), []byte("second")))
}

func TestQueue_RunStopsOnCancel(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, q.Run(ctx, &bytes.Buffer{}))
}
