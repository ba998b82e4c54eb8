package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/testrun"
)

// EventKind says what an Event carries.
type EventKind int

const (
	EventHint EventKind = iota
	EventCompleted
	EventInfo
	EventError
)

// maxFailuresShown caps the failing tests listed under a hint.
const maxFailuresShown = 3

// Event is one thing to show the learner.
type Event struct {
	Kind     EventKind
	FilePath string
	Pattern  analyzer.PatternKind
	Hint     hint.Hint
	Session  session.LearningSession
	// Tests is set only when failing tests should be shown.
	Tests   *testrun.RunResult
	Elapsed time.Duration
	Message string
}

// Render formats e for a terminal.
func Render(e Event) string {
	switch e.Kind {
	case EventHint:
		return renderHint(e)
	case EventCompleted:
		return renderCompleted(e)
	case EventError:
		return StyleError.Render("✗ " + e.Message)
	default:
		return StyleSubtle.Render("• " + e.Message)
	}
}

func renderHint(e Event) string {
	var b strings.Builder

	title := fmt.Sprintf("Hint (Level %d/%d)", e.Hint.Level, proficiency.MaxHintLevel)
	b.WriteString(levelStyle(e.Hint.Level).Render(title))
	if e.Pattern != "" {
		b.WriteString(StyleSubtle.Render(fmt.Sprintf("  %s · %s", e.Pattern, filepath.Base(e.FilePath))))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleText.Render(e.Hint.Content))

	if e.Hint.BestPractice != "" {
		b.WriteString("\n\n")
		b.WriteString(StyleTip.Render("Best Practice: "))
		b.WriteString(StyleText.Render(e.Hint.BestPractice))
	}

	if e.Tests != nil && e.Tests.Failed > 0 {
		b.WriteString("\n\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("Tests: %d of %d failing", e.Tests.Failed, e.Tests.TotalTests)))
		for i, f := range e.Tests.Failures {
			if i == maxFailuresShown {
				b.WriteString("\n" + StyleSubtle.Render(fmt.Sprintf("  … %d more", len(e.Tests.Failures)-i)))
				break
			}
			line := "  ✗ " + f.TestName
			if f.Line > 0 {
				line += fmt.Sprintf(" (line %d)", f.Line)
			}
			b.WriteString("\n" + StyleError.Render(line))
		}
	}

	if n := len(e.Session.HintsShown); n > 0 {
		b.WriteString("\n\n")
		b.WriteString(StyleSubtle.Render(fmt.Sprintf("hints this session: %d", n)))
	}
	return StyleHintBox.Render(b.String())
}

func renderCompleted(e Event) string {
	msg := "Great job! Task completed!"
	if e.Pattern != "" {
		msg = fmt.Sprintf("Great job! You restored the %s.", e.Pattern)
	}
	detail := fmt.Sprintf("time %s · hints %d", e.Elapsed.Round(time.Second), len(e.Session.HintsShown))
	return StyleDoneBox.Render(StyleSuccess.Render(msg) + "\n" + StyleSubtle.Render(detail))
}
