package hint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/llm"
	"github.com/dusk-indust/learnwatch/internal/logger"
)

var levelFraming = map[int]string{
	1: "a conceptual nudge: name the idea that is missing, no code",
	2: "a structural hint: describe the parts the construct needs, no code",
	3: "a syntax hint: show the shape of the first line with <placeholders>",
	4: "a short code template with <placeholders> the student must fill in",
}

// Enricher replaces template hint text with text from a language model.
// A nil Enricher, or one without a provider, returns hints unchanged.
type Enricher struct {
	provider llm.Provider
	timeout  time.Duration
	log      *logger.Logger
}

// NewEnricher returns an Enricher using p. Requests are cut off after
// timeout when it is positive.
func NewEnricher(p llm.Provider, timeout time.Duration, log *logger.Logger) *Enricher {
	if log == nil {
		log = logger.Nop()
	}
	return &Enricher{provider: p, timeout: timeout, log: log}
}

// Enrich asks the provider for hint text at h's level. On any failure the
// template hint is returned as is.
func (e *Enricher) Enrich(ctx context.Context, cc analyzer.CodeContext, deletedLines []string, h Hint) Hint {
	if e == nil || e.provider == nil {
		return h
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text, err := e.provider.Generate(ctx, BuildPrompt(cc, deletedLines, h.Level)).Get()
	if err != nil {
		e.log.Warn("llm hint unavailable, using template", "pattern", cc.MissingElement, "err", err)
		return h
	}
	h.Content = text
	return h
}

// BuildPrompt asks for one leveled hint about the deleted construct. The
// model is told never to write the solution.
func BuildPrompt(cc analyzer.CodeContext, deletedLines []string, level int) string {
	level = ClampLevel(level)

	var b strings.Builder
	b.WriteString("You are a learning assistant for Python programming. A student deleted some code ")
	b.WriteString("and is rewriting it from memory. They need a HINT, not a solution.\n\n")
	fmt.Fprintf(&b, "MISSING CONSTRUCT: %s\n", cc.MissingElement)
	if cc.ExpectedPattern != "" {
		fmt.Fprintf(&b, "KEYWORD THAT DISAPPEARED: %s\n", cc.ExpectedPattern)
	}
	fmt.Fprintf(&b, "HINT LEVEL: %d of 4, %s\n\n", level, levelFraming[level])

	if len(deletedLines) > 0 {
		b.WriteString("DELETED LINES (for your reference only, never repeat them):\n")
		for _, l := range deletedLines {
			if l == "" {
				continue
			}
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("CURRENT CODE:\n```python\n")
	b.WriteString(cc.SurroundingCode)
	if !strings.HasSuffix(cc.SurroundingCode, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("```\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("- NEVER write the actual solution\n")
	b.WriteString("- Use <placeholders> instead of real names or values\n")
	b.WriteString("- One or two sentences, encouraging tone\n")
	return b.String()
}
